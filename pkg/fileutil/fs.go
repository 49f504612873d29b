package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem は実ファイルシステムと埋め込みファイルシステムを統一的に扱うインターフェース
type FileSystem interface {
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// BasePath はベースパスを返す
	BasePath() string
	// IsEmbedded は埋め込みファイルシステムかどうかを返す
	IsEmbedded() bool
}

// RealFS は実ファイルシステムへのアクセスを提供する
type RealFS struct {
	basePath string
	fsys     fs.FS
}

// NewRealFS は実ファイルシステム用のFileSystemを作成する
func NewRealFS(basePath string) *RealFS {
	if basePath == "" {
		basePath = "."
	}
	return &RealFS{basePath: basePath, fsys: os.DirFS(basePath)}
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	// 絶対パスはベースパスを無視してそのまま読む
	if filepath.IsAbs(name) {
		return os.ReadFile(name)
	}
	actualPath, err := ResolvePathFS(r.fsys, name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(r.fsys, actualPath)
}

func (r *RealFS) BasePath() string {
	return r.basePath
}

func (r *RealFS) IsEmbedded() bool {
	return false
}

// EmbedFS は埋め込みファイルシステム（任意の fs.FS）へのアクセスを提供する
type EmbedFS struct {
	fsys     fs.FS
	basePath string
}

// NewEmbedFS は埋め込みファイルシステム用のFileSystemを作成する
func NewEmbedFS(fsys fs.FS, basePath string) *EmbedFS {
	return &EmbedFS{fsys: fsys, basePath: basePath}
}

func (e *EmbedFS) ReadFile(name string) ([]byte, error) {
	actualPath, err := ResolvePathFS(e.fsys, e.resolvePath(name))
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(e.fsys, actualPath)
}

func (e *EmbedFS) BasePath() string {
	return e.basePath
}

func (e *EmbedFS) IsEmbedded() bool {
	return true
}

func (e *EmbedFS) resolvePath(name string) string {
	cleanName := CleanName(name)
	if e.basePath == "" || e.basePath == "." {
		return cleanName
	}
	if cleanName == "." {
		return e.basePath
	}
	return e.basePath + "/" + cleanName
}

// OverlayFS は複数の FileSystem を順に検索する
// 先に渡したものが優先される（外部ディレクトリで埋め込みファイルを上書きするなど）
type OverlayFS struct {
	layers []FileSystem
}

// NewOverlayFS は layers を優先順に検索する FileSystem を作成する。nil は無視する
func NewOverlayFS(layers ...FileSystem) *OverlayFS {
	o := &OverlayFS{}
	for _, l := range layers {
		if l != nil {
			o.layers = append(o.layers, l)
		}
	}
	return o
}

func (o *OverlayFS) ReadFile(name string) ([]byte, error) {
	var firstErr error
	for _, l := range o.layers {
		data, err := l.ReadFile(name)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return nil, firstErr
}

// BasePath は最優先のレイヤーのベースパスを返す
func (o *OverlayFS) BasePath() string {
	if len(o.layers) == 0 {
		return ""
	}
	return o.layers[0].BasePath()
}

// IsEmbedded はすべてのレイヤーが埋め込みの場合に true を返す
func (o *OverlayFS) IsEmbedded() bool {
	for _, l := range o.layers {
		if !l.IsEmbedded() {
			return false
		}
	}
	return len(o.layers) > 0
}
