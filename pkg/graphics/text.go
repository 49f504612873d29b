package graphics

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/text/width"

	"github.com/zurustar/mewlix-graphic/pkg/fileutil"
)

// DefaultFontSize はフォントサイズ省略時の値（ピクセル）
const DefaultFontSize = 12

// FallbackFamily はフォント未指定・未検出時に使う等幅フォント名
const FallbackFamily = "monospace"

// フォントマッピング（総称名・Windows名 → クロスプラットフォーム候補）
// 指定されたフォントが見つからないとき、候補を順に探してから Go Mono にフォールバックする
var fontMapping = map[string][]string{
	"monospace":   {"DejaVu Sans Mono", "Liberation Mono", "Menlo", "Consolas"},
	"courier new": {"Courier New", "Liberation Mono", "DejaVu Sans Mono", "Menlo"},
	"courier":     {"Courier", "Liberation Mono", "DejaVu Sans Mono"},
	"sans-serif":  {"DejaVu Sans", "Liberation Sans", "Helvetica", "Arial"},
	"serif":       {"DejaVu Serif", "Liberation Serif", "Times New Roman"},
	"ms gothic":   {"Hiragino Kaku Gothic Pro", "Hiragino Sans", "Noto Sans JP", "IPAGothic"},
	"ms mincho":   {"Hiragino Mincho Pro", "Hiragino Mincho ProN", "Noto Serif JP", "IPAMincho"},
}

type faceKey struct {
	family string
	size   float64
}

// FontBook はフォントファミリー名とサイズからフォントフェイスを解決する
//
// 解決順: 登録済みフォント → システムフォント → Go Mono
// 解決結果とフェイスはキャッシュされる。
type FontBook struct {
	registered map[string]*opentype.Font
	resolved   map[string]*opentype.Font
	faces      map[faceKey]font.Face
	fallback   *opentype.Font
	fontPaths  []string
	log        *slog.Logger
	mu         sync.Mutex
}

// FontBookOption は FontBook のオプション
type FontBookOption func(*FontBook)

// WithFontPaths はシステムフォントの検索パスを置き換える
func WithFontPaths(paths ...string) FontBookOption {
	return func(fb *FontBook) {
		fb.fontPaths = paths
	}
}

// WithFontLogger はロガーを設定する
func WithFontLogger(log *slog.Logger) FontBookOption {
	return func(fb *FontBook) {
		fb.log = log
	}
}

// NewFontBook は新しい FontBook を作成する
func NewFontBook(opts ...FontBookOption) *FontBook {
	fb := &FontBook{
		registered: make(map[string]*opentype.Font),
		resolved:   make(map[string]*opentype.Font),
		faces:      make(map[faceKey]font.Face),
		fontPaths:  getSystemFontPaths(),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(fb)
	}
	return fb
}

// NormalizeFamily はフォントファミリー名を比較用に正規化する
// 全角英数字は半角に畳み込み、引用符を除いて小文字化する
func NormalizeFamily(name string) string {
	name = width.Fold.String(name)
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	return strings.ToLower(name)
}

// Register はフォントデータをファミリー名で登録する
func (fb *FontBook) Register(name string, data []byte) error {
	f, err := parseFont(data)
	if err != nil {
		return fmt.Errorf("failed to register font %q: %w", name, err)
	}

	key := NormalizeFamily(name)

	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.registered[key] = f
	// 以前の解決結果を破棄
	delete(fb.resolved, key)
	for k := range fb.faces {
		if k.family == key {
			delete(fb.faces, k)
		}
	}

	fb.log.Debug("FontBook: registered font", "name", name)
	return nil
}

// Face は指定ファミリー・サイズのフォントフェイスを返す
// family が空の場合は等幅フォントを使用する
func (fb *FontBook) Face(family string, size float64) (font.Face, error) {
	if size <= 0 {
		size = DefaultFontSize
	}
	if family == "" {
		family = FallbackFamily
	}
	key := faceKey{family: NormalizeFamily(family), size: size}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	if face, ok := fb.faces[key]; ok {
		return face, nil
	}

	f, err := fb.resolve(key.family)
	if err != nil {
		return nil, err
	}

	// Hinting: font.HintingFull でアンチエイリアスを最小化
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}

	fb.faces[key] = face
	return face, nil
}

// resolve は正規化済みファミリー名からフォントを解決する
// fb.mu を保持した状態で呼び出すこと
func (fb *FontBook) resolve(family string) (*opentype.Font, error) {
	if f, ok := fb.registered[family]; ok {
		return f, nil
	}
	if f, ok := fb.resolved[family]; ok {
		return f, nil
	}

	candidates := []string{family}
	if mapped, ok := fontMapping[family]; ok {
		candidates = append(candidates, mapped...)
	}

	for _, name := range candidates {
		for _, basePath := range fb.fontPaths {
			f, err := fb.tryLoadFontFromPath(basePath, name)
			if err == nil {
				fb.resolved[family] = f
				return f, nil
			}
		}
	}

	// フォールバック: Go Mono を使用
	f, err := fb.fallbackFont()
	if err != nil {
		return nil, err
	}
	fb.log.Debug("FontBook: font not found, using Go Mono", "family", family)
	fb.resolved[family] = f
	return f, nil
}

func (fb *FontBook) fallbackFont() (*opentype.Font, error) {
	if fb.fallback == nil {
		f, err := opentype.Parse(gomono.TTF)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fallback font: %w", err)
		}
		fb.fallback = f
	}
	return fb.fallback, nil
}

// tryLoadFontFromPath はパスからフォントを読み込もうとする
func (fb *FontBook) tryLoadFontFromPath(basePath, fontName string) (*opentype.Font, error) {
	// 一般的なフォントファイル拡張子
	extensions := []string{".ttf", ".ttc", ".otf"}

	for _, ext := range extensions {
		// スペースを除去したファイル名と、スペースを含むファイル名の両方を試す
		for _, fileName := range []string{strings.ReplaceAll(fontName, " ", "") + ext, fontName + ext} {
			fullPath, err := fileutil.FindFileCaseInsensitive(basePath, fileName)
			if err != nil {
				continue
			}
			data, err := os.ReadFile(fullPath)
			if err != nil {
				continue
			}
			f, err := parseFont(data)
			if err != nil {
				fb.log.Warn("FontBook: failed to parse font file", "path", fullPath, "error", err)
				continue
			}
			return f, nil
		}
	}

	return nil, fmt.Errorf("font not found in path: %s/%s", basePath, fontName)
}

// parseFont は単一フォント、またはフォントコレクション（.ttc）の先頭フォントを解析する
func parseFont(data []byte) (*opentype.Font, error) {
	f, err := opentype.Parse(data)
	if err == nil {
		return f, nil
	}

	collection, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	if collection.NumFonts() == 0 {
		return nil, fmt.Errorf("font collection is empty")
	}
	return collection.Font(0)
}

// getSystemFontPaths はシステムフォントのパスを返す
func getSystemFontPaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
			os.ExpandEnv("$HOME/Library/Fonts"),
		}
	case "linux":
		return []string{
			"/usr/share/fonts",
			"/usr/share/fonts/truetype/dejavu",
			"/usr/share/fonts/truetype/liberation",
			"/usr/local/share/fonts",
			os.ExpandEnv("$HOME/.fonts"),
			os.ExpandEnv("$HOME/.local/share/fonts"),
		}
	case "windows":
		return []string{
			os.ExpandEnv("$WINDIR/Fonts"),
			os.ExpandEnv("$LOCALAPPDATA/Microsoft/Windows/Fonts"),
		}
	default:
		return nil
	}
}
