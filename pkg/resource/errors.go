package resource

import (
	"errors"
	"fmt"
)

// Kind は キャッシュのエントリ種別
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindFont  Kind = "font"
)

var (
	// ErrHTTPStatus は HTTP 取得で 2xx 以外が返った場合のエラー
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrNoFontBook はフォントの登録先が設定されていない場合のエラー
	ErrNoFontBook = errors.New("no font book configured")
)

// MissingResourceError はキャッシュに存在しないキーを参照した場合のエラー
type MissingResourceError struct {
	Kind Kind
	Key  string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("%s resource not found: %q", e.Kind, e.Key)
}

// RetrievalError はリソースの取得またはデコードに失敗した場合のエラー
type RetrievalError struct {
	Key  string
	Path string
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("failed to load resource %q from %s: %v", e.Key, e.Path, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
