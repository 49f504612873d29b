package graphics

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize は幅または高さが正でない場合のエラー
	ErrInvalidSize = errors.New("invalid buffer size")

	// ErrImageTooLarge は幅または高さが MaxImageSize を超える場合のエラー
	ErrImageTooLarge = errors.New("image too large")

	// ErrNoImageStore は画像の格納先が指定されていない場合のエラー
	ErrNoImageStore = errors.New("no image store")
)

// IndexError はピクセルバッファの範囲外アクセスを表す
type IndexError struct {
	X, Y          int
	Width, Height int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("pixel (%d, %d) out of bounds for %dx%d buffer", e.X, e.Y, e.Width, e.Height)
}
