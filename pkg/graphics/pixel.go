package graphics

import (
	"fmt"
	"image"
)

// SpriteWidth, SpriteHeight はスプライトの標準サイズ
const (
	SpriteWidth  = 16
	SpriteHeight = 16
)

// MaxImageSize は画像の幅・高さの上限（px）
const MaxImageSize = 8192

// PixelBuffer は幅×高さ×4バイトの RGBA バッファ（行優先、R,G,B,A 順）
//
// バッファは作成者が所有する。ToImage はコピーを作成するため、変換後の
// 変更がキャッシュ内の画像に影響することはない。
type PixelBuffer struct {
	width  int
	height int
	data   []byte
}

// NewPixelBuffer はゼロで初期化されたバッファを作成する
func NewPixelBuffer(width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if width > MaxImageSize || height > MaxImageSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, width, height)
	}
	return &PixelBuffer{
		width:  width,
		height: height,
		data:   make([]byte, width*height*4),
	}, nil
}

// NewSpriteBuffer は 16x16 のスプライト用バッファを作成する
func NewSpriteBuffer() *PixelBuffer {
	pb, _ := NewPixelBuffer(SpriteWidth, SpriteHeight)
	return pb
}

func (pb *PixelBuffer) Width() int  { return pb.width }
func (pb *PixelBuffer) Height() int { return pb.height }

// Len はバッファのバイト数を返す
func (pb *PixelBuffer) Len() int {
	return len(pb.data)
}

// Bytes はバッファのコピーを返す
func (pb *PixelBuffer) Bytes() []byte {
	out := make([]byte, len(pb.data))
	copy(out, pb.data)
	return out
}

// Fill は全ピクセルを指定色で塗りつぶす
func (pb *PixelBuffer) Fill(c ColorLike) {
	px := c.ToColor().Bytes()
	for i := 0; i < len(pb.data); i += 4 {
		copy(pb.data[i:i+4], px[:])
	}
}

// SetPixel は (x, y) のピクセルに色を書き込む
func (pb *PixelBuffer) SetPixel(x, y int, c ColorLike) error {
	offset, err := pb.offset(x, y)
	if err != nil {
		return err
	}
	px := c.ToColor().Bytes()
	copy(pb.data[offset:offset+4], px[:])
	return nil
}

// At は (x, y) のピクセルの R, G, B, A を返す
func (pb *PixelBuffer) At(x, y int) ([4]byte, error) {
	var px [4]byte
	offset, err := pb.offset(x, y)
	if err != nil {
		return px, err
	}
	copy(px[:], pb.data[offset:offset+4])
	return px, nil
}

// BlitTile は src のバイト列を (x, y) の位置からそのままコピーする
// アルファブレンドは行わない。コピーしたバイト数を返す
func (pb *PixelBuffer) BlitTile(x, y int, src *PixelBuffer) (int, error) {
	return pb.BlitBytes(x, y, src.data)
}

// BlitBytes は生のバイト列を (x, y) の位置からコピーする
// コピー量は min(書き込み先の残り, len(src)) で、どちらのバッファも越えない
func (pb *PixelBuffer) BlitBytes(x, y int, src []byte) (int, error) {
	offset, err := pb.offset(x, y)
	if err != nil {
		return 0, err
	}
	return copy(pb.data[offset:], src), nil
}

// ToImage はバッファの内容から画像リソースを作成し、key で store に格納する
// 同じキーの既存エントリは上書きされる
func (pb *PixelBuffer) ToImage(key string, store ImageStore) (*Image, error) {
	if store == nil {
		return nil, ErrNoImageStore
	}
	pixels := image.NewNRGBA(image.Rect(0, 0, pb.width, pb.height))
	copy(pixels.Pix, pb.data)

	img := NewImage(key, pixels)
	store.StoreImage(key, img)
	return img, nil
}

// offset は (x, y) のバイトオフセットを返す
func (pb *PixelBuffer) offset(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= pb.width || y >= pb.height {
		return 0, &IndexError{X: x, Y: y, Width: pb.width, Height: pb.height}
	}
	return (y*pb.width + x) * 4, nil
}
