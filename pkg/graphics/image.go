package graphics

import (
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// Image はデコード済みで描画可能な画像リソース
//
// ピクセルは非乗算の NRGBA で保持する。Ebitengine 用の画像は最初に必要になったときに作成する。
type Image struct {
	Key    string
	Pixels *image.NRGBA

	once sync.Once
	eimg *ebiten.Image
}

// NewImage は NRGBA 画像から Image を作成する
func NewImage(key string, pixels *image.NRGBA) *Image {
	return &Image{Key: key, Pixels: pixels}
}

// Width は画像の幅を返す
func (img *Image) Width() int {
	return img.Pixels.Bounds().Dx()
}

// Height は画像の高さを返す
func (img *Image) Height() int {
	return img.Pixels.Bounds().Dy()
}

// Ebiten は Ebitengine 用の画像を返す
func (img *Image) Ebiten() *ebiten.Image {
	img.once.Do(func() {
		img.eimg = ebiten.NewImageFromImage(img.Pixels)
	})
	return img.eimg
}

// ImageStore はキーで画像リソースを格納する
type ImageStore interface {
	StoreImage(key string, img *Image)
}

// ImageSource はキーで画像リソースを取得する
// 見つからない場合は呼び出し元にエラーをそのまま返す
type ImageSource interface {
	Image(key string) (*Image, error)
}
