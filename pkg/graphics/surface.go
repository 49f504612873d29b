package graphics

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Surface は描画先を抽象化したインターフェース
//
// 描画は呼び出し順に行われ、並べ替えやバッチ化はしない。
// 合成はすべて source-over。
type Surface interface {
	// Clear は全面を透明にクリアする
	Clear()
	// Bounds は描画領域を返す
	Bounds() image.Rectangle
	// DrawImage は画像の左上を (x, y) に合わせて描画する
	DrawImage(img *Image, x, y float64)
	// DrawText はベースラインの起点 dot から文字列を描画する
	DrawText(s string, face font.Face, dot fixed.Point26_6, c color.Color)
}

// RGBASurface は image.RGBA に描画するサーフェス（ヘッドレスモード・テスト用）
type RGBASurface struct {
	img *image.RGBA
}

// NewRGBASurface は指定サイズの RGBASurface を作成する
func NewRGBASurface(width, height int) *RGBASurface {
	return &RGBASurface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Image は描画結果を返す
func (s *RGBASurface) Image() *image.RGBA {
	return s.img
}

func (s *RGBASurface) Clear() {
	clear(s.img.Pix)
}

func (s *RGBASurface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

func (s *RGBASurface) DrawImage(img *Image, x, y float64) {
	pt := image.Pt(int(math.Round(x)), int(math.Round(y)))
	r := img.Pixels.Bounds().Sub(img.Pixels.Bounds().Min).Add(pt)
	draw.Draw(s.img, r, img.Pixels, img.Pixels.Bounds().Min, draw.Over)
}

func (s *RGBASurface) DrawText(str string, face font.Face, dot fixed.Point26_6, c color.Color) {
	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  dot,
	}
	d.DrawString(str)
}

// EbitenSurface は ebiten.Image に描画するサーフェス
type EbitenSurface struct {
	img   *ebiten.Image
	faces map[font.Face]*text.GoXFace
	mu    sync.Mutex
}

// NewEbitenSurface は ebiten.Image をラップする
func NewEbitenSurface(img *ebiten.Image) *EbitenSurface {
	return &EbitenSurface{
		img:   img,
		faces: make(map[font.Face]*text.GoXFace),
	}
}

// Image は描画先の ebiten.Image を返す
func (s *EbitenSurface) Image() *ebiten.Image {
	return s.img
}

func (s *EbitenSurface) Clear() {
	s.img.Clear()
}

func (s *EbitenSurface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

func (s *EbitenSurface) DrawImage(img *Image, x, y float64) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(x, y)
	s.img.DrawImage(img.Ebiten(), op)
}

func (s *EbitenSurface) DrawText(str string, face font.Face, dot fixed.Point26_6, c color.Color) {
	xf := s.goXFace(face)

	// text/v2 は描画位置を行の上端で受け取るため、アセント分だけ上に移動する
	op := &text.DrawOptions{}
	op.GeoM.Translate(fixedToFloat(dot.X), fixedToFloat(dot.Y)-xf.Metrics().HAscent)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(s.img, str, xf, op)
}

// goXFace は font.Face に対応する text/v2 のフェイスを返す（キャッシュ付き）
func (s *EbitenSurface) goXFace(face font.Face) *text.GoXFace {
	s.mu.Lock()
	defer s.mu.Unlock()

	if xf, ok := s.faces[face]; ok {
		return xf
	}
	xf := text.NewGoXFace(face)
	s.faces[face] = xf
	return xf
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
