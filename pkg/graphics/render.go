package graphics

import (
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// TextStyle は DrawText の描画設定
type TextStyle struct {
	FontSize   float64
	FontFamily string
	Color      ColorLike
}

// TextOption は TextStyle を変更するオプション
type TextOption func(*TextStyle)

// WithFontSize はフォントサイズ（ピクセル）を指定する
func WithFontSize(size float64) TextOption {
	return func(s *TextStyle) {
		s.FontSize = size
	}
}

// WithFontFamily はフォントファミリー名を指定する
func WithFontFamily(family string) TextOption {
	return func(s *TextStyle) {
		s.FontFamily = family
	}
}

// WithColor は文字色を指定する
func WithColor(c ColorLike) TextOption {
	return func(s *TextStyle) {
		s.Color = c
	}
}

// Renderer はスプライトとテキストをサーフェスに描画する
type Renderer struct {
	images  ImageSource
	surface Surface
	fonts   *FontBook
	log     *slog.Logger
}

// RendererOption は Renderer のオプション
type RendererOption func(*Renderer)

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) RendererOption {
	return func(r *Renderer) {
		r.log = log
	}
}

// WithFontBook は使用する FontBook を設定する
func WithFontBook(fb *FontBook) RendererOption {
	return func(r *Renderer) {
		r.fonts = fb
	}
}

// NewRenderer は新しい Renderer を作成する
func NewRenderer(images ImageSource, surface Surface, opts ...RendererOption) *Renderer {
	r := &Renderer{
		images:  images,
		surface: surface,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fonts == nil {
		r.fonts = NewFontBook(WithFontLogger(r.log))
	}
	return r
}

// Surface は描画先を返す
func (r *Renderer) Surface() Surface {
	return r.surface
}

// Fonts は使用中の FontBook を返す
func (r *Renderer) Fonts() *FontBook {
	return r.fonts
}

// DrawSprite はキャッシュ済みの画像を左上 (x, y) に描画する
// 画像が見つからない場合はエラーをそのまま返す
func (r *Renderer) DrawSprite(key string, x, y float64) error {
	img, err := r.images.Image(key)
	if err != nil {
		return err
	}
	r.surface.DrawImage(img, x, y)
	return nil
}

// DrawText は value の文字列表現を (x, y) を中心として描画する
func (r *Renderer) DrawText(value any, x, y float64, opts ...TextOption) error {
	style := TextStyle{FontSize: DefaultFontSize}
	for _, opt := range opts {
		opt(&style)
	}
	if style.Color == nil {
		style.Color = Black
	}

	face, err := r.fonts.Face(style.FontFamily, style.FontSize)
	if err != nil {
		return fmt.Errorf("failed to resolve font %q: %w", style.FontFamily, err)
	}

	s := Stringify(value)
	dot := CenteredDot(face, s, x, y)
	r.surface.DrawText(s, face, dot, style.Color.ToColor())
	return nil
}

// CenteredDot は文字列の中心が (x, y) になるベースライン起点を返す
// 水平方向は送り幅の半分、垂直方向はアセントとディセントの中間で揃える
func CenteredDot(face font.Face, s string, x, y float64) fixed.Point26_6 {
	advance := font.MeasureString(face, s)
	m := face.Metrics()
	return fixed.Point26_6{
		X: floatToFixed(x) - advance/2,
		Y: floatToFixed(y) + (m.Ascent-m.Descent)/2,
	}
}

// Stringify は任意の値を描画用の文字列に変換する
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
