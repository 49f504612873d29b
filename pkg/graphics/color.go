package graphics

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Color は RGB 各チャンネル（0-255）と不透明度（0-100%）を持つ不変の色
//
// コンストラクタに範囲外の値を渡してもエラーにはならず、各値は個別にクランプされる。
type Color struct {
	red     float64
	green   float64
	blue    float64
	opacity float64
}

// ColorLike は Color に変換できる値を表す
type ColorLike interface {
	ToColor() Color
}

var (
	// Black は不透明の黒
	Black = RGB(0, 0, 0)
	// White は不透明の白
	White = RGB(255, 255, 255)
	// Transparent は完全に透明な黒
	Transparent = NewColor(0, 0, 0, 0)
)

// NewColor は各チャンネルをクランプして Color を作成する
func NewColor(red, green, blue, opacity float64) Color {
	return Color{
		red:     clamp(red, 0, 255),
		green:   clamp(green, 0, 255),
		blue:    clamp(blue, 0, 255),
		opacity: clamp(opacity, 0, 100),
	}
}

// RGB は不透明度 100% の Color を作成する
func RGB(red, green, blue float64) Color {
	return NewColor(red, green, blue, 100)
}

// clamp は値を [lo, hi] に収める。NaN は lo として扱う
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (c Color) Red() float64     { return c.red }
func (c Color) Green() float64   { return c.green }
func (c Color) Blue() float64    { return c.blue }
func (c Color) Opacity() float64 { return c.opacity }

// AlphaByte は不透明度をバイト値に変換する（切り捨て）
func (c Color) AlphaByte() uint8 {
	return percentToByte(c.opacity)
}

// Bytes はピクセルバッファに書き込む R, G, B, A の4バイトを返す
// チャンネル値は Uint8ClampedArray と同じく偶数丸めで整数化する
func (c Color) Bytes() [4]byte {
	return [4]byte{
		uint8(math.RoundToEven(c.red)),
		uint8(math.RoundToEven(c.green)),
		uint8(math.RoundToEven(c.blue)),
		c.AlphaByte(),
	}
}

// percentToByte は 0-100% を 0-255 に変換する: floor(255 * p / 100)
func percentToByte(p float64) uint8 {
	return uint8(math.Floor(255 * p / 100))
}

// ToColor は ColorLike を実装する
func (c Color) ToColor() Color {
	return c
}

// RGBA は image/color.Color を実装する（アルファ乗算済みの値を返す）
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// NRGBA は非乗算の color.NRGBA を返す
func (c Color) NRGBA() color.NRGBA {
	b := c.Bytes()
	return color.NRGBA{R: b[0], G: b[1], B: b[2], A: b[3]}
}

// String は CSS 形式の文字列を返す（例: "rgb(255 0 0 / 100%)"）
func (c Color) String() string {
	return fmt.Sprintf("rgb(%g %g %g / %g%%)", c.red, c.green, c.blue, c.opacity)
}

// FromHex は16進カラーコードを解析する
//
// 先頭の '#' は省略可能。3桁の短縮形は各桁を2回繰り返して展開する。
// 展開後に6桁未満の場合、または16進数として解釈できない場合は ok=false を返す。
// 6桁を超える部分は無視され、不透明度は常に100になる。
func FromHex(text string) (c Color, ok bool) {
	hex := strings.TrimPrefix(text, "#")

	if len(hex) == 3 {
		var sb strings.Builder
		for _, r := range hex {
			sb.WriteRune(r)
			sb.WriteRune(r)
		}
		hex = sb.String()
	}
	if len(hex) < 6 {
		return Color{}, false
	}

	var channels [3]float64
	for i := range channels {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, false
		}
		channels[i] = float64(v)
	}

	return RGB(channels[0], channels[1], channels[2]), true
}

// HexColor は16進カラーコード文字列
type HexColor string

// ToColor は ColorLike を実装する。解析できない場合は不透明の黒を返す
func (h HexColor) ToColor() Color {
	c, ok := FromHex(string(h))
	if !ok {
		return Black
	}
	return c
}
