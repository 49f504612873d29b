package graphics

import (
	"image/color"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNewColorClamp(t *testing.T) {
	tests := []struct {
		name                       string
		r, g, b, o                 float64
		wantR, wantG, wantB, wantO float64
	}{
		{"in range", 10, 20, 30, 40, 10, 20, 30, 40},
		{"negative", -1, -50, -255, -10, 0, 0, 0, 0},
		{"overflow", 300, 256, 1000, 150, 255, 255, 255, 100},
		{"NaN", math.NaN(), 1, 2, math.NaN(), 0, 1, 2, 0},
		{"mixed", 128, 999, -3, 50.5, 128, 255, 0, 50.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewColor(tt.r, tt.g, tt.b, tt.o)
			if c.Red() != tt.wantR || c.Green() != tt.wantG || c.Blue() != tt.wantB || c.Opacity() != tt.wantO {
				t.Errorf("NewColor(%v, %v, %v, %v) = %v, want rgb(%v %v %v / %v%%)",
					tt.r, tt.g, tt.b, tt.o, c, tt.wantR, tt.wantG, tt.wantB, tt.wantO)
			}
		})
	}
}

func TestAlphaByte(t *testing.T) {
	tests := []struct {
		opacity float64
		want    uint8
	}{
		{0, 0},
		{50, 127},
		{100, 255},
		{1, 2},
		{99, 252},
	}

	for _, tt := range tests {
		if got := NewColor(0, 0, 0, tt.opacity).AlphaByte(); got != tt.want {
			t.Errorf("AlphaByte(opacity=%v) = %d, want %d", tt.opacity, got, tt.want)
		}
	}
}

func TestColorBytesRounding(t *testing.T) {
	c := NewColor(0.5, 1.5, 254.6, 100)
	got := c.Bytes()
	want := [4]byte{0, 2, 255, 255}
	if got != want {
		t.Errorf("Bytes() = %v, want %v", got, want)
	}
}

func TestColorImplementsImageColor(t *testing.T) {
	var c color.Color = RGB(255, 0, 0)
	r, g, b, a := c.RGBA()
	if r != 0xFFFF || g != 0 || b != 0 || a != 0xFFFF {
		t.Errorf("RGBA() = (%d, %d, %d, %d)", r, g, b, a)
	}

	nrgba := NewColor(10, 20, 30, 50).NRGBA()
	if nrgba != (color.NRGBA{R: 10, G: 20, B: 30, A: 127}) {
		t.Errorf("NRGBA() = %+v", nrgba)
	}
}

func TestColorString(t *testing.T) {
	tests := []struct {
		c    Color
		want string
	}{
		{RGB(255, 0, 0), "rgb(255 0 0 / 100%)"},
		{NewColor(1, 2, 3, 50), "rgb(1 2 3 / 50%)"},
		{Transparent, "rgb(0 0 0 / 0%)"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFromHex(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Color
		wantOK bool
	}{
		{"six digits", "#ff8000", RGB(255, 128, 0), true},
		{"without hash", "00ff00", RGB(0, 255, 0), true},
		{"short form", "#f80", RGB(255, 136, 0), true},
		{"short form without hash", "abc", RGB(0xaa, 0xbb, 0xcc), true},
		{"uppercase", "#ABCDEF", RGB(0xab, 0xcd, 0xef), true},
		{"extra digits ignored", "#12345678", RGB(0x12, 0x34, 0x56), true},
		{"too short", "12", Color{}, false},
		{"four digits", "#1234", Color{}, false},
		{"empty", "", Color{}, false},
		{"not hex", "#gg0000", Color{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromHex(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("FromHex(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("FromHex(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestHexColorToColor(t *testing.T) {
	if got := HexColor("#0000ff").ToColor(); got != RGB(0, 0, 255) {
		t.Errorf("HexColor(#0000ff) = %v", got)
	}
	if got := HexColor("zz").ToColor(); got != Black {
		t.Errorf("unparsable HexColor = %v, want black", got)
	}
}

// プロパティ: どの入力でもクランプ後の値は範囲内に収まる
func TestProperty_ColorClamp(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("各チャンネルは 0-255、不透明度は 0-100 に収まる", prop.ForAll(
		func(r, g, b, o float64) bool {
			c := NewColor(r, g, b, o)
			for _, v := range []float64{c.Red(), c.Green(), c.Blue()} {
				if v < 0 || v > 255 {
					return false
				}
			}
			return c.Opacity() >= 0 && c.Opacity() <= 100
		},
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-500, 500),
	))

	properties.Property("範囲内の値は変更されない", prop.ForAll(
		func(r, o float64) bool {
			c := NewColor(r, r, r, o)
			return c.Red() == r && c.Opacity() == o
		},
		gen.Float64Range(0, 255),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

// プロパティ: AlphaByte は不透明度に対して単調非減少
func TestProperty_AlphaByteMonotonic(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("o1 <= o2 ならば AlphaByte(o1) <= AlphaByte(o2)", prop.ForAll(
		func(a, b float64) bool {
			lo, hi := math.Min(a, b), math.Max(a, b)
			return NewColor(0, 0, 0, lo).AlphaByte() <= NewColor(0, 0, 0, hi).AlphaByte()
		},
		gen.Float64Range(-10, 110),
		gen.Float64Range(-10, 110),
	))

	properties.TestingRun(t)
}

// プロパティ: 3桁の短縮形は各桁を重ねた6桁形式と同じ色になる
func TestProperty_HexShortForm(t *testing.T) {
	properties := gopter.NewProperties(nil)
	hexDigit := gen.OneConstOf('0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f')

	properties.Property("#abc == #aabbcc", prop.ForAll(
		func(r, g, b rune) bool {
			short, ok1 := FromHex("#" + string([]rune{r, g, b}))
			long, ok2 := FromHex("#" + string([]rune{r, r, g, g, b, b}))
			return ok1 && ok2 && short == long
		},
		hexDigit, hexDigit, hexDigit,
	))

	properties.TestingRun(t)
}
