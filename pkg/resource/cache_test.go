package resource

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"golang.org/x/image/font/gofont/gomono"

	"github.com/zurustar/mewlix-graphic/pkg/fileutil"
	"github.com/zurustar/mewlix-graphic/pkg/graphics"
)

// encodePNG は単色の PNG を作成する
func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// encodeOversizedPNG は IHDR の幅だけを書き換えた PNG を作成する
// ピクセルデータは元の大きさのままなので、ヘッダーを読む段階で弾く必要がある
func encodeOversizedPNG(t *testing.T, width uint32) []byte {
	t.Helper()
	data := encodePNG(t, 2, 2, color.White)
	// シグネチャ(8) + 長さ(4) + "IHDR"(4) の後に幅が続く
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

// encodeWAV は 16-bit ステレオの PCM WAV を作成する
func encodeWAV(frames int, sample int16) []byte {
	dataSize := frames * 4
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))     // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(2))     // channels
	binary.Write(&buf, binary.LittleEndian, uint32(44100)) // sample rate
	binary.Write(&buf, binary.LittleEndian, uint32(44100*4))
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for range frames * 2 {
		binary.Write(&buf, binary.LittleEndian, sample)
	}
	return buf.Bytes()
}

// countingFetcher は Fetch の呼び出し回数を数える
type countingFetcher struct {
	Fetcher
	calls int
}

func (f *countingFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	f.calls++
	return f.Fetcher.Fetch(ctx, path)
}

func newTestCache(t *testing.T, files fstest.MapFS, opts ...Option) *Cache {
	t.Helper()
	fetcher := NewFSFetcher(fileutil.NewEmbedFS(files, ""))
	return NewCache(fetcher, opts...)
}

func TestLoadSprite(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{
		"images/cat.png": {Data: encodePNG(t, 4, 4, color.NRGBA{R: 255, A: 255})},
	})

	img, err := c.LoadSprite(context.Background(), "cat", "images/cat.png")
	if err != nil {
		t.Fatalf("LoadSprite failed: %v", err)
	}
	if img.Width() != 16 || img.Height() != 16 {
		t.Errorf("sprite size = %dx%d, want 16x16", img.Width(), img.Height())
	}
	if got := img.Pixels.NRGBAAt(0, 0); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel (0,0) = %+v", got)
	}
	// 元画像の外側は透明
	if got := img.Pixels.NRGBAAt(5, 5); got.A != 0 {
		t.Errorf("pixel (5,5) = %+v, want transparent", got)
	}

	cached, err := c.Image("cat")
	if err != nil || cached != img {
		t.Errorf("Image(cat) = %v, %v", cached, err)
	}
}

func TestImageDoesNotRefetch(t *testing.T) {
	fetcher := &countingFetcher{
		Fetcher: NewFSFetcher(fileutil.NewEmbedFS(fstest.MapFS{
			"cat.png": {Data: encodePNG(t, 16, 16, color.NRGBA{G: 255, A: 255})},
		}, "")),
	}
	c := NewCache(fetcher)

	img, err := c.LoadSprite(context.Background(), "cat", "cat.png")
	if err != nil {
		t.Fatalf("LoadSprite failed: %v", err)
	}
	for range 2 {
		cached, err := c.Image("cat")
		if err != nil {
			t.Fatalf("Image(cat) failed: %v", err)
		}
		if cached != img {
			t.Error("Image(cat) should return the loaded image")
		}
	}
	if fetcher.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.calls)
	}
}

func TestLoadImageCrop(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{
		"big.png": {Data: encodePNG(t, 8, 8, color.NRGBA{B: 255, A: 255})},
	})

	img, err := c.LoadImage(context.Background(), "big", "BIG.PNG", 4, 2)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.Width() != 4 || img.Height() != 2 {
		t.Errorf("image size = %dx%d, want 4x2", img.Width(), img.Height())
	}

	full, err := c.LoadImage(context.Background(), "full", "big.png", 0, 0)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if full.Width() != 8 || full.Height() != 8 {
		t.Errorf("natural size = %dx%d, want 8x8", full.Width(), full.Height())
	}
}

func TestLoadImageFailures(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{
		"ok.png":  {Data: encodePNG(t, 2, 2, color.White)},
		"bad.png": {Data: []byte("not an image")},
	})
	ctx := context.Background()

	original, err := c.LoadImage(ctx, "k", "ok.png", 2, 2)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", "missing.png"},
		{"undecodable", "bad.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.LoadImage(ctx, "k", tt.path, 2, 2)
			var rerr *RetrievalError
			if !errors.As(err, &rerr) {
				t.Fatalf("error = %v, want *RetrievalError", err)
			}
			if rerr.Key != "k" || rerr.Path != tt.path {
				t.Errorf("RetrievalError = %+v", rerr)
			}
			if rerr.Unwrap() == nil {
				t.Error("RetrievalError should wrap the cause")
			}

			// 失敗しても既存エントリはそのまま
			if img, _ := c.Image("k"); img != original {
				t.Error("failed load replaced the cached entry")
			}
		})
	}
}

func TestLoadImageTooLarge(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{
		"ok.png":   {Data: encodePNG(t, 2, 2, color.White)},
		"huge.png": {Data: encodeOversizedPNG(t, graphics.MaxImageSize+1)},
	})
	ctx := context.Background()

	tests := []struct {
		name   string
		path   string
		width  int
		height int
	}{
		{"requested width", "ok.png", 1 << 20, 16},
		{"requested height", "ok.png", 16, 1 << 30},
		{"natural size", "huge.png", 0, 0},
		{"cropped from huge source", "huge.png", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.LoadImage(ctx, "big", tt.path, tt.width, tt.height)
			var rerr *RetrievalError
			if !errors.As(err, &rerr) {
				t.Fatalf("error = %v, want *RetrievalError", err)
			}
			if !errors.Is(err, graphics.ErrImageTooLarge) {
				t.Errorf("error = %v, want ErrImageTooLarge", err)
			}
			if _, err := c.Image("big"); err == nil {
				t.Error("oversized image should not be registered")
			}
		})
	}

	// 上限ちょうどまでは読み込める
	if _, err := c.LoadImage(ctx, "edge", "ok.png", graphics.MaxImageSize, 1); err != nil {
		t.Errorf("LoadImage at the size limit failed: %v", err)
	}
}

func TestLoadImageCancelled(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{
		"ok.png": {Data: encodePNG(t, 2, 2, color.White)},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.LoadSprite(ctx, "ok", "ok.png")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if _, err := c.Image("ok"); err == nil {
		t.Error("cancelled load should not store an entry")
	}
}

func TestMissingResource(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{})

	_, err := c.Image("nope")
	var merr *MissingResourceError
	if !errors.As(err, &merr) || merr.Kind != KindImage || merr.Key != "nope" {
		t.Errorf("Image error = %v", err)
	}

	_, err = c.Audio("nope")
	if !errors.As(err, &merr) || merr.Kind != KindAudio {
		t.Errorf("Audio error = %v", err)
	}
}

func TestLoadAudio(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{
		"sound/flower.wav": {Data: encodeWAV(100, 16384)},
		"sound/broken.wav": {Data: []byte("RIFF")},
	})
	ctx := context.Background()

	buf, err := c.LoadAudio(ctx, "flower", "sound/flower.wav")
	if err != nil {
		t.Fatalf("LoadAudio failed: %v", err)
	}
	if buf.Frames() != 100 {
		t.Errorf("Frames() = %d, want 100", buf.Frames())
	}
	if got, _ := c.Audio("flower"); got != buf {
		t.Error("Audio(flower) did not return the loaded buffer")
	}

	_, err = c.LoadAudio(ctx, "broken", "sound/broken.wav")
	var rerr *RetrievalError
	if !errors.As(err, &rerr) {
		t.Errorf("error = %v, want *RetrievalError", err)
	}
}

func TestLoadFont(t *testing.T) {
	files := fstest.MapFS{"fonts/mono.ttf": {Data: gomono.TTF}}
	ctx := context.Background()

	noFonts := newTestCache(t, files)
	if err := noFonts.LoadFont(ctx, "Mono", "fonts/mono.ttf"); !errors.Is(err, ErrNoFontBook) {
		t.Errorf("error = %v, want ErrNoFontBook", err)
	}

	book := graphics.NewFontBook(graphics.WithFontPaths())
	c := newTestCache(t, files, WithFontRegistry(book))
	if err := c.LoadFont(ctx, "Mono", "fonts/mono.ttf"); err != nil {
		t.Fatalf("LoadFont failed: %v", err)
	}
	if keys := c.Keys(KindFont); len(keys) != 1 || keys[0] != "Mono" {
		t.Errorf("Keys(font) = %v", keys)
	}
	if _, err := book.Face("mono", 12); err != nil {
		t.Errorf("registered font is not resolvable: %v", err)
	}
}

func TestStoreImageFromPixelBuffer(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{})

	pb, _ := graphics.NewPixelBuffer(2, 2)
	pb.Fill(graphics.HexColor("#ff0000"))
	if _, err := pb.ToImage("red", c); err != nil {
		t.Fatal(err)
	}

	img, err := c.Image("red")
	if err != nil {
		t.Fatalf("Image(red) failed: %v", err)
	}
	if got := img.Pixels.NRGBAAt(1, 1); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel = %+v", got)
	}

	if keys := c.Keys(KindImage); len(keys) != 1 || keys[0] != "red" {
		t.Errorf("Keys(image) = %v", keys)
	}
}
