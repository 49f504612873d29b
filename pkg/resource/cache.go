// Package resource はキーで参照する画像・音声・フォントのキャッシュを提供する
//
// リソースは Fetcher で取得し、デコードがすべて成功した時点でのみ登録する。
// 失敗時に再試行はせず、既存のエントリにも影響しない。
package resource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // GIF デコーダを登録
	_ "image/jpeg" // JPEG デコーダを登録
	_ "image/png"  // PNG デコーダを登録
	"log/slog"
	"sort"
	"sync"

	_ "golang.org/x/image/bmp" // BMP デコーダを登録
	"golang.org/x/image/draw"

	"github.com/zurustar/mewlix-graphic/pkg/audio"
	"github.com/zurustar/mewlix-graphic/pkg/graphics"
)

var (
	_ graphics.ImageSource = (*Cache)(nil)
	_ graphics.ImageStore  = (*Cache)(nil)
	_ audio.BufferSource   = (*Cache)(nil)
)

// FontRegistry はフォントデータをファミリー名で登録する
type FontRegistry interface {
	Register(name string, data []byte) error
}

// Cache はリソースのキャッシュ
type Cache struct {
	fetcher   Fetcher
	fonts     FontRegistry
	audioOpts audio.DecodeOptions
	images    map[string]*graphics.Image
	sounds    map[string]*audio.Buffer
	fontPaths map[string]string
	log       *slog.Logger
	mu        sync.RWMutex
}

// Option は Cache のオプション
type Option func(*Cache)

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		c.log = log
	}
}

// WithFontRegistry は LoadFont の登録先を設定する
func WithFontRegistry(fonts FontRegistry) Option {
	return func(c *Cache) {
		c.fonts = fonts
	}
}

// WithAudioOptions は音声デコードの設定（SoundFont など）を指定する
func WithAudioOptions(opts audio.DecodeOptions) Option {
	return func(c *Cache) {
		c.audioOpts = opts
	}
}

// NewCache は新しい Cache を作成する
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:   fetcher,
		images:    make(map[string]*graphics.Image),
		sounds:    make(map[string]*audio.Buffer),
		fontPaths: make(map[string]string),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadImage は画像を取得・デコードし、(0,0)-(width,height) の領域に切り出して key で登録する
// 元画像の外側は透明になる。width または height が 0 以下の場合は元画像のサイズを使う
// 幅・高さが graphics.MaxImageSize を超える場合は RetrievalError を返す
func (c *Cache) LoadImage(ctx context.Context, key, path string, width, height int) (*graphics.Image, error) {
	if err := checkImageSize(width, height); err != nil {
		c.log.Error("LoadImage: requested size too large", "key", key, "path", path, "error", err)
		return nil, &RetrievalError{Key: key, Path: path, Err: err}
	}

	data, err := c.fetch(ctx, key, path)
	if err != nil {
		return nil, err
	}

	// ピクセルを確保する前にヘッダーで元画像のサイズを確かめる
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		err = checkImageSize(cfg.Width, cfg.Height)
	}
	if err != nil {
		c.log.Error("LoadImage: failed to decode image", "key", key, "path", path, "error", err)
		return nil, &RetrievalError{Key: key, Path: path, Err: fmt.Errorf("failed to decode image: %w", err)}
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		c.log.Error("LoadImage: failed to decode image", "key", key, "path", path, "error", err)
		return nil, &RetrievalError{Key: key, Path: path, Err: fmt.Errorf("failed to decode image: %w", err)}
	}

	if width <= 0 || height <= 0 {
		width, height = src.Bounds().Dx(), src.Bounds().Dy()
	}
	pixels := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(pixels, pixels.Bounds(), src, src.Bounds().Min, draw.Src)

	img := graphics.NewImage(key, pixels)
	c.StoreImage(key, img)

	c.log.Info("LoadImage: loaded image",
		"key", key,
		"path", path,
		"format", format,
		"width", width,
		"height", height)
	return img, nil
}

func checkImageSize(width, height int) error {
	if width > graphics.MaxImageSize || height > graphics.MaxImageSize {
		return fmt.Errorf("%w: %dx%d", graphics.ErrImageTooLarge, width, height)
	}
	return nil
}

// LoadSprite は 16x16 のスプライト画像を読み込む
func (c *Cache) LoadSprite(ctx context.Context, key, path string) (*graphics.Image, error) {
	return c.LoadImage(ctx, key, path, graphics.SpriteWidth, graphics.SpriteHeight)
}

// LoadAudio は音声を取得・デコードして key で登録する
func (c *Cache) LoadAudio(ctx context.Context, key, path string) (*audio.Buffer, error) {
	data, err := c.fetch(ctx, key, path)
	if err != nil {
		return nil, err
	}

	buf, err := audio.Decode(path, data, c.audioOpts)
	if err != nil {
		c.log.Error("LoadAudio: failed to decode audio", "key", key, "path", path, "error", err)
		return nil, &RetrievalError{Key: key, Path: path, Err: err}
	}

	c.mu.Lock()
	c.sounds[key] = buf
	c.mu.Unlock()

	c.log.Info("LoadAudio: loaded audio", "key", key, "path", path, "duration", buf.Duration())
	return buf, nil
}

// LoadFont はフォントを取得し、name をファミリー名として登録する
func (c *Cache) LoadFont(ctx context.Context, name, path string) error {
	if c.fonts == nil {
		return &RetrievalError{Key: name, Path: path, Err: ErrNoFontBook}
	}

	data, err := c.fetch(ctx, name, path)
	if err != nil {
		return err
	}

	if err := c.fonts.Register(name, data); err != nil {
		c.log.Error("LoadFont: failed to register font", "name", name, "path", path, "error", err)
		return &RetrievalError{Key: name, Path: path, Err: err}
	}

	c.mu.Lock()
	c.fontPaths[name] = path
	c.mu.Unlock()

	c.log.Info("LoadFont: loaded font", "name", name, "path", path)
	return nil
}

// fetch は Fetcher でバイト列を取得し、失敗を RetrievalError に変換する
func (c *Cache) fetch(ctx context.Context, key, path string) ([]byte, error) {
	data, err := c.fetcher.Fetch(ctx, path)
	if err != nil {
		c.log.Error("failed to fetch resource", "key", key, "path", path, "error", err)
		return nil, &RetrievalError{Key: key, Path: path, Err: err}
	}
	return data, nil
}

// Image はキャッシュ済みの画像を返す
func (c *Cache) Image(key string) (*graphics.Image, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	img, ok := c.images[key]
	if !ok {
		return nil, &MissingResourceError{Kind: KindImage, Key: key}
	}
	return img, nil
}

// Audio はキャッシュ済みの音声を返す
func (c *Cache) Audio(key string) (*audio.Buffer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	buf, ok := c.sounds[key]
	if !ok {
		return nil, &MissingResourceError{Kind: KindAudio, Key: key}
	}
	return buf, nil
}

// StoreImage は画像を key で登録する（同じキーは上書き）
func (c *Cache) StoreImage(key string, img *graphics.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[key] = img
}

// StoreAudio は音声を key で登録する（同じキーは上書き）
func (c *Cache) StoreAudio(key string, buf *audio.Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sounds[key] = buf
}

// Keys は指定種別の登録済みキーをソートして返す
func (c *Cache) Keys(kind Kind) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var keys []string
	switch kind {
	case KindImage:
		for k := range c.images {
			keys = append(keys, k)
		}
	case KindAudio:
		for k := range c.sounds {
			keys = append(keys, k)
		}
	case KindFont:
		for k := range c.fontPaths {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
