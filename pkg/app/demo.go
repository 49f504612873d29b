package app

import (
	"context"
	"log/slog"

	"github.com/zurustar/mewlix-graphic/pkg/audio"
	"github.com/zurustar/mewlix-graphic/pkg/graphics"
	"github.com/zurustar/mewlix-graphic/pkg/loader"
	"github.com/zurustar/mewlix-graphic/pkg/logger"
)

// Program はスケジューラで動くプログラム
type Program interface {
	// Load は読み込み計画にプログラムが必要とするタスクを追加する
	Load(rt *Runtime, plan *loader.Plan)
	// Frame はフレームごとに呼ばれる。dt は前のフレームからの経過秒数
	Frame(ctx context.Context, dt float64) error
}

// デモのタイミング（秒）
const (
	demoSpeed      = 30.0 // スプライトの移動速度（px/s）
	demoFlowerWait = 1.0
	demoAuraWait   = 3.0
	demoFadeWait   = 6.0
)

// Demo はスプライトを歩かせ、音楽を切り替えてフェードアウトするデモプログラム
type Demo struct {
	rt  *Runtime
	log *slog.Logger

	x          float64
	elapsed    float64
	musicTimer float64

	playingFlower bool
	playingAura   bool
	loweredVolume bool
}

// NewDemo は新しい Demo を作成する
func NewDemo() *Demo {
	return &Demo{log: slog.Default()}
}

// X はスプライトの現在の x 座標を返す
func (d *Demo) X() float64 {
	return d.x
}

// Load はデモのリソースを読み込みタスクとして追加する
// マニフェストで読み込み済みのキーはそのまま使う
func (d *Demo) Load(rt *Runtime, plan *loader.Plan) {
	d.rt = rt
	d.log = logger.Component("demo")
	plan.Add(loader.Step("demo sprite cat", d.ensureCat))
	if rt.Config.Manifest == "" {
		plan.Add(loader.Step("demo volume master", func(ctx context.Context) error {
			return rt.Mixer.SetVolume(audio.ChannelMaster, 1)
		}))
	}
	plan.Add(
		loader.Step("demo audio flower", d.ensureAudio("flower", "flower.mp3")),
		loader.Step("demo audio aura", d.ensureAudio("aura", "aura.mp3")),
	)
}

// Frame はデモの1フレームを描画する
func (d *Demo) Frame(ctx context.Context, dt float64) error {
	if err := d.rt.Renderer.DrawSprite("cat", d.x, 20); err != nil {
		return err
	}
	if err := d.rt.Renderer.DrawText("hahahaha", 0, 0, graphics.WithFontSize(8)); err != nil {
		return err
	}

	d.elapsed += dt
	d.musicTimer += dt
	d.x += demoSpeed * dt

	if d.elapsed > demoFlowerWait {
		d.elapsed = 0
		if !d.playingFlower {
			d.playMusic("flower")
			d.playingFlower = true
		}
	}

	if d.musicTimer > demoAuraWait && !d.playingAura {
		d.playingAura = true
		d.playMusic("aura")
	}

	if d.musicTimer > demoFadeWait && !d.loweredVolume {
		d.loweredVolume = true
		if err := d.rt.Mixer.SetVolume(audio.ChannelMusic, 0); err != nil {
			return err
		}
	}
	return nil
}

// 音楽が読み込めなかった場合は無音のまま続行する
func (d *Demo) playMusic(key string) {
	if err := d.rt.Mixer.PlayMusic(key); err != nil {
		d.log.Warn("Demo: music not available", "key", key, "error", err)
	}
}

// ensureCat は cat スプライトを用意する
// cat.png が読めない場合はピクセルバッファで描いたスプライトを登録する
func (d *Demo) ensureCat(ctx context.Context) error {
	if _, err := d.rt.Cache.Image("cat"); err == nil {
		return nil
	}
	_, err := d.rt.Cache.LoadSprite(ctx, "cat", "cat.png")
	if err == nil {
		return nil
	}
	d.log.Info("Demo: drawing the cat sprite procedurally", "reason", err)

	_, err = DrawCat().ToImage("cat", d.rt.Cache)
	return err
}

func (d *Demo) ensureAudio(key, path string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := d.rt.Cache.Audio(key); err == nil {
			return nil
		}
		if _, err := d.rt.Cache.LoadAudio(ctx, key, path); err != nil {
			d.log.Warn("Demo: audio not loaded", "key", key, "path", path, "error", err)
		}
		return nil
	}
}

// 16x16 の猫（'.' は透明）
var catPattern = [graphics.SpriteHeight]string{
	"................",
	"..#.........#...",
	"..##.......##...",
	"..#p#.....#p#...",
	"..###########...",
	".#############..",
	".##o#######o##..",
	".##o#######o##..",
	".######n######..",
	"=#####www#####=.",
	".#############..",
	"..###########...",
	"...#########..#.",
	"...##.###.##.#..",
	"...##.###.####..",
	"................",
}

var catPalette = map[rune]graphics.ColorLike{
	'#': graphics.HexColor("#8a8a8a"),
	'p': graphics.HexColor("#f4a6b8"),
	'n': graphics.HexColor("#e0607e"),
	'o': graphics.HexColor("#202020"),
	'w': graphics.HexColor("#ffffff"),
	'=': graphics.HexColor("#505050"),
}

// DrawCat は cat スプライトをピクセルバッファに描く
func DrawCat() *graphics.PixelBuffer {
	pb := graphics.NewSpriteBuffer()
	for y, row := range catPattern {
		for x, r := range row {
			c, ok := catPalette[r]
			if !ok {
				continue
			}
			// パターンはスプライトの大きさに収まっている
			_ = pb.SetPixel(x, y, c)
		}
	}
	return pb
}
