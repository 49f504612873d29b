package app

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/zurustar/mewlix-graphic/pkg/audio"
	"github.com/zurustar/mewlix-graphic/pkg/cli"
	"github.com/zurustar/mewlix-graphic/pkg/fileutil"
	"github.com/zurustar/mewlix-graphic/pkg/frame"
	"github.com/zurustar/mewlix-graphic/pkg/graphics"
	"github.com/zurustar/mewlix-graphic/pkg/loader"
	"github.com/zurustar/mewlix-graphic/pkg/logger"
	"github.com/zurustar/mewlix-graphic/pkg/resource"
)

// リモートのアセット取得のタイムアウト
const httpTimeout = 30 * time.Second

// Runtime はプログラムが使うコンポーネント一式
type Runtime struct {
	Config   *cli.Config
	Assets   fileutil.FileSystem
	Cache    *resource.Cache
	Fonts    *graphics.FontBook
	Mixer    *audio.Mixer
	Renderer *graphics.Renderer
}

// assetFS はアセットの FileSystem を作成する
// 実ディレクトリを優先し、見つからないファイルは埋め込みアセットから読む
func (app *Application) assetFS() fileutil.FileSystem {
	var layers []fileutil.FileSystem
	if info, err := os.Stat(app.config.AssetsDir); err == nil && info.IsDir() {
		layers = append(layers, fileutil.NewRealFS(app.config.AssetsDir))
	} else {
		app.log.Warn("Assets directory not found", "path", app.config.AssetsDir)
	}
	if app.assets != nil {
		if sub, err := fs.Sub(app.assets, "assets"); err == nil {
			layers = append(layers, fileutil.NewEmbedFS(sub, "."))
		}
	}
	return fileutil.NewOverlayFS(layers...)
}

// newRuntime はキャッシュ、ミキサー、レンダラーを組み立てる
func (app *Application) newRuntime(assets fileutil.FileSystem, surface graphics.Surface, fontOpts ...graphics.FontBookOption) (*Runtime, error) {
	sf, err := app.loadSoundFont(assets)
	if err != nil {
		return nil, err
	}

	fonts := graphics.NewFontBook(append([]graphics.FontBookOption{
		graphics.WithFontLogger(logger.Component("font")),
	}, fontOpts...)...)

	fetcher := &resource.MultiFetcher{
		Local:  resource.NewFSFetcher(assets),
		Remote: resource.NewHTTPFetcher(&http.Client{Timeout: httpTimeout}),
	}
	cache := resource.NewCache(fetcher,
		resource.WithLogger(logger.Component("resource")),
		resource.WithFontRegistry(fonts),
		resource.WithAudioOptions(audio.DecodeOptions{SoundFont: sf}),
	)

	mixer := audio.NewMixer(cache, audio.WithLogger(logger.Component("audio")))
	renderer := graphics.NewRenderer(cache, surface,
		graphics.WithLogger(logger.Component("graphics")),
		graphics.WithFontBook(fonts),
	)

	return &Runtime{
		Config:   app.config,
		Assets:   assets,
		Cache:    cache,
		Fonts:    fonts,
		Mixer:    mixer,
		Renderer: renderer,
	}, nil
}

// buildPlan はマニフェスト（指定されている場合）とプログラムの読み込みタスクから Plan を作成する
func (app *Application) buildPlan(rt *Runtime) (*loader.Plan, error) {
	opts := []loader.PlanOption{
		loader.WithLogger(logger.Component("loader")),
		loader.WithProgress(func(done, total int, name string) {
			app.log.Debug("Loading", "done", done, "total", total, "task", name)
		}),
	}

	plan := loader.NewPlan(opts...)
	if app.config.Manifest != "" {
		var err error
		plan, err = loader.LoadManifest(rt.Assets, app.config.Manifest, rt.Cache, rt.Mixer, opts...)
		if err != nil {
			return nil, err
		}
		app.log.Info("Manifest parsed", "path", app.config.Manifest, "tasks", plan.Len())
	}

	app.program.Load(rt, plan)
	return plan, nil
}

// execute はリソースを読み込んでからフレームループを実行する
func (app *Application) execute(ctx context.Context, rt *Runtime, ticks frame.TickSource, opts ...frame.Option) error {
	plan, err := app.buildPlan(rt)
	if err != nil {
		return fmt.Errorf("failed to build load plan: %w", err)
	}
	if err := plan.Run(ctx); err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}

	sched := frame.NewScheduler(ticks, rt.Renderer.Surface(),
		append([]frame.Option{frame.WithLogger(logger.Component("frame"))}, opts...)...)

	app.log.Info("Frame loop started")
	err = sched.Run(ctx, app.program.Frame)
	stats := sched.Stats()
	app.log.Info("Frame loop ended", "frames", sched.Frames(), "avg_fps", stats.AverageFPS, "min_fps", stats.MinFPS)
	return err
}
