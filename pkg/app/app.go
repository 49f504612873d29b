package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/zurustar/mewlix-graphic/pkg/audio"
	"github.com/zurustar/mewlix-graphic/pkg/cli"
	"github.com/zurustar/mewlix-graphic/pkg/frame"
	"github.com/zurustar/mewlix-graphic/pkg/graphics"
	"github.com/zurustar/mewlix-graphic/pkg/logger"
	"github.com/zurustar/mewlix-graphic/pkg/statsview"
	"github.com/zurustar/mewlix-graphic/pkg/window"
)

const (
	windowTitle = "mewlix-graphic"
	windowScale = 2
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config  *cli.Config
	log     *slog.Logger
	assets  fs.FS // 埋め込みアセット（"assets" ディレクトリを含む）。nil 可
	program Program
}

// New Applicationを作成
// program が nil の場合はデモを実行する
func New(assets fs.FS, program Program) *Application {
	if program == nil {
		program = NewDemo()
	}
	return &Application{
		assets:  assets,
		program: program,
	}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	config, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = config

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()

	app.log.Info("Application started",
		"assets", app.config.AssetsDir,
		"manifest", app.config.Manifest,
		"headless", app.config.Headless,
		"timeout", app.config.Timeout)

	// 3. 統計ビューア
	if app.config.StatsView {
		stop := statsview.Launch(statsview.DefaultAddress, logger.Component("statsview"))
		defer stop()
	}

	// 4. タイムアウトと割り込み
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}

	// 5. 実行
	if app.config.Headless {
		err = app.runHeadless(ctx)
	} else {
		err = app.runWindow(ctx)
	}
	if err != nil {
		app.log.Error("Application failed", "error", err)
		return err
	}

	app.log.Info("Application terminated normally")
	return nil
}

// runHeadless はウィンドウと音声デバイスを使わずに実行する
// --record が指定されていればミックスを WAV に書き出す
func (app *Application) runHeadless(ctx context.Context) error {
	app.log.Info("Headless mode", "fps", app.config.FPS)

	surface := graphics.NewRGBASurface(app.config.Width, app.config.Height)
	rt, err := app.newRuntime(app.assetFS(), surface)
	if err != nil {
		return err
	}

	ticks := frame.NewTimerTicks(app.config.FPS)
	defer ticks.Stop()

	clock := advanceMixer(rt.Mixer)

	var recorder *audio.WAVRecorder
	var file *os.File
	if app.config.Record != "" {
		file, err = os.Create(app.config.Record)
		if err != nil {
			return fmt.Errorf("failed to create recording: %w", err)
		}
		recorder = audio.NewWAVRecorder(file, rt.Mixer)
		clock = frame.WithAfterTick(recorder.Advance)
	}

	runErr := app.result(app.execute(ctx, rt, ticks, clock))

	if recorder != nil {
		closeErr := errors.Join(recorder.Close(), file.Close())
		if closeErr != nil && runErr == nil {
			runErr = closeErr
		}
		app.log.Info("Recording saved", "path", app.config.Record, "frames", recorder.Frames())
	}
	return runErr
}

// runWindow はウィンドウを開いて実行する
// Ebitengine はメインスレッドで動かし、読み込みとフレームループは別の goroutine で動かす
func (app *Application) runWindow(ctx context.Context) error {
	game := window.NewGame(app.config.Width, app.config.Height, app.config.Timeout)
	surface := graphics.NewEbitenSurface(game.Canvas())

	rt, err := app.newRuntime(app.assetFS(), surface)
	if err != nil {
		return err
	}

	output, opts := app.openOutput(rt, audio.NewOutput)
	if output != nil {
		defer output.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(ctx)
	errCh := make(chan error, 1)
	game.SetStartFunc(func() {
		eg.Go(func() error {
			err := app.execute(egCtx, rt, game, opts...)
			errCh <- err
			return err
		})
	}, errCh)

	runErr := window.Run(game, windowTitle, windowScale)
	cancel()
	loopErr := eg.Wait()

	if runErr != nil {
		return runErr
	}
	return app.result(loopErr)
}

// openOutput は音声出力を開く
// 開けない場合は無音で続行し、ミキサーの時計をフレームの経過時間で進めるオプションを返す
func (app *Application) openOutput(rt *Runtime, open func(*audio.Mixer) (*audio.Output, error)) (*audio.Output, []frame.Option) {
	output, err := open(rt.Mixer)
	if err != nil {
		app.log.Warn("Audio output unavailable, continuing without sound", "error", err)
		return nil, []frame.Option{advanceMixer(rt.Mixer)}
	}
	return output, nil
}

// advanceMixer は各フレームの後にミキサーの時計を dt 秒進める
func advanceMixer(m *audio.Mixer) frame.Option {
	return frame.WithAfterTick(func(dt float64) error {
		m.Advance(dt)
		return nil
	})
}

// result はフレームループの終了理由を判定し、正常終了なら nil を返す
func (app *Application) result(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		app.log.Info("Timeout reached, terminating")
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, window.ErrClosed):
		app.log.Info("Frame loop interrupted")
		return nil
	}
	return err
}
