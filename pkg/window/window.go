// Package window はフレームスケジューラに表示リフレッシュのティックを供給する Ebitengine のゲームを提供する
package window

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// ErrClosed はウィンドウが閉じられた後にティックを待った場合のエラー
var ErrClosed = errors.New("window closed")

// 背景色（キャンバスの透明部分に表示される）
var backgroundColor = color.RGBA{0x00, 0x00, 0x00, 0xFF}

// Game はEbitengineのゲームインターフェースを実装する
//
// スケジューラはキャンバスに描画し、NextTick でフレームの完了を通知する。
// Update はその通知を受けてキャンバスをフロントバッファにコピーし、
// タイムスタンプを返す。Draw はフロントバッファだけを表示するため、
// 描画途中のフレームが画面に出ることはない。
type Game struct {
	canvas    *ebiten.Image // スケジューラの描画先
	front     *ebiten.Image // 表示中のフレーム
	width     int
	height    int
	timeout   time.Duration // タイムアウト時間
	startTime time.Time     // 開始時刻

	ready chan struct{} // スケジューラ → ゲーム: フレーム完了
	ticks chan float64  // ゲーム → スケジューラ: 次のティック
	done  chan struct{} // ゲームループ終了
	once  sync.Once

	// スケジューラの起動制御
	startFunc func()       // スケジューラを開始する関数
	started   bool         // スケジューラが開始されたかどうか
	errCh     <-chan error // スケジューラの終了通知
	runErr    error        // スケジューラが返したエラー

	mu sync.Mutex
}

// NewGame は width x height のキャンバスを持つ Game を作成する
func NewGame(width, height int, timeout time.Duration) *Game {
	return &Game{
		canvas:    ebiten.NewImage(width, height),
		front:     ebiten.NewImage(width, height),
		width:     width,
		height:    height,
		timeout:   timeout,
		startTime: time.Now(),
		ready:     make(chan struct{}),
		ticks:     make(chan float64, 1),
		done:      make(chan struct{}),
	}
}

// Canvas はスケジューラが描画するキャンバスを返す
func (g *Game) Canvas() *ebiten.Image {
	return g.canvas
}

// SetStartFunc はスケジューラを開始する関数を設定する
// この関数は最初の Update() 呼び出し時に実行され、Ebitengine の初期化完了後に
// スケジューラが動き始める。errCh はスケジューラの終了時に結果を受け取る
func (g *Game) SetStartFunc(startFunc func(), errCh <-chan error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.startFunc = startFunc
	g.errCh = errCh
}

// Err はスケジューラが返したエラーを返す
func (g *Game) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runErr
}

// NextTick はフレームの完了を通知し、次のリフレッシュまで待つ
// 戻り値はゲーム開始からの経過ミリ秒
func (g *Game) NextTick(ctx context.Context) (float64, error) {
	select {
	case g.ready <- struct{}{}:
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-g.done:
		return 0, ErrClosed
	}

	select {
	case ts := <-g.ticks:
		return ts, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-g.done:
		return 0, ErrClosed
	}
}

// Close はゲームループの終了を通知し、待機中の NextTick を解放する
func (g *Game) Close() {
	g.once.Do(func() {
		close(g.done)
	})
}

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
func (g *Game) Update() error {
	// タイムアウトチェック
	if g.timeout > 0 && time.Since(g.startTime) >= g.timeout {
		return ebiten.Termination
	}

	// スケジューラの開始（最初のUpdate()呼び出し時に実行）
	g.mu.Lock()
	if !g.started && g.startFunc != nil {
		g.started = true
		g.startFunc()
	}
	errCh := g.errCh
	g.mu.Unlock()

	// Escキーで終了（1回だけ反応）
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	// スケジューラが終了していればゲームループも終了する
	if errCh != nil {
		select {
		case err := <-errCh:
			g.mu.Lock()
			g.runErr = err
			g.mu.Unlock()
			return ebiten.Termination
		default:
		}
	}

	// 完了したフレームがあれば表示して次のティックを渡す
	select {
	case <-g.ready:
		g.present()
		g.ticks <- float64(time.Since(g.startTime).Microseconds()) / 1000
	default:
	}

	return nil
}

// present はキャンバスの内容をフロントバッファにコピーする
func (g *Game) present() {
	g.front.Clear()
	g.front.DrawImage(g.canvas, nil)
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	screen.DrawImage(g.front, nil)
}

// Layout 画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

// Run GUIモードでウィンドウを実行
// ゲームループが終了するとスケジューラの待機は ErrClosed で解放される
func Run(g *Game, title string, scale int) error {
	defer g.Close()

	if scale <= 0 {
		scale = 1
	}
	ebiten.SetWindowSize(g.width*scale, g.height*scale)
	ebiten.SetWindowTitle(title)
	// Ebitengineが自動的にアスペクト比を維持してスケーリングし、
	// レターボックスを表示する
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	return nil
}
