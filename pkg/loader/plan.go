// Package loader はリソースの読み込みを順序付きのタスク列として実行する
//
// タスクは登録順に1つずつ実行され、最初の失敗で中断する。再試行はしない。
package loader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zurustar/mewlix-graphic/pkg/audio"
	"github.com/zurustar/mewlix-graphic/pkg/graphics"
)

// Target はタスクが読み込み先として使うリソースキャッシュ
type Target interface {
	LoadSprite(ctx context.Context, key, path string) (*graphics.Image, error)
	LoadImage(ctx context.Context, key, path string, width, height int) (*graphics.Image, error)
	LoadAudio(ctx context.Context, key, path string) (*audio.Buffer, error)
	LoadFont(ctx context.Context, name, path string) error
}

// Task は1つの読み込み処理
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Sprite は 16x16 スプライトを読み込むタスクを作成する
func Sprite(t Target, key, path string) Task {
	return Task{
		Name: fmt.Sprintf("sprite %s", key),
		Run: func(ctx context.Context) error {
			_, err := t.LoadSprite(ctx, key, path)
			return err
		},
	}
}

// Image は指定サイズの画像を読み込むタスクを作成する
func Image(t Target, key, path string, width, height int) Task {
	return Task{
		Name: fmt.Sprintf("image %s", key),
		Run: func(ctx context.Context) error {
			_, err := t.LoadImage(ctx, key, path, width, height)
			return err
		},
	}
}

// Audio は音声を読み込むタスクを作成する
func Audio(t Target, key, path string) Task {
	return Task{
		Name: fmt.Sprintf("audio %s", key),
		Run: func(ctx context.Context) error {
			_, err := t.LoadAudio(ctx, key, path)
			return err
		},
	}
}

// Font はフォントを登録するタスクを作成する
func Font(t Target, name, path string) Task {
	return Task{
		Name: fmt.Sprintf("font %s", name),
		Run: func(ctx context.Context) error {
			return t.LoadFont(ctx, name, path)
		},
	}
}

// Step は任意の処理をタスクにする（音量の初期設定など）
func Step(name string, fn func(ctx context.Context) error) Task {
	return Task{Name: name, Run: fn}
}

// Plan は順序付きのタスク列
type Plan struct {
	tasks    []Task
	progress func(done, total int, name string)
	log      *slog.Logger
}

// PlanOption は Plan のオプション
type PlanOption func(*Plan)

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) PlanOption {
	return func(p *Plan) {
		p.log = log
	}
}

// WithProgress はタスク完了ごとに呼ばれる関数を設定する
func WithProgress(fn func(done, total int, name string)) PlanOption {
	return func(p *Plan) {
		p.progress = fn
	}
}

// NewPlan は新しい Plan を作成する
func NewPlan(opts ...PlanOption) *Plan {
	p := &Plan{log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add はタスクを末尾に追加する
func (p *Plan) Add(tasks ...Task) *Plan {
	p.tasks = append(p.tasks, tasks...)
	return p
}

// Len はタスク数を返す
func (p *Plan) Len() int {
	return len(p.tasks)
}

// Names はタスク名を実行順に返す
func (p *Plan) Names() []string {
	names := make([]string, len(p.tasks))
	for i, t := range p.tasks {
		names[i] = t.Name
	}
	return names
}

// Run はタスクを順に実行する
// 失敗したタスクの番号と名前を付けてエラーを返し、以降のタスクは実行しない
func (p *Plan) Run(ctx context.Context) error {
	total := len(p.tasks)
	for i, task := range p.tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := task.Run(ctx); err != nil {
			p.log.Error("Plan: task failed", "index", i, "task", task.Name, "error", err)
			return fmt.Errorf("load task %d (%s): %w", i, task.Name, err)
		}
		p.log.Debug("Plan: task done", "index", i, "task", task.Name)
		if p.progress != nil {
			p.progress(i+1, total, task.Name)
		}
	}
	p.log.Info("Plan: all resources loaded", "tasks", total)
	return nil
}
