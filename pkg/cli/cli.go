package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultWidth  = 320
	DefaultHeight = 240
	DefaultFPS    = 60
)

// Config はコマンドライン引数と環境変数から解析された設定を保持する
type Config struct {
	AssetsDir string        // アセットのベースディレクトリ
	Manifest  string        // 読み込みマニフェスト（空なら組み込みデモ）
	Timeout   time.Duration // タイムアウト時間（0は無制限）
	LogLevel  string        // ログレベル（debug, info, warn, error）
	Headless  bool          // ヘッドレスモード
	SoundFont string        // MIDI 用のサウンドフォント
	Record    string        // ヘッドレス時にミックスを書き出す WAV ファイル
	FPS       int           // ヘッドレス時のティック数
	Width     int           // キャンバスの幅
	Height    int           // キャンバスの高さ
	StatsView bool          // ランタイム統計ビューアを起動する
	ShowHelp  bool          // ヘルプ表示フラグ
}

// 値を取らないフラグ（reorderArgs で次の引数を値として扱わない）
var boolFlags = map[string]bool{
	"h": true, "help": true, "headless": true, "statsview": true,
}

// ParseArgs はコマンドライン引数を解析して Config を返す
// 環境変数はフラグが指定されていない場合のみ使われる
func ParseArgs(args []string) (*Config, error) {
	return parseArgs(args, os.LookupEnv)
}

func parseArgs(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("mewlix-graphic", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{}

	var timeoutSec int
	fs.StringVar(&config.AssetsDir, "assets", ".", "アセットのディレクトリ")
	fs.StringVar(&config.AssetsDir, "a", ".", "アセットのディレクトリ（短縮形）")
	fs.StringVar(&config.Manifest, "manifest", "", "読み込みマニフェスト")
	fs.StringVar(&config.Manifest, "m", "", "読み込みマニフェスト（短縮形）")
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.StringVar(&config.SoundFont, "soundfont", "", "MIDI 用のサウンドフォント（SF2）")
	fs.StringVar(&config.Record, "record", "", "ミックスを書き出す WAV ファイル（ヘッドレス時）")
	fs.IntVar(&config.FPS, "fps", DefaultFPS, "ヘッドレス時のフレームレート")
	fs.IntVar(&config.Width, "width", DefaultWidth, "キャンバスの幅")
	fs.IntVar(&config.Height, "height", DefaultHeight, "キャンバスの高さ")
	fs.BoolVar(&config.StatsView, "statsview", false, "ランタイム統計ビューアを起動")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	given := func(names ...string) bool {
		for _, n := range names {
			if set[n] {
				return true
			}
		}
		return false
	}

	// 位置引数（アセットディレクトリ、またはマニフェストファイル）
	if fs.NArg() > 0 && !given("assets", "a") {
		path := fs.Arg(0)
		if isManifestFile(path) {
			config.AssetsDir = filepath.Dir(path)
			if !given("manifest", "m") {
				config.Manifest = filepath.Base(path)
			}
		} else {
			config.AssetsDir = path
		}
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	env := func(name string) (string, bool) {
		v, ok := lookupEnv(name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	if v, ok := env("ASSETS"); ok && !given("assets", "a") && fs.NArg() == 0 {
		config.AssetsDir = v
	}
	if v, ok := env("MANIFEST"); ok && config.Manifest == "" {
		config.Manifest = v
	}
	if v, ok := env("HEADLESS"); ok && !given("headless") {
		config.Headless = v == "1" || strings.ToLower(v) == "true"
	}
	if v, ok := env("TIMEOUT"); ok && !given("timeout", "t") {
		if t, err := strconv.Atoi(v); err == nil && t > 0 {
			timeoutSec = t
		}
	}
	if v, ok := env("LOG_LEVEL"); ok && !given("log-level", "l") {
		config.LogLevel = v
	}
	if v, ok := env("SOUNDFONT"); ok && !given("soundfont") {
		config.SoundFont = v
	}
	if v, ok := env("RECORD"); ok && !given("record") {
		config.Record = v
	}

	config.LogLevel = strings.ToLower(config.LogLevel)

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if config.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", config.FPS)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", config.Width, config.Height)
	}
	if config.Record != "" && !config.Headless {
		return nil, fmt.Errorf("--record requires --headless")
	}

	return config, nil
}

// isManifestFile は位置引数がマニフェストファイルを指しているかを判定する
func isManifestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".manifest":
		return true
	}
	return false
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			name := strings.TrimLeft(arg, "-")
			if strings.Contains(name, "=") || boolFlags[name] {
				continue
			}
			// -t 5 のような場合は次の引数も値として追加
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `mewlix-graphic - 2D sprite/text/audio runtime

Usage:
  mewlix-graphic [options] [assets-dir | manifest-file]

Arguments:
  assets-dir      アセットのディレクトリ（省略時はカレントディレクトリ）
  manifest-file   .txt / .manifest を指定した場合、そのディレクトリをアセットとして使用

Options:
  -a, --assets <dir>          アセットのディレクトリ（デフォルト: .）
  -m, --manifest <file>       読み込みマニフェスト（省略時は組み込みデモ）
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --headless                  ヘッドレスモード（GUIなし、音声デバイスなし）
  --soundfont <file>          MIDI の再生に使う SF2 ファイル
  --record <file>             ヘッドレス時にミックスを WAV に書き出す
  --fps <n>                   ヘッドレス時のフレームレート（デフォルト: 60）
  --width <px>, --height <px> キャンバスのサイズ（デフォルト: 320x240）
  --statsview                 ランタイム統計ビューアを起動（localhost:18066）
  -h, --help                  このヘルプを表示

Environment Variables:
  ASSETS=<dir>                アセットのディレクトリ
  MANIFEST=<file>             読み込みマニフェスト
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル
  SOUNDFONT=<file>            サウンドフォント
  RECORD=<file>               WAV の書き出し先

Examples:
  mewlix-graphic ./assets                     デモを実行
  mewlix-graphic ./game/resources.txt         マニフェストを指定
  mewlix-graphic --headless --timeout 10 --record out.wav
`)
}
