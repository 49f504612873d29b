package loader

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/zurustar/mewlix-graphic/pkg/audio"
	"github.com/zurustar/mewlix-graphic/pkg/fileutil"
	"github.com/zurustar/mewlix-graphic/pkg/graphics"
)

// VolumeSetter は volume 行の設定先
type VolumeSetter interface {
	SetVolume(channel audio.ChannelID, level float64) error
}

// ManifestError はマニフェストの構文エラー
type ManifestError struct {
	Line int
	Text string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// LoadManifest はマニフェストファイルを読み込んで Plan を作成する
func LoadManifest(fs fileutil.FileSystem, name string, target Target, volume VolumeSetter, opts ...PlanOption) (*Plan, error) {
	data, err := fs.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", name, err)
	}
	return ParseManifest(data, target, volume, opts...)
}

// ParseManifest はマニフェストを解析して Plan を作成する
//
// 1行に1タスク。'#' 以降はコメント。空白を含む値はダブルクォートで囲む。
//
//	sprite KEY PATH
//	image  KEY PATH WIDTH HEIGHT
//	audio  KEY PATH
//	font   NAME PATH
//	volume CHANNEL LEVEL
//
// 入力は UTF-8 または Shift-JIS。
func ParseManifest(data []byte, target Target, volume VolumeSetter, opts ...PlanOption) (*Plan, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	plan := NewPlan(opts...)
	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		line = strings.TrimRight(line, "\r")

		fields, err := splitFields(stripComment(line))
		if err != nil {
			return nil, &ManifestError{Line: lineNo, Text: line, Err: err}
		}
		if len(fields) == 0 {
			continue
		}

		task, err := parseTask(fields, target, volume)
		if err != nil {
			return nil, &ManifestError{Line: lineNo, Text: line, Err: err}
		}
		plan.Add(task)
	}
	return plan, nil
}

func parseTask(fields []string, target Target, volume VolumeSetter) (Task, error) {
	verb, args := strings.ToLower(fields[0]), fields[1:]

	want := map[string]int{"sprite": 2, "image": 4, "audio": 2, "font": 2, "volume": 2}
	n, ok := want[verb]
	if !ok {
		return Task{}, fmt.Errorf("unknown directive %q", fields[0])
	}
	if len(args) != n {
		return Task{}, fmt.Errorf("%s expects %d arguments, got %d", verb, n, len(args))
	}

	switch verb {
	case "sprite":
		return Sprite(target, args[0], args[1]), nil
	case "image":
		w, err := strconv.Atoi(args[2])
		if err != nil || w <= 0 || w > graphics.MaxImageSize {
			return Task{}, fmt.Errorf("invalid width %q", args[2])
		}
		h, err := strconv.Atoi(args[3])
		if err != nil || h <= 0 || h > graphics.MaxImageSize {
			return Task{}, fmt.Errorf("invalid height %q", args[3])
		}
		return Image(target, args[0], args[1], w, h), nil
	case "audio":
		return Audio(target, args[0], args[1]), nil
	case "font":
		return Font(target, args[0], args[1]), nil
	default: // volume
		if volume == nil {
			return Task{}, fmt.Errorf("volume is not supported here")
		}
		channel, err := audio.ParseChannel(args[0])
		if err != nil {
			return Task{}, err
		}
		level, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return Task{}, fmt.Errorf("invalid level %q", args[1])
		}
		return Step(fmt.Sprintf("volume %s", channel), func(ctx context.Context) error {
			return volume.SetVolume(channel, level)
		}), nil
	}
}

// stripComment は引用符の外にある '#' 以降を取り除く
func stripComment(line string) string {
	inQuote := false
	for i, r := range line {
		switch r {
		case '"':
			inQuote = !inQuote
		case '#':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

// splitFields は空白区切りで分割する。ダブルクォートで囲まれた部分は1つの値になる
func splitFields(line string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	inQuote, hasField := false, false

	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasField = true
		case !inQuote && (r == ' ' || r == '\t'):
			if hasField {
				fields = append(fields, cur.String())
				cur.Reset()
				hasField = false
			}
		default:
			cur.WriteRune(r)
			hasField = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	if hasField {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

// decodeText は UTF-8（BOM付き可）ならそのまま、そうでなければ Shift-JIS として UTF-8 に変換する
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoder := japanese.ShiftJIS.NewDecoder()
	utf8Data, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("failed to decode Shift-JIS manifest: %w", err)
	}
	return string(utf8Data), nil
}
