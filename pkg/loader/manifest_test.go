package loader

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"golang.org/x/text/encoding/japanese"

	"github.com/zurustar/mewlix-graphic/pkg/audio"
	"github.com/zurustar/mewlix-graphic/pkg/fileutil"
)

type volumeRecorder struct {
	levels map[audio.ChannelID]float64
}

func (v *volumeRecorder) SetVolume(channel audio.ChannelID, level float64) error {
	if v.levels == nil {
		v.levels = make(map[audio.ChannelID]float64)
	}
	v.levels[channel] = level
	return nil
}

const sampleManifest = `# demo resources
sprite cat   images/cat.png
image  bg    images/bg.bmp 320 240   # background
audio  meow  sounds/meow.wav

font "Mewlix Mono" "fonts/mewlix mono.ttf"
volume music 0.25
`

func TestParseManifest(t *testing.T) {
	target := newRecordTarget()
	vol := &volumeRecorder{}

	plan, err := ParseManifest([]byte(sampleManifest), target, vol)
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}
	if plan.Len() != 5 {
		t.Fatalf("Len() = %d, want 5 (names %v)", plan.Len(), plan.Names())
	}

	if err := plan.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{
		"sprite cat images/cat.png",
		"image bg images/bg.bmp 320x240",
		"audio meow sounds/meow.wav",
		"font Mewlix Mono fonts/mewlix mono.ttf",
	}
	if strings.Join(target.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %v, want %v", target.calls, want)
	}
	if got := vol.levels[audio.ChannelMusic]; got != 0.25 {
		t.Errorf("music volume = %v, want 0.25", got)
	}
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"unknown verb", "sprite a a.png\nanimate a", 2},
		{"too few args", "audio onlykey", 1},
		{"bad width", "\n\nimage bg bg.png wide 10", 3},
		{"zero height", "image bg bg.png 10 0", 1},
		{"huge width", "image bg bg.png 100000 10", 1},
		{"huge height", "sprite a a.png\nimage bg bg.png 10 1000000000", 2},
		{"bad channel", "volume voice 0.5", 1},
		{"bad level", "volume sfx loud", 1},
		{"open quote", `font "Mono fonts/mono.ttf`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.input), newRecordTarget(), &volumeRecorder{})
			var merr *ManifestError
			if !errors.As(err, &merr) {
				t.Fatalf("error = %v, want *ManifestError", err)
			}
			if merr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", merr.Line, tt.wantLine)
			}
		})
	}
}

func TestParseManifest_VolumeWithoutSetter(t *testing.T) {
	_, err := ParseManifest([]byte("volume master 1"), newRecordTarget(), nil)
	if err == nil {
		t.Error("volume line without a setter should fail")
	}
}

func TestParseManifest_ShiftJIS(t *testing.T) {
	src := "sprite 猫 画像/猫.png\r\naudio 鳴き声 音/にゃー.wav\r\n"
	encoded, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(src))
	if err != nil {
		t.Fatalf("failed to encode Shift-JIS: %v", err)
	}

	target := newRecordTarget()
	plan, err := ParseManifest(encoded, target, nil)
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}
	if err := plan.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "sprite 猫 画像/猫.png|audio 鳴き声 音/にゃー.wav"
	if got := strings.Join(target.calls, "|"); got != want {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestDecodeText_BOM(t *testing.T) {
	got, err := decodeText([]byte("\xEF\xBB\xBFsprite a a.png"))
	if err != nil {
		t.Fatalf("decodeText() error = %v", err)
	}
	if got != "sprite a a.png" {
		t.Errorf("decodeText() = %q", got)
	}
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  a\tb  c ", []string{"a", "b", "c"}},
		{`font "Noto Sans" x.ttf`, []string{"font", "Noto Sans", "x.ttf"}},
		{`a ""`, []string{"a", ""}},
	}
	for _, tt := range tests {
		got, err := splitFields(tt.in)
		if err != nil {
			t.Errorf("splitFields(%q) error = %v", tt.in, err)
			continue
		}
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("splitFields(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripComment(t *testing.T) {
	if got := stripComment(`font "#1 font" a.ttf # note`); got != `font "#1 font" a.ttf ` {
		t.Errorf("stripComment() = %q", got)
	}
}

func TestLoadManifest(t *testing.T) {
	fsys := fileutil.NewEmbedFS(fstest.MapFS{
		"game/resources.txt": {Data: []byte("sprite cat cat.png\n")},
	}, "game")

	plan, err := LoadManifest(fsys, "resources.txt", newRecordTarget(), nil)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if plan.Len() != 1 {
		t.Errorf("Len() = %d, want 1", plan.Len())
	}

	if _, err := LoadManifest(fsys, "missing.txt", newRecordTarget(), nil); err == nil {
		t.Error("missing manifest should fail")
	}
}
