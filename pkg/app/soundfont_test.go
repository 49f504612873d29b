package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/zurustar/mewlix-graphic/pkg/cli"
	"github.com/zurustar/mewlix-graphic/pkg/fileutil"
)

func TestFindSoundFont_Explicit(t *testing.T) {
	result := findSoundFont(nil, "/opt/sf/custom.sf2")
	if result == nil {
		t.Fatal("explicit SoundFont should always be returned")
	}
	if result.Path != "custom.sf2" {
		t.Errorf("Path = %q, want custom.sf2", result.Path)
	}
	if result.FileSystem.BasePath() != "/opt/sf" {
		t.Errorf("BasePath = %q, want /opt/sf", result.FileSystem.BasePath())
	}
	if result.IsEmbedded {
		t.Error("explicit SoundFont should not be embedded")
	}
}

func TestFindSoundFont_Assets(t *testing.T) {
	tests := []struct {
		name     string
		files    fstest.MapFS
		wantPath string
	}{
		{
			name:     "soundfonts directory",
			files:    fstest.MapFS{"soundfonts/" + DefaultSoundFontName: {Data: []byte("RIFF....sfbk")}},
			wantPath: "soundfonts/" + DefaultSoundFontName,
		},
		{
			name:     "assets root",
			files:    fstest.MapFS{DefaultSoundFontName: {Data: []byte("RIFF....sfbk")}},
			wantPath: DefaultSoundFontName,
		},
		{
			name: "soundfonts directory first",
			files: fstest.MapFS{
				DefaultSoundFontName:                 {Data: []byte("root")},
				"soundfonts/" + DefaultSoundFontName: {Data: []byte("dir")},
			},
			wantPath: "soundfonts/" + DefaultSoundFontName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := findSoundFont(fileutil.NewEmbedFS(tt.files, "."), "")
			if result == nil {
				t.Fatal("expected to find a SoundFont")
			}
			if result.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", result.Path, tt.wantPath)
			}
			if !result.IsEmbedded {
				t.Error("expected embedded SoundFont")
			}
		})
	}
}

func TestFindSoundFont_NotFound(t *testing.T) {
	if result := findSoundFont(fileutil.NewEmbedFS(fstest.MapFS{}, "."), ""); result != nil {
		t.Errorf("expected nil, got %+v", result)
	}
	if result := findSoundFont(nil, ""); result != nil {
		t.Errorf("expected nil without assets, got %+v", result)
	}
}

func TestLoadSoundFont_Invalid(t *testing.T) {
	dir := t.TempDir()
	sfPath := filepath.Join(dir, DefaultSoundFontName)
	if err := os.WriteFile(sfPath, []byte("not a soundfont"), 0644); err != nil {
		t.Fatal(err)
	}

	app := New(nil, nil)
	app.log = slog.Default()

	// 自動検出したものは警告だけで続行する
	app.config = &cli.Config{}
	sf, err := app.loadSoundFont(fileutil.NewRealFS(dir))
	if err != nil || sf != nil {
		t.Errorf("discovered invalid SoundFont: got (%v, %v), want (nil, nil)", sf, err)
	}

	// 明示的に指定したものはエラーになる
	app.config = &cli.Config{SoundFont: sfPath}
	if _, err := app.loadSoundFont(nil); err == nil {
		t.Error("explicit invalid SoundFont should fail")
	}
}
