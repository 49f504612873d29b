package app

import (
	"fmt"
	"path/filepath"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/mewlix-graphic/pkg/audio"
	"github.com/zurustar/mewlix-graphic/pkg/fileutil"
)

// SoundFontLocation represents the location of a SoundFont file.
type SoundFontLocation struct {
	// Path is the path to the SoundFont file inside FileSystem
	Path string
	// FileSystem is the FileSystem to use for loading
	FileSystem fileutil.FileSystem
	// IsEmbedded indicates whether the SoundFont is embedded
	IsEmbedded bool
}

// DefaultSoundFontName is the default SoundFont filename to search for.
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// findSoundFont searches for a SoundFont file in the following order:
// 1. The explicitly configured path (--soundfont / SOUNDFONT)
// 2. The soundfonts directory of the assets
// 3. The root of the assets
//
// Returns nil if no SoundFont was found.
func findSoundFont(assets fileutil.FileSystem, explicit string) *SoundFontLocation {
	if explicit != "" {
		return &SoundFontLocation{
			Path:       filepath.Base(explicit),
			FileSystem: fileutil.NewRealFS(filepath.Dir(explicit)),
		}
	}

	if assets == nil {
		return nil
	}
	for _, name := range []string{"soundfonts/" + DefaultSoundFontName, DefaultSoundFontName} {
		if data, err := assets.ReadFile(name); err == nil && len(data) > 0 {
			return &SoundFontLocation{
				Path:       name,
				FileSystem: assets,
				IsEmbedded: assets.IsEmbedded(),
			}
		}
	}
	return nil
}

// loadSoundFont finds and parses the SoundFont used to render MIDI tracks.
// An explicitly configured SoundFont must load; a discovered one that fails
// to parse is skipped with a warning.
func (app *Application) loadSoundFont(assets fileutil.FileSystem) (*meltysynth.SoundFont, error) {
	loc := findSoundFont(assets, app.config.SoundFont)
	if loc == nil {
		app.log.Debug("No SoundFont found, MIDI tracks cannot be decoded")
		return nil, nil
	}

	sf, err := audio.LoadSoundFontFS(loc.FileSystem, loc.Path)
	if err != nil {
		if app.config.SoundFont != "" {
			return nil, fmt.Errorf("failed to load SoundFont %s: %w", app.config.SoundFont, err)
		}
		app.log.Warn("Ignoring unreadable SoundFont", "path", loc.Path, "error", err)
		return nil, nil
	}

	app.log.Info("SoundFont loaded", "path", loc.Path, "embedded", loc.IsEmbedded)
	return sf, nil
}
