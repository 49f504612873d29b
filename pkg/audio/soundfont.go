package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/mewlix-graphic/pkg/fileutil"
)

// ErrSoundFontNotFound is returned when the SoundFont file cannot be found.
var ErrSoundFontNotFound = errors.New("SoundFont file not found")

// ReadSoundFontFS reads a SoundFont file through the FileSystem interface.
// A nil fs reads from the regular file system.
func ReadSoundFontFS(fs fileutil.FileSystem, path string) ([]byte, error) {
	if fs == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrSoundFontNotFound, path)
			}
			return nil, fmt.Errorf("failed to read SoundFont file: %w", err)
		}
		return data, nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSoundFontNotFound, path)
	}
	return data, nil
}

// LoadSoundFontFS reads and parses a SoundFont file.
func LoadSoundFontFS(fs fileutil.FileSystem, path string) (*meltysynth.SoundFont, error) {
	data, err := ReadSoundFontFS(fs, path)
	if err != nil {
		return nil, err
	}
	return LoadSoundFont(data)
}

// LoadSoundFont parses SoundFont (.sf2) data.
func LoadSoundFont(data []byte) (*meltysynth.SoundFont, error) {
	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont: %w", err)
	}
	return soundFont, nil
}
