package audio

import (
	"bytes"
	"fmt"

	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/vnplay/pkg/fileutil"
)

// DefaultSoundFontName is the SoundFont file searched for when the project names none.
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// soundFontDirs are the directories searched for a SoundFont, in order.
var soundFontDirs = []string{"soundfonts", "."}

// FindSoundFont searches the file systems in order for name.
// An empty name means DefaultSoundFontName.
func FindSoundFont(filesystems []fileutil.FileSystem, name string) (fileutil.Location, error) {
	if name == "" {
		name = DefaultSoundFontName
	}
	return fileutil.Search(filesystems, soundFontDirs, name)
}

// LoadSoundFont reads and parses the SoundFont at loc.
func LoadSoundFont(loc fileutil.Location) (*meltysynth.SoundFont, error) {
	data, err := loc.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("failed to read SoundFont %s: %w", loc.Path, err)
	}
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont %s: %w", loc.Path, err)
	}
	return sf, nil
}
