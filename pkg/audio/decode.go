package audio

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// Format is an audio file format, chosen by file extension.
type Format int

const (
	FormatUnknown Format = iota
	FormatMIDI
	FormatWAV
	FormatVorbis
)

// musicExtensions are tried in order when a music name has no extension.
var musicExtensions = []string{".mid", ".ogg", ".wav"}

// soundExtensions are tried in order when a sound name has no extension.
var soundExtensions = []string{".wav", ".ogg"}

// FormatOf returns the format implied by the extension of name.
func FormatOf(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".mid", ".midi", ".smf":
		return FormatMIDI
	case ".wav", ".wave":
		return FormatWAV
	case ".ogg":
		return FormatVorbis
	default:
		return FormatUnknown
	}
}

// candidates returns the file names to look for.
func candidates(name string, exts []string) []string {
	if path.Ext(name) != "" {
		return []string{name}
	}
	out := make([]string, len(exts))
	for i, ext := range exts {
		out[i] = name + ext
	}
	return out
}

// decoded is a stream ready to hand to an audio player.
// length is the stream size in bytes, or 0 when the stream is endless.
type decoded struct {
	stream io.Reader
	length int64
	midi   *MIDIStream
}

// decode turns file data into a 16-bit stereo stream at SampleRate.
func decode(format Format, data []byte, sf *meltysynth.SoundFont) (*decoded, error) {
	switch format {
	case FormatMIDI:
		s, err := newMIDIStream(sf, data)
		if err != nil {
			return nil, err
		}
		return &decoded{stream: s, midi: s}, nil
	case FormatWAV:
		s, err := wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return &decoded{stream: s, length: s.Length()}, nil
	case FormatVorbis:
		s, err := vorbis.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return &decoded{stream: s, length: s.Length()}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported extension", ErrInvalidFormat)
	}
}
