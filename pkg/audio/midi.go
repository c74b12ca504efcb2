package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

// SampleRate is the audio sample rate used for synthesis and resampling.
const SampleRate = 44100

// ErrNoSoundFont is returned when MIDI music is requested without a SoundFont.
var ErrNoSoundFont = errors.New("SoundFont file is required for MIDI playback")

// ErrInvalidFormat is returned when an audio file cannot be decoded.
var ErrInvalidFormat = errors.New("invalid audio file format")

// MIDIStream implements io.Reader for Ebitengine/audio.
// It renders 16-bit stereo samples from a looping MIDI sequencer.
type MIDIStream struct {
	sequencer *meltysynth.MidiFileSequencer
	stopped   bool
	mu        sync.Mutex
}

// Read implements io.Reader. A stopped stream reads silence.
func (s *MIDIStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.sequencer == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	samples := len(p) / 4
	if samples == 0 {
		return 0, nil
	}

	left := make([]float32, samples)
	right := make([]float32, samples)
	s.sequencer.Render(left, right)

	for i := range samples {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return samples * 4, nil
}

// Stop makes every further Read return silence.
func (s *MIDIStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// newMIDIStream parses a Standard MIDI File and returns a stream that loops it.
func newMIDIStream(sf *meltysynth.SoundFont, data []byte) (*MIDIStream, error) {
	if sf == nil {
		return nil, ErrNoSoundFont
	}
	midi, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	synth, err := meltysynth.NewSynthesizer(sf, meltysynth.NewSynthesizerSettings(SampleRate))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	seq := meltysynth.NewMidiFileSequencer(synth)
	seq.Play(midi, true)
	return &MIDIStream{sequencer: seq}, nil
}
