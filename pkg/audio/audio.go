// Package audio plays background music and sound effects for running scenes.
// MIDI music is rendered with go-meltysynth; WAV and Ogg Vorbis files are
// decoded by Ebitengine. All output goes through one shared audio context.
package audio

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"

	"github.com/zurustar/vnplay/pkg/fileutil"
	"github.com/zurustar/vnplay/pkg/logger"
)

// track is the music currently selected.
type track struct {
	name   string
	volume int
	player *audio.Player
	midi   *MIDIStream
}

// Player implements music and sound playback for the interpreter.
//
// Without an audio context the player runs silently: files are still
// located and decoded, so missing or broken assets are reported the same
// way, but nothing is sent to an output device.
type Player struct {
	ctx       *audio.Context
	fsys      fileutil.FileSystem
	dirs      []string
	soundFont *meltysynth.SoundFont

	music  *track
	sounds []*audio.Player
	muted  bool

	log *slog.Logger
	mu  sync.Mutex
}

// Option is a functional option for configuring the Player.
type Option func(*Player)

// WithContext sets the shared Ebitengine audio context.
func WithContext(ctx *audio.Context) Option {
	return func(p *Player) {
		p.ctx = ctx
	}
}

// WithSoundFont sets the SoundFont used to render MIDI music.
func WithSoundFont(sf *meltysynth.SoundFont) Option {
	return func(p *Player) {
		p.soundFont = sf
	}
}

// WithSearchDirs sets the directories searched for audio files.
func WithSearchDirs(dirs ...string) Option {
	return func(p *Player) {
		p.dirs = dirs
	}
}

// WithMuted starts the player muted.
func WithMuted(muted bool) Option {
	return func(p *Player) {
		p.muted = muted
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Player) {
		p.log = log
	}
}

// New creates a Player reading audio files from fsys.
func New(fsys fileutil.FileSystem, opts ...Option) *Player {
	p := &Player{
		fsys: fsys,
		dirs: []string{"audio", "."},
		log:  logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// load finds name (trying extensions when it has none) and decodes it.
func (p *Player) load(name string, exts []string) (*decoded, error) {
	var loc fileutil.Location
	var err error
	for _, c := range candidates(name, exts) {
		loc, err = fileutil.Search([]fileutil.FileSystem{p.fsys}, p.dirs, c)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	data, err := loc.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", loc.Path, err)
	}
	d, err := decode(FormatOf(loc.Path), data, p.soundFont)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", loc.Path, err)
	}
	return d, nil
}

// gain converts a 0-100 volume to a player volume, honouring mute.
func (p *Player) gain(volume int) float64 {
	if p.muted {
		return 0
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return float64(volume) / 100
}

// PlayMusic starts looping music. Requesting the music that is already
// playing only changes its volume.
func (p *Player) PlayMusic(name string, volume int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.music != nil && p.music.name == name {
		p.music.volume = volume
		if p.music.player != nil {
			p.music.player.SetVolume(p.gain(volume))
		}
		return nil
	}

	d, err := p.load(name, musicExtensions)
	if err != nil {
		return err
	}
	p.stopMusicLocked()

	t := &track{name: name, volume: volume, midi: d.midi}
	if p.ctx != nil {
		var src io.Reader = d.stream
		if rs, ok := d.stream.(io.ReadSeeker); ok && d.length > 0 {
			src = audio.NewInfiniteLoop(rs, d.length)
		}
		player, err := p.ctx.NewPlayer(src)
		if err != nil {
			return fmt.Errorf("failed to create audio player: %w", err)
		}
		player.SetVolume(p.gain(volume))
		player.Play()
		t.player = player
	}
	p.music = t
	p.log.Info("PlayMusic", "name", name, "volume", volume)
	return nil
}

// StopMusic stops the current music.
func (p *Player) StopMusic() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopMusicLocked()
}

func (p *Player) stopMusicLocked() {
	if p.music == nil {
		return
	}
	if p.music.midi != nil {
		p.music.midi.Stop()
	}
	if p.music.player != nil {
		p.music.player.Close()
	}
	p.music = nil
}

// CurrentMusic returns the name and volume of the current music.
func (p *Player) CurrentMusic() (string, int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.music == nil {
		return "", 0, false
	}
	return p.music.name, p.music.volume, true
}

// PlaySound plays a sound effect once. Sounds overlap freely.
func (p *Player) PlaySound(name string, volume int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cleanupSounds()

	d, err := p.load(name, soundExtensions)
	if err != nil {
		return err
	}
	if p.ctx == nil {
		return nil
	}
	player, err := p.ctx.NewPlayer(d.stream)
	if err != nil {
		return fmt.Errorf("failed to create audio player: %w", err)
	}
	player.SetVolume(p.gain(volume))
	player.Play()
	p.sounds = append(p.sounds, player)
	return nil
}

// cleanupSounds closes finished sound players. Must be called with p.mu held.
func (p *Player) cleanupSounds() {
	active := p.sounds[:0]
	for _, s := range p.sounds {
		if s.IsPlaying() {
			active = append(active, s)
		} else {
			s.Close()
		}
	}
	p.sounds = active
}

// ActiveSounds returns the number of sound effects still playing.
func (p *Player) ActiveSounds() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleanupSounds()
	return len(p.sounds)
}

// SetMuted mutes or unmutes all current and future output.
func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.muted = muted
	if p.music != nil && p.music.player != nil {
		p.music.player.SetVolume(p.gain(p.music.volume))
	}
	for _, s := range p.sounds {
		if muted {
			s.SetVolume(0)
		}
	}
}

// IsMuted returns whether output is muted.
func (p *Player) IsMuted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Update is called once per frame to release finished sound players.
func (p *Player) Update() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleanupSounds()
}

// Shutdown stops all playback.
func (p *Player) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopMusicLocked()
	for _, s := range p.sounds {
		s.Close()
	}
	p.sounds = nil
}
