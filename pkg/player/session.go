// Package player hosts a project: it runs the start scene's interpreter once
// per frame together with the stage, message box, audio and save storage the
// commands drive. A Session is shared by the windowed Game and RunHeadless.
package player

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/zurustar/vnplay/pkg/audio"
	"github.com/zurustar/vnplay/pkg/fileutil"
	"github.com/zurustar/vnplay/pkg/interpreter"
	"github.com/zurustar/vnplay/pkg/logger"
	"github.com/zurustar/vnplay/pkg/save"
	"github.com/zurustar/vnplay/pkg/scene"
	"github.com/zurustar/vnplay/pkg/stage"
	"github.com/zurustar/vnplay/pkg/variables"
)

// Session runs one project.
type Session struct {
	project  *scene.Project
	library  *scene.Library
	fsys     fileutil.FileSystem
	vars     *variables.Store
	pictures *stage.Pictures
	messages *stage.MessageBox
	audio    *audio.Player
	saves    *save.Manager
	scripts  map[string]interpreter.ScriptFunc
	preview  *interpreter.Preview
	repeat   bool
	env      *interpreter.Env

	main     *interpreter.Interpreter
	scene    string
	finished bool
	frames   int

	log *slog.Logger
}

// Option is a functional option for configuring the Session.
type Option func(*Session)

// WithVariables sets the variable store.
func WithVariables(vars *variables.Store) Option {
	return func(s *Session) {
		s.vars = vars
	}
}

// WithMessageBox sets the message box.
func WithMessageBox(m *stage.MessageBox) Option {
	return func(s *Session) {
		s.messages = m
	}
}

// WithPictures sets the picture stage.
func WithPictures(p *stage.Pictures) Option {
	return func(s *Session) {
		s.pictures = p
	}
}

// WithAudio sets the audio player.
func WithAudio(p *audio.Player) Option {
	return func(s *Session) {
		s.audio = p
	}
}

// WithSaves sets the save storage.
func WithSaves(m *save.Manager) Option {
	return func(s *Session) {
		s.saves = m
	}
}

// WithScript registers a host function callable from gs.Script commands.
func WithScript(name string, fn interpreter.ScriptFunc) Option {
	return func(s *Session) {
		s.scripts[name] = fn
	}
}

// WithRepeat restarts the start scene whenever it ends.
func WithRepeat(repeat bool) Option {
	return func(s *Session) {
		s.repeat = repeat
	}
}

// WithPreview runs the scene interpreter in live-preview mode.
func WithPreview(p *interpreter.Preview) Option {
	return func(s *Session) {
		s.preview = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// NewSession creates a session for the project loaded by library. Assets are
// read from fsys. Collaborators not given as options get headless defaults.
func NewSession(library *scene.Library, fsys fileutil.FileSystem, opts ...Option) *Session {
	s := &Session{
		project: library.Project(),
		library: library,
		fsys:    fsys,
		scripts: make(map[string]interpreter.ScriptFunc),
		log:     logger.GetLogger(),
	}
	s.scripts["log"] = s.scriptLog
	s.scripts["savePersistent"] = s.scriptSavePersistent
	for _, opt := range opts {
		opt(s)
	}

	if s.vars == nil {
		s.vars = variables.NewStore()
	}
	if s.pictures == nil {
		s.pictures = stage.NewPictures(fsys, stage.WithPicturesLogger(s.log))
	}
	if s.messages == nil {
		s.messages = stage.NewMessageBox(stage.WithMessageLogger(s.log))
	}
	if s.audio == nil {
		s.audio = audio.New(fsys, audio.WithLogger(s.log))
	}
	if s.saves == nil {
		s.saves = save.NewManager(nil, save.WithLogger(s.log))
	}

	s.env = &interpreter.Env{
		Variables: s.vars,
		Programs:  library,
		Messages:  s.messages,
		Audio:     s.audio,
		Stage:     s.pictures,
		Scripts:   s.scripts,
	}
	return s
}

// Start restores the persistent variables and starts the start scene.
func (s *Session) Start() error {
	bank, err := s.saves.LoadPersistent()
	if err != nil {
		s.log.Warn("Failed to load persistent variables", "error", err)
	} else {
		s.vars.RestorePersistent(bank)
	}

	in, err := s.newInterpreter(s.project.StartScene)
	if err != nil {
		return fmt.Errorf("failed to start scene %q: %w", s.project.StartScene, err)
	}
	in.Start()
	s.main = in
	s.scene = s.project.StartScene
	s.finished = false
	s.log.Info("Session started", "title", s.project.Title, "scene", s.scene)
	return nil
}

func (s *Session) newInterpreter(name string) (*interpreter.Interpreter, error) {
	program, err := s.library.Scene(name)
	if err != nil {
		return nil, err
	}
	return interpreter.New(program,
		interpreter.WithLogger(s.log),
		interpreter.WithEnv(s.env),
		interpreter.WithSettings(s.project.Settings()),
		interpreter.WithContext(interpreter.SceneContextID(name), nil),
		interpreter.WithRepeat(s.repeat),
		interpreter.WithPreview(s.preview),
		interpreter.WithOnFinish(s.onFinish),
	), nil
}

func (s *Session) onFinish(in *interpreter.Interpreter) {
	s.finished = true
	s.log.Info("Scene finished", "scene", s.scene, "frames", s.frames)
	if err := s.saves.SavePersistent(s.vars.PersistentSnapshot()); err != nil {
		s.log.Warn("Failed to save persistent variables", "error", err)
	}
}

// Update runs one frame: the interpreter first, then the message box and audio.
func (s *Session) Update() {
	if s.main == nil || s.finished {
		return
	}
	s.main.Update()
	s.messages.Update()
	s.audio.Update()
	s.frames++
}

// Save writes the current state to slot.
func (s *Session) Save(slot int) error {
	if s.main == nil {
		return fmt.Errorf("session not started")
	}
	data := &save.Data{
		Title:       s.project.Title,
		Scene:       s.scene,
		Interpreter: s.main.Snapshot(),
		Variables:   s.vars.Snapshot(),
	}
	s.pictures.Each(func(p *stage.Picture) {
		data.Pictures = append(data.Pictures, save.PictureState{Number: p.Number, Name: p.Name, X: p.X, Y: p.Y})
	})
	if name, volume, ok := s.audio.CurrentMusic(); ok {
		data.Music = &save.MusicState{Name: name, Volume: volume}
	}
	if err := s.saves.Save(slot, data); err != nil {
		return err
	}
	if err := s.saves.SavePersistent(s.vars.PersistentSnapshot()); err != nil {
		s.log.Warn("Failed to save persistent variables", "error", err)
	}
	return nil
}

// Load replaces the current state with the one saved in slot. Pictures and
// music that can no longer be loaded are skipped with a warning.
func (s *Session) Load(slot int) error {
	data, err := s.saves.Load(slot)
	if err != nil {
		return err
	}
	if data.Title != "" && data.Title != s.project.Title {
		return fmt.Errorf("slot %d belongs to %q", slot, data.Title)
	}

	in := s.main
	if in == nil || data.Scene != s.scene {
		in, err = s.newInterpreter(data.Scene)
		if err != nil {
			return fmt.Errorf("failed to load slot %d: %w", slot, err)
		}
	}

	s.messages.Reset()
	s.vars.Restore(data.Variables)
	in.Restore(data.Interpreter)
	s.main = in
	s.scene = data.Scene
	s.finished = false

	s.pictures.Clear()
	for _, p := range data.Pictures {
		if err := s.pictures.ShowPicture(p.Number, p.Name, p.X, p.Y); err != nil {
			s.log.Warn("Failed to restore picture", "number", p.Number, "name", p.Name, "error", err)
		}
	}
	if data.Music != nil {
		if err := s.audio.PlayMusic(data.Music.Name, data.Music.Volume); err != nil {
			s.log.Warn("Failed to restore music", "name", data.Music.Name, "error", err)
		}
	} else {
		s.audio.StopMusic()
	}

	s.log.Info("Loaded", "slot", slot, "scene", s.scene, "pointer", in.Pointer())
	return nil
}

// Shutdown stops audio and stores the persistent variables.
func (s *Session) Shutdown() {
	s.audio.Shutdown()
	if err := s.saves.SavePersistent(s.vars.PersistentSnapshot()); err != nil {
		s.log.Warn("Failed to save persistent variables", "error", err)
	}
}

func (s *Session) scriptLog(c *interpreter.Call, args []any) error {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	s.log.Info("Script log", "context", c.ContextID(), "message", strings.Join(parts, " "))
	return nil
}

func (s *Session) scriptSavePersistent(*interpreter.Call, []any) error {
	return s.saves.SavePersistent(s.vars.PersistentSnapshot())
}

// Project returns the running project.
func (s *Session) Project() *scene.Project { return s.project }

// Interpreter returns the scene interpreter, or nil before Start.
func (s *Session) Interpreter() *interpreter.Interpreter { return s.main }

// Scene returns the name of the running scene.
func (s *Session) Scene() string { return s.scene }

// Messages returns the message box.
func (s *Session) Messages() *stage.MessageBox { return s.messages }

// Pictures returns the picture stage.
func (s *Session) Pictures() *stage.Pictures { return s.pictures }

// Audio returns the audio player.
func (s *Session) Audio() *audio.Player { return s.audio }

// Variables returns the variable store.
func (s *Session) Variables() *variables.Store { return s.vars }

// Saves returns the save storage.
func (s *Session) Saves() *save.Manager { return s.saves }

// Finished reports whether the start scene has ended.
func (s *Session) Finished() bool { return s.finished }

// Frames returns the number of frames run.
func (s *Session) Frames() int { return s.frames }
