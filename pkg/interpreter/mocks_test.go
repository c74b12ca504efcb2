package interpreter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/zurustar/vnplay/pkg/command"
	"github.com/zurustar/vnplay/pkg/variables"
)

// markTag is a test-only command that records every execution.
const markTag command.Tag = "test.Mark"

type recorder struct {
	pointers []int
	names    []string
}

func (r *recorder) count(name string) int {
	n := 0
	for _, got := range r.names {
		if got == name {
			n++
		}
	}
	return n
}

func newTestTable(r *recorder) *Table {
	t := DefaultTable().Clone()
	t.Register(markTag, func(c *Call) error {
		r.pointers = append(r.pointers, c.Interpreter.Pointer())
		r.names = append(r.names, c.Params.String("name", ""))
		return nil
	})
	return t
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mark(name string, indent int) command.Command {
	return command.Command{ID: markTag, Indent: indent, Params: command.Params{"name": name}}
}

func cmd(tag command.Tag, indent int, params command.Params) command.Command {
	return command.Command{ID: tag, Indent: indent, Params: params}
}

func globalRef(index int) map[string]any {
	return map[string]any{"scope": variables.ScopeGlobal, "index": index}
}

func condition(indent, index int, op string, value any) command.Command {
	return cmd(command.Condition, indent, command.Params{
		"variable":  globalRef(index),
		"valueType": "number",
		"operation": op,
		"value":     value,
	})
}

// testRig bundles an interpreter with the fakes behind it.
type testRig struct {
	in       *Interpreter
	rec      *recorder
	store    *variables.Store
	messages *fakeMessages
	programs *fakePrograms
	audio    *fakeAudio
	stage    *fakeStage
	env      *Env
	finished int
}

func newRig(cmds []command.Command, opts ...Option) *testRig {
	rig := &testRig{
		rec:      &recorder{},
		store:    variables.NewStore(),
		messages: &fakeMessages{},
		programs: &fakePrograms{events: map[int]*command.Program{}, scenes: map[string]*command.Program{}},
		audio:    &fakeAudio{},
		stage:    &fakeStage{pictures: map[int]string{}},
	}
	rig.env = &Env{
		Variables: rig.store,
		Programs:  rig.programs,
		Messages:  rig.messages,
		Audio:     rig.audio,
		Stage:     rig.stage,
		Scripts:   map[string]ScriptFunc{},
	}
	base := []Option{
		WithLogger(discardLogger()),
		WithEnv(rig.env),
		WithTable(newTestTable(rig.rec)),
		WithOnFinish(func(*Interpreter) { rig.finished++ }),
	}
	rig.in = New(command.NewProgram("test", cmds), append(base, opts...)...)
	return rig
}

func (r *testRig) number(index int) int {
	return r.store.Number("", command.Ref{Scope: variables.ScopeGlobal, Index: index})
}

func (r *testRig) setNumber(index, value int) {
	r.store.SetNumber("", command.Ref{Scope: variables.ScopeGlobal, Index: index}, value)
}

// fakeMessages is a message box whose prompts stay open until the test
// answers them, unless autoAnswer is set.
type fakeMessages struct {
	owner  string
	active bool

	autoAnswer bool

	shown   []string
	prompts []string

	pendingDone   func()
	pendingNumber func(int)
	pendingText   func(string)
	pendingChoice func(int)
}

func (m *fakeMessages) MessageOwner() (string, bool) {
	return m.owner, m.active
}

func (m *fakeMessages) ShowMessage(owner, speaker, text string, autoAdvance bool, done func()) {
	m.shown = append(m.shown, fmt.Sprintf("%s: %s", speaker, text))
	if m.autoAnswer || autoAdvance {
		done()
		return
	}
	m.owner, m.active = owner, true
	m.pendingDone = func() {
		m.active = false
		done()
	}
}

func (m *fakeMessages) InputNumber(owner string, digits int, done func(int)) {
	m.prompts = append(m.prompts, fmt.Sprintf("%s number(%d)", owner, digits))
	if m.autoAnswer {
		done(0)
		return
	}
	m.owner, m.active = owner, true
	m.pendingNumber = func(v int) {
		m.active = false
		done(v)
	}
}

func (m *fakeMessages) InputText(owner string, maxLength int, done func(string)) {
	m.prompts = append(m.prompts, fmt.Sprintf("%s text(%d)", owner, maxLength))
	if m.autoAnswer {
		done("")
		return
	}
	m.owner, m.active = owner, true
	m.pendingText = func(v string) {
		m.active = false
		done(v)
	}
}

func (m *fakeMessages) ShowChoices(owner string, choices []string, done func(int)) {
	m.prompts = append(m.prompts, fmt.Sprintf("%s choices%v", owner, choices))
	if m.autoAnswer {
		done(0)
		return
	}
	m.owner, m.active = owner, true
	m.pendingChoice = func(i int) {
		m.active = false
		done(i)
	}
}

type fakePrograms struct {
	events map[int]*command.Program
	scenes map[string]*command.Program
}

func (p *fakePrograms) CommonEvent(id int) (*command.Program, bool) {
	prog, ok := p.events[id]
	return prog, ok
}

func (p *fakePrograms) Scene(name string) (*command.Program, error) {
	prog, ok := p.scenes[name]
	if !ok {
		return nil, fmt.Errorf("scene %q not found", name)
	}
	return prog, nil
}

type fakeAudio struct {
	music  string
	sounds []string
	fail   bool
}

func (a *fakeAudio) PlayMusic(name string, volume int) error {
	if a.fail {
		return fmt.Errorf("cannot open %s", name)
	}
	a.music = name
	return nil
}

func (a *fakeAudio) StopMusic() {
	a.music = ""
}

func (a *fakeAudio) PlaySound(name string, volume int) error {
	if a.fail {
		return fmt.Errorf("cannot open %s", name)
	}
	a.sounds = append(a.sounds, name)
	return nil
}

type fakeStage struct {
	pictures map[int]string
}

func (s *fakeStage) ShowPicture(number int, name string, x, y int) error {
	s.pictures[number] = name
	return nil
}

func (s *fakeStage) ErasePicture(number int) {
	delete(s.pictures, number)
}
