// Package interpreter runs scene and common event programs.
// It implements a frame-driven execution model with support for:
// - indent-scoped loops and conditions
// - frame-count waits and callback-driven suspension
// - nested sub-interpreters for Call Common Event and Call Scene
// - arbitration of the shared message box between contexts
// - snapshots for save and load
//
// The host calls Update once per frame. Interpreters are not safe for
// concurrent use; all interpreters of a game share the host's frame goroutine.
package interpreter

import (
	"fmt"
	"log/slog"

	"github.com/zurustar/vnplay/pkg/command"
	"github.com/zurustar/vnplay/pkg/logger"
)

// NoLoop marks an indent level with no open loop.
const NoLoop = -1

// Interpreter executes one program.
type Interpreter struct {
	program *command.Program
	table   *Table
	slots   []int // per-command dispatch slot, see resolve

	pointer    int
	indent     int
	conditions []bool
	loops      []int

	running           bool
	waiting           bool
	waitCounter       int
	waitingForMessage bool
	waitingFor        WaitingFor

	context        *Context
	object         any
	subInterpreter *Interpreter
	settings       *Settings
	env            *Env

	repeat   bool
	onFinish func(*Interpreter)

	preview        *Preview
	previewCounter int

	log *slog.Logger
}

// WaitReason tells what a suspended interpreter is waiting for.
type WaitReason string

const (
	WaitNone           WaitReason = ""
	WaitTimer          WaitReason = "timer"
	WaitMessage        WaitReason = "message"
	WaitInput          WaitReason = "input"
	WaitMessageOwner   WaitReason = "messageOwner"
	WaitSubInterpreter WaitReason = "subInterpreter"
	// WaitSubFinished means a sub-interpreter completed within the frame that
	// started it. The caller resumes on its next frame.
	WaitSubFinished WaitReason = "subFinished"
)

// WaitingFor records what the interpreter is suspended on.
type WaitingFor struct {
	Reason WaitReason `yaml:"reason,omitempty"`
	Detail string     `yaml:"detail,omitempty"`
}

// String formats the wait state for logs.
func (w WaitingFor) String() string {
	if w.Detail == "" {
		return string(w.Reason)
	}
	return fmt.Sprintf("%s(%s)", w.Reason, w.Detail)
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(in *Interpreter) {
		in.log = log
	}
}

// WithEnv sets the collaborators handlers use.
func WithEnv(env *Env) Option {
	return func(in *Interpreter) {
		in.env = env
	}
}

// WithContext sets the local-variable namespace.
func WithContext(id string, owner any) Option {
	return func(in *Interpreter) {
		in.context.Set(id, owner)
	}
}

// WithSettings sets the message settings handle.
func WithSettings(s *Settings) Option {
	return func(in *Interpreter) {
		in.settings = s
	}
}

// WithRepeat makes the program restart when it reaches its end.
func WithRepeat(repeat bool) Option {
	return func(in *Interpreter) {
		in.repeat = repeat
	}
}

// WithPreview enables the live-preview behaviour.
func WithPreview(p *Preview) Option {
	return func(in *Interpreter) {
		in.preview = p
	}
}

// WithTable sets the dispatch table. The default is DefaultTable().
func WithTable(t *Table) Option {
	return func(in *Interpreter) {
		in.table = t
	}
}

// WithObject sets the game object handlers receive in Call.Object.
func WithObject(obj any) Option {
	return func(in *Interpreter) {
		in.object = obj
	}
}

// WithOnFinish sets the callback run when the program ends.
func WithOnFinish(fn func(*Interpreter)) Option {
	return func(in *Interpreter) {
		in.onFinish = fn
	}
}

// New creates an interpreter for a program. It does not start it.
func New(program *command.Program, opts ...Option) *Interpreter {
	name := ""
	if program != nil {
		name = program.Name
	}
	in := &Interpreter{
		program: program,
		context: &Context{ID: SceneContextID(name)},
		log:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.table == nil {
		in.table = DefaultTable()
	}
	if in.env == nil {
		in.env = &Env{}
	}
	if in.settings == nil {
		in.settings = DefaultSettings()
	}
	return in
}

// Start rewinds the program and marks the interpreter running.
func (in *Interpreter) Start() {
	in.pointer = 0
	in.indent = 0
	in.conditions = nil
	in.loops = nil
	in.waitCounter = 0
	in.waiting = false
	in.waitingForMessage = false
	in.waitingFor = WaitingFor{}
	in.previewCounter = 0
	in.running = true
}

// Stop pauses execution without touching the position.
func (in *Interpreter) Stop() {
	in.running = false
}

// Resume continues after Stop.
func (in *Interpreter) Resume() {
	in.running = true
}

// Update runs one frame of the program.
func (in *Interpreter) Update() {
	if in.subInterpreter != nil {
		in.subInterpreter.Update()
		return
	}
	if in.waitingFor.Reason == WaitSubFinished {
		in.waiting = false
		in.waitingFor = WaitingFor{}
	}

	if in.env.Variables != nil {
		in.env.Variables.SetupTempVariables(in.context.ID)
	}

	if in.checkEnd() {
		return
	}
	if !in.running {
		return
	}

	if !in.program.Optimized() {
		in.program.Optimize()
	}

	if in.waitCounter > 0 {
		in.waitCounter--
		in.waiting = in.waitCounter > 0
		if !in.waiting && in.waitingFor.Reason == WaitTimer {
			in.waitingFor = WaitingFor{}
		}
		return
	}

	if in.waitingForMessage {
		in.waiting = true
		if in.IsProcessingMessageInOtherContext() {
			return
		}
		in.waiting = false
		in.waitingForMessage = false
		in.waitingFor = WaitingFor{}
	}

	for !in.waiting && !in.preview.paused() && in.pointer < in.program.Len() && in.running {
		in.ExecuteCommand()
		if in.preview.enabled() {
			in.previewCounter++
			if in.previewCounter >= PreviewBudget {
				in.log.Debug("Preview budget reached, yielding one frame", "context", in.context.ID, "pointer", in.pointer)
				in.waiting = true
				in.waitCounter = 1
				in.previewCounter = 0
			}
		}
	}

	in.checkEnd()
}

// checkEnd handles reaching the end of the program. It reports whether
// Update must return.
func (in *Interpreter) checkEnd() bool {
	if in.pointer < in.program.Len() || in.waiting {
		return false
	}
	if in.repeat {
		in.Start()
		return false
	}
	if in.running {
		in.running = false
		in.log.Debug("Program finished", "context", in.context.ID)
		if in.onFinish != nil {
			in.onFinish(in)
		}
		return true
	}
	return false
}

// ExecuteCommand runs the command at the pointer if its indent matches the
// current indent, then advances the pointer and closes any block the next
// command falls outside of.
func (in *Interpreter) ExecuteCommand() {
	index := in.pointer
	cmd := in.program.At(index)
	fn := in.resolve(index)

	if fn != nil && cmd.Indent == in.indent {
		call := &Call{
			Interpreter: in,
			Object:      in.object,
			Command:     cmd,
			Params:      cmd.Params,
			Env:         in.env,
		}
		if err := fn(call); err != nil {
			in.log.Warn("Command failed, continuing", "context", in.context.ID, "tag", cmd.ID, "pointer", index, "error", err)
		}
	}

	// Exit leaves the pointer at the end already.
	if in.pointer < in.program.Len() {
		in.pointer++
	}

	next := in.nextIndent()
	if next < in.indent {
		in.indent = next
		if start := in.loopAt(next); start != NoLoop {
			in.pointer = start
		}
	}
}

// nextIndent returns the indent of the command at the pointer. Past the end
// it returns the deepest indent at or below the current one that has an open
// loop, so leaving a loop body by running out of commands closes it like any
// other block.
func (in *Interpreter) nextIndent() int {
	if in.pointer < in.program.Len() {
		return in.program.At(in.pointer).Indent
	}
	for d := in.indent; d >= 0; d-- {
		if in.loopAt(d) != NoLoop {
			return d
		}
	}
	return 0
}

func (in *Interpreter) loopAt(depth int) int {
	if depth < 0 || depth >= len(in.loops) {
		return NoLoop
	}
	return in.loops[depth]
}

func (in *Interpreter) setLoop(depth, start int) {
	for len(in.loops) <= depth {
		in.loops = append(in.loops, NoLoop)
	}
	in.loops[depth] = start
}

func (in *Interpreter) conditionAt(depth int) bool {
	if depth < 0 || depth >= len(in.conditions) {
		return false
	}
	return in.conditions[depth]
}

func (in *Interpreter) setCondition(depth int, value bool) {
	for len(in.conditions) <= depth {
		in.conditions = append(in.conditions, false)
	}
	in.conditions[depth] = value
}

// Wait suspends the interpreter for the given number of frames.
// Non-positive counts and preview data mode leave it running.
func (in *Interpreter) Wait(frames int) {
	if frames <= 0 || in.preview.skipWaits() {
		return
	}
	in.waitCounter = frames
	in.waiting = true
	in.waitingFor = WaitingFor{Reason: WaitTimer}
}

// SetWaiting sets the suspend flag. Completion callbacks call SetWaiting(false).
func (in *Interpreter) SetWaiting(waiting bool) {
	in.waiting = waiting
	if !waiting {
		in.waitingFor = WaitingFor{}
	}
}

// JumpToLabel moves the pointer to the named label and cancels any pending
// wait. It reports false and changes nothing when the label does not exist.
func (in *Interpreter) JumpToLabel(name string) bool {
	index, ok := in.program.LabelIndex(name)
	if !ok {
		index, ok = in.program.FindLabel(name)
	}
	if !ok {
		return false
	}
	in.pointer = index
	in.indent = in.program.At(index).Indent
	for d := in.indent; d < len(in.loops); d++ {
		in.loops[d] = NoLoop
	}
	in.waitCounter = 0
	in.waiting = false
	in.waitingFor = WaitingFor{}
	return true
}

// Exit moves the pointer to the end of the program and drops every open block.
func (in *Interpreter) Exit() {
	in.loops = nil
	in.indent = 0
	in.pointer = in.program.Len()
}

// IsRunning reports whether the interpreter is running.
func (in *Interpreter) IsRunning() bool { return in.running }

// IsWaiting reports whether the interpreter is suspended.
func (in *Interpreter) IsWaiting() bool { return in.waiting }

// Pointer returns the index of the next command to execute.
func (in *Interpreter) Pointer() int { return in.pointer }

// Indent returns the current nesting depth.
func (in *Interpreter) Indent() int { return in.indent }

// WaitCounter returns the remaining frames of a Wait.
func (in *Interpreter) WaitCounter() int { return in.waitCounter }

// IsWaitingForMessage reports whether the interpreter is polling for the message box.
func (in *Interpreter) IsWaitingForMessage() bool { return in.waitingForMessage }

// WaitingFor returns what the interpreter is suspended on.
func (in *Interpreter) WaitingFor() WaitingFor { return in.waitingFor }

// SubInterpreter returns the active sub-interpreter, or nil.
func (in *Interpreter) SubInterpreter() *Interpreter { return in.subInterpreter }

// Context returns the execution context.
func (in *Interpreter) Context() *Context { return in.context }

// Settings returns the shared settings handle.
func (in *Interpreter) Settings() *Settings { return in.settings }

// Program returns the program being executed.
func (in *Interpreter) Program() *command.Program { return in.program }

// Env returns the collaborators.
func (in *Interpreter) Env() *Env { return in.env }

// SetOnFinish sets the callback run when the program ends.
func (in *Interpreter) SetOnFinish(fn func(*Interpreter)) { in.onFinish = fn }

// SetRepeat sets whether the program restarts at its end.
func (in *Interpreter) SetRepeat(repeat bool) { in.repeat = repeat }

// Conditions returns a copy of the condition stack.
func (in *Interpreter) Conditions() []bool {
	return append([]bool(nil), in.conditions...)
}

// Loops returns a copy of the loop stack. NoLoop marks depths without a loop.
func (in *Interpreter) Loops() []int {
	return append([]int(nil), in.loops...)
}
