package interpreter

import (
	"sync"

	"github.com/zurustar/vnplay/pkg/command"
)

// HandlerFunc implements one command type.
type HandlerFunc func(c *Call) error

// Call is the context a handler runs with.
type Call struct {
	Interpreter *Interpreter
	Object      any
	Command     *command.Command
	Params      command.Params
	Env         *Env
}

// ContextID returns the id of the calling interpreter's context.
func (c *Call) ContextID() string {
	return c.Interpreter.context.ID
}

// Table maps command tags to handlers. Each tag owns a fixed slot, so an
// interpreter can remember the slot it resolved for a command and skip the
// lookup on later visits.
type Table struct {
	index    map[command.Tag]int
	handlers []HandlerFunc
	mu       sync.RWMutex
}

// NewTable creates an empty dispatch table.
func NewTable() *Table {
	return &Table{
		index: make(map[command.Tag]int),
	}
}

// Register binds a handler to a tag. Registering a tag again replaces the
// handler in its existing slot.
func (t *Table) Register(tag command.Tag, fn HandlerFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slot, ok := t.index[tag]; ok {
		t.handlers[slot] = fn
		return
	}
	t.index[tag] = len(t.handlers)
	t.handlers = append(t.handlers, fn)
}

// Lookup returns the slot bound to a tag.
func (t *Table) Lookup(tag command.Tag) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	slot, ok := t.index[tag]
	return slot, ok
}

// Handler returns the handler in a slot.
func (t *Table) Handler(slot int) HandlerFunc {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handlers[slot]
}

// Len returns the number of registered tags.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}

// Clone returns a copy that can be extended without touching t.
func (t *Table) Clone() *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := &Table{
		index:    make(map[command.Tag]int, len(t.index)),
		handlers: append([]HandlerFunc(nil), t.handlers...),
	}
	for tag, slot := range t.index {
		out.index[tag] = slot
	}
	return out
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// DefaultTable returns the process-wide table holding every built-in handler.
// It is built on first use.
func DefaultTable() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = NewTable()
		registerBuiltins(defaultTable)
	})
	return defaultTable
}

func registerBuiltins(t *Table) {
	// control flow
	t.Register(command.Loop, handleLoop)
	t.Register(command.BreakLoop, handleBreakLoop)
	t.Register(command.Condition, handleCondition)
	t.Register(command.ConditionElse, handleConditionElse)
	t.Register(command.ConditionElseIf, handleConditionElseIf)
	t.Register(command.Label, handleNoop)
	t.Register(command.JumpToLabel, handleJumpToLabel)
	t.Register(command.WaitCommand, handleWait)
	t.Register(command.CallCommonEvent, handleCallCommonEvent)
	t.Register(command.CallScene, handleCallScene)
	t.Register(command.ExitEventProcessing, handleExitEventProcessing)
	t.Register(command.Comment, handleNoop)

	// messages
	t.Register(command.ShowMessage, handleShowMessage)
	t.Register(command.MessageSettings, handleMessageSettings)
	t.Register(command.InputNumber, handleInputNumber)
	t.Register(command.InputText, handleInputText)
	t.Register(command.ShowChoices, handleShowChoices)

	// variables
	t.Register(command.ChangeNumberVariables, handleChangeNumberVariables)
	t.Register(command.ChangeBooleanVariables, handleChangeBooleanVariables)
	t.Register(command.ChangeStringVariables, handleChangeStringVariables)

	// media
	t.Register(command.PlayMusic, handlePlayMusic)
	t.Register(command.StopMusic, handleStopMusic)
	t.Register(command.PlaySound, handlePlaySound)
	t.Register(command.ShowPicture, handleShowPicture)
	t.Register(command.ErasePicture, handleErasePicture)

	t.Register(command.Script, handleScript)
}

// Dispatch slot states kept per command by each interpreter.
const (
	slotUnresolved = 0
	slotUnknown    = -1
)

// resolve returns the handler for the command at index, looking the tag up
// only the first time the command is reached.
func (in *Interpreter) resolve(index int) HandlerFunc {
	if len(in.slots) != in.program.Len() {
		in.slots = make([]int, in.program.Len())
	}
	switch s := in.slots[index]; s {
	case slotUnknown:
		return nil
	case slotUnresolved:
		slot, ok := in.table.Lookup(in.program.At(index).ID)
		if !ok {
			in.slots[index] = slotUnknown
			in.log.Debug("Unknown command skipped", "tag", in.program.At(index).ID, "pointer", index)
			return nil
		}
		in.slots[index] = slot + 1
		return in.table.Handler(slot)
	default:
		return in.table.Handler(s - 1)
	}
}

func handleNoop(*Call) error {
	return nil
}
