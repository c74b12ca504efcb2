package interpreter

import (
	"github.com/zurustar/vnplay/pkg/command"
)

// Snapshot is the saved state of an interpreter. A running sub-interpreter is
// not part of it.
type Snapshot struct {
	Pointer     int        `yaml:"pointer"`
	Conditions  []bool     `yaml:"conditions,omitempty"`
	Loops       []int      `yaml:"loops,omitempty"`
	IsWaiting   bool       `yaml:"isWaiting"`
	IsRunning   bool       `yaml:"isRunning"`
	WaitCounter int        `yaml:"waitCounter"`
	WaitingFor  WaitingFor `yaml:"waitingFor,omitempty"`
	Indent      int        `yaml:"indent"`
	Settings    Settings   `yaml:"settings"`
	ContextID   string     `yaml:"contextId"`
}

// Snapshot captures the interpreter state for a save. When the last command
// run was an input command the pointer is moved back onto it and the wait is
// dropped, so loading the save asks for the input again.
func (in *Interpreter) Snapshot() Snapshot {
	s := Snapshot{
		Pointer:     in.pointer,
		Conditions:  in.Conditions(),
		Loops:       in.Loops(),
		IsWaiting:   in.waiting,
		IsRunning:   in.running,
		WaitCounter: in.waitCounter,
		WaitingFor:  in.waitingFor,
		Indent:      in.indent,
		Settings:    in.settings.Clone(),
		ContextID:   in.context.ID,
	}
	if prev := in.pointer - 1; prev >= 0 && prev < in.program.Len() && command.IsInputCommand(in.program.At(prev).ID) {
		s.Pointer = prev
		s.IsWaiting = false
	}
	return s
}

// Restore puts the interpreter back into a saved state. Settings are copied
// into the existing handle. Waits whose completion callback cannot survive a
// reload are released: a pending message is shown again and a pending
// sub-interpreter call resumes the caller on the next frame.
func (in *Interpreter) Restore(s Snapshot) {
	in.pointer = min(max(s.Pointer, 0), in.program.Len())
	in.indent = max(s.Indent, 0)
	in.conditions = append([]bool(nil), s.Conditions...)
	in.loops = append([]int(nil), s.Loops...)
	in.waiting = s.IsWaiting
	in.running = s.IsRunning
	in.waitCounter = max(s.WaitCounter, 0)
	in.waitingFor = s.WaitingFor
	in.waitingForMessage = false
	in.subInterpreter = nil
	in.previewCounter = 0
	*in.settings = s.Settings
	if s.ContextID != "" {
		in.context.Set(s.ContextID, in.context.Owner)
	}

	switch in.waitingFor.Reason {
	case WaitMessage:
		if prev := in.pointer - 1; prev >= 0 && in.program.At(prev).ID == command.ShowMessage {
			in.pointer = prev
		}
		in.waiting = false
		in.waitingFor = WaitingFor{}
	case WaitMessageOwner, WaitInput:
		in.waiting = false
		in.waitingFor = WaitingFor{}
	case WaitSubInterpreter:
		in.waiting = true
		in.waitingFor.Reason = WaitSubFinished
	}
	in.log.Debug("Interpreter restored", "context", in.context.ID, "pointer", in.pointer, "waitingFor", in.waitingFor.String())
}
