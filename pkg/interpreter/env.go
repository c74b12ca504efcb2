package interpreter

import (
	"github.com/zurustar/vnplay/pkg/command"
)

// VariableStore is the part of the variable store the interpreter and its
// handlers use. The interpreter never keeps variable values itself.
type VariableStore interface {
	SetupTempVariables(contextID string)
	ClearTempVariables(contextID string)

	Number(contextID string, ref command.Ref) int
	SetNumber(contextID string, ref command.Ref, value int)
	Boolean(contextID string, ref command.Ref) bool
	SetBoolean(contextID string, ref command.Ref, value bool)
	String(contextID string, ref command.Ref) string
	SetString(contextID string, ref command.Ref, value string)
}

// ProgramSource resolves the programs started by Call Common Event and Call Scene.
type ProgramSource interface {
	CommonEvent(id int) (*command.Program, bool)
	Scene(name string) (*command.Program, error)
}

// MessageUI is the shared message box. Only one context owns it at a time;
// MessageOwner reports that context while a message or input prompt is open.
// The done callbacks may run synchronously (headless hosts) or on a later frame.
type MessageUI interface {
	MessageOwner() (owner string, active bool)
	ShowMessage(owner, speaker, text string, autoAdvance bool, done func())
	InputNumber(owner string, digits int, done func(value int))
	InputText(owner string, maxLength int, done func(value string))
	ShowChoices(owner string, choices []string, done func(index int))
}

// AudioPlayer plays background music and sound effects.
type AudioPlayer interface {
	PlayMusic(name string, volume int) error
	StopMusic()
	PlaySound(name string, volume int) error
}

// Stage holds the numbered pictures shown on screen.
type Stage interface {
	ShowPicture(number int, name string, x, y int) error
	ErasePicture(number int)
}

// ScriptFunc is a host-provided function callable from gs.Script commands.
type ScriptFunc func(c *Call, args []any) error

// Env bundles the collaborators handlers reach through. Any of them may be nil;
// handlers that need a missing collaborator report MISSING_COLLABORATOR and the
// command is skipped.
type Env struct {
	Variables VariableStore
	Programs  ProgramSource
	Messages  MessageUI
	Audio     AudioPlayer
	Stage     Stage
	Scripts   map[string]ScriptFunc
}
