// Package command defines the scene command model read by the interpreter.
// A scene or common event is a flat, ordered list of commands; block structure
// (loops, conditions) is encoded by each command's indent instead of nested blocks.
package command

// Tag identifies the type of a command.
// The interpreter maps each Tag to a handler through its dispatch table.
type Tag string

// Command tags understood by the default dispatch table.
const (
	// Loop opens a loop block. The body is the following commands at Indent+1.
	// Params: none
	Loop Tag = "gs.Loop"

	// BreakLoop leaves the innermost open loop.
	// Params: none
	BreakLoop Tag = "gs.BreakLoop"

	// Condition opens a conditional block that runs only if the comparison holds.
	// Params: variable (Ref), valueType ("number"|"boolean"|"string"),
	// operation (0..5 or "=", "!=", ">", ">=", "<", "<="), value (literal or Ref)
	Condition Tag = "gs.Condition"

	// ConditionElse opens the else block of the preceding Condition at the same indent.
	// Params: none
	ConditionElse Tag = "gs.ConditionElse"

	// ConditionElseIf re-evaluates a comparison if no earlier branch matched.
	// Params: same as Condition
	ConditionElseIf Tag = "gs.ConditionElseIf"

	// Label marks a jump target.
	// Params: name string
	Label Tag = "gs.Label"

	// JumpToLabel moves execution to the Label with the given name.
	// Params: name string
	JumpToLabel Tag = "gs.JumpToLabel"

	// WaitCommand suspends execution for a number of frames.
	// Params: time int (frames)
	WaitCommand Tag = "gs.WaitCommand"

	// CallCommonEvent runs a common event in a sub-interpreter.
	// Params: commonEventId int
	CallCommonEvent Tag = "gs.CallCommonEvent"

	// CallScene runs another scene's command list in a sub-interpreter.
	// Params: scene string
	CallScene Tag = "gs.CallScene"

	// ShowMessage displays a line of dialogue and waits until it is acknowledged.
	// Params: character string, message string
	ShowMessage Tag = "gs.ShowMessage"

	// MessageSettings changes the shared message defaults.
	// Params: messageBoxId string, autoAdvance bool, speed int, lineSpacing int
	MessageSettings Tag = "gs.MessageSettings"

	// InputNumber asks the player for a number and stores it.
	// Params: variable (Ref), digits int
	InputNumber Tag = "gs.InputNumber"

	// InputText asks the player for text and stores it.
	// Params: variable (Ref), letters int
	InputText Tag = "gs.InputText"

	// ShowChoices presents choices; the chosen index is stored and/or a label is jumped to.
	// Params: choices []{text, label}, variable (Ref, optional)
	ShowChoices Tag = "gs.ShowChoices"

	// ChangeNumberVariables applies an arithmetic operation to a number variable.
	// Params: target (Ref), operation ("set"|"add"|"sub"|"mul"|"div"|"mod"), value
	ChangeNumberVariables Tag = "gs.ChangeNumberVariables"

	// ChangeBooleanVariables sets or toggles a boolean variable.
	// Params: target (Ref), operation ("set"|"toggle"), value
	ChangeBooleanVariables Tag = "gs.ChangeBooleanVariables"

	// ChangeStringVariables sets or appends to a string variable.
	// Params: target (Ref), operation ("set"|"append"), value
	ChangeStringVariables Tag = "gs.ChangeStringVariables"

	// PlayMusic starts looping background music.
	// Params: name string, volume int (0-100, default 100)
	PlayMusic Tag = "gs.PlayMusic"

	// StopMusic stops background music.
	// Params: none
	StopMusic Tag = "gs.StopMusic"

	// PlaySound plays a one-shot sound effect.
	// Params: name string, volume int (0-100, default 100)
	PlaySound Tag = "gs.PlaySound"

	// ShowPicture shows an image in a numbered picture slot.
	// Params: number int, name string, x int, y int, duration int, waitForCompletion bool
	ShowPicture Tag = "gs.ShowPicture"

	// ErasePicture removes the image in a picture slot.
	// Params: number int
	ErasePicture Tag = "gs.ErasePicture"

	// Script calls a host-registered script function.
	// Params: name string, args list
	Script Tag = "gs.Script"

	// Comment is an authoring note and does nothing.
	Comment Tag = "gs.Comment"

	// ExitEventProcessing ends the current command list immediately.
	ExitEventProcessing Tag = "gs.ExitEventProcessing"
)

// Command is one instruction of a scene script.
// The interpreter only reads ID, Indent and Params; it never writes to a Command.
type Command struct {
	ID     Tag    `yaml:"id"`
	Indent int    `yaml:"indent"`
	Params Params `yaml:"params,omitempty"`
}

// IsInputCommand reports whether the tag collects player input.
// Snapshots taken right after such a command roll back onto it so that
// loading a save re-opens the prompt.
func IsInputCommand(tag Tag) bool {
	switch tag {
	case InputNumber, InputText, ShowChoices:
		return true
	default:
		return false
	}
}
