package interpreter

import (
	"github.com/zurustar/vnplay/pkg/command"
)

// IsProcessingMessageInOtherContext reports whether another context owns the
// shared message box right now.
func (in *Interpreter) IsProcessingMessageInOtherContext() bool {
	if in.env.Messages == nil {
		return false
	}
	owner, active := in.env.Messages.MessageOwner()
	return active && owner != in.context.ID
}

// WaitForMessage suspends the interpreter and rewinds the pointer so the
// current command runs again once the message box is free. Update polls the
// owner once per frame.
func (in *Interpreter) WaitForMessage() {
	in.waitingForMessage = true
	in.waiting = true
	in.waitingFor = WaitingFor{Reason: WaitMessageOwner}
	in.pointer--
}

func handleShowMessage(c *Call) error {
	in := c.Interpreter
	if c.Env.Messages == nil {
		return newCommandError(c, ErrorMissingCollaborator, "no message box", nil)
	}
	if in.IsProcessingMessageInOtherContext() {
		in.WaitForMessage()
		return nil
	}

	in.waiting = true
	in.waitingFor = WaitingFor{Reason: WaitMessage}
	c.Env.Messages.ShowMessage(
		c.ContextID(),
		c.Params.String("character", ""),
		c.Params.String("message", ""),
		in.settings.AutoAdvance,
		func() { in.SetWaiting(false) },
	)
	return nil
}

// handleMessageSettings updates the shared settings. Absent params keep
// their current value.
func handleMessageSettings(c *Call) error {
	s := c.Interpreter.settings
	s.MessageBoxID = c.Params.String("messageBoxId", s.MessageBoxID)
	s.AutoAdvance = c.Params.Bool("autoAdvance", s.AutoAdvance)
	s.MessageSpeed = c.Params.Int("speed", s.MessageSpeed)
	s.LineSpacing = c.Params.Int("lineSpacing", s.LineSpacing)
	return nil
}

// beginInput runs the ownership check shared by every input command. It
// reports whether the command may open its prompt now.
func beginInput(c *Call) (bool, error) {
	in := c.Interpreter
	if c.Env.Messages == nil {
		return false, newCommandError(c, ErrorMissingCollaborator, "no message box", nil)
	}
	if in.IsProcessingMessageInOtherContext() {
		in.WaitForMessage()
		return false, nil
	}
	in.waiting = true
	in.waitingFor = WaitingFor{Reason: WaitInput, Detail: string(c.Command.ID)}
	return true, nil
}

func handleInputNumber(c *Call) error {
	ok, err := beginInput(c)
	if !ok {
		return err
	}
	in := c.Interpreter
	ref, hasRef := c.Params.VariableRef("variable")
	c.Env.Messages.InputNumber(c.ContextID(), c.Params.Int("digits", 1), func(value int) {
		if hasRef && c.Env.Variables != nil {
			c.Env.Variables.SetNumber(c.ContextID(), ref, value)
		}
		in.SetWaiting(false)
	})
	return nil
}

func handleInputText(c *Call) error {
	ok, err := beginInput(c)
	if !ok {
		return err
	}
	in := c.Interpreter
	ref, hasRef := c.Params.VariableRef("variable")
	c.Env.Messages.InputText(c.ContextID(), c.Params.Int("letters", 0), func(value string) {
		if hasRef && c.Env.Variables != nil {
			c.Env.Variables.SetString(c.ContextID(), ref, value)
		}
		in.SetWaiting(false)
	})
	return nil
}

type choice struct {
	text  string
	label string
}

func parseChoices(list []any) []choice {
	out := make([]choice, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			out = append(out, choice{text: v})
		default:
			p := command.Params{"c": v}
			m, ok := p.Map("c")
			if !ok {
				continue
			}
			out = append(out, choice{text: m.String("text", ""), label: m.String("label", "")})
		}
	}
	return out
}

// handleShowChoices asks the player to pick one choice. The chosen index is
// stored in the optional variable; a choice with a label jumps there.
func handleShowChoices(c *Call) error {
	choices := parseChoices(c.Params.List("choices"))
	if len(choices) == 0 {
		return newCommandError(c, ErrorInvalidParams, "no choices", nil)
	}
	ok, err := beginInput(c)
	if !ok {
		return err
	}
	in := c.Interpreter
	ref, hasRef := c.Params.VariableRef("variable")
	texts := make([]string, len(choices))
	for i, ch := range choices {
		texts[i] = ch.text
	}
	c.Env.Messages.ShowChoices(c.ContextID(), texts, func(index int) {
		if hasRef && c.Env.Variables != nil {
			c.Env.Variables.SetNumber(c.ContextID(), ref, index)
		}
		if index >= 0 && index < len(choices) && choices[index].label != "" {
			if in.JumpToLabel(choices[index].label) {
				return
			}
			in.log.Warn("Choice label not found", "label", choices[index].label, "context", in.context.ID)
		}
		in.SetWaiting(false)
	})
	return nil
}
