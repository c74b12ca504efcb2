package interpreter

import (
	"fmt"

	"github.com/zurustar/vnplay/pkg/command"
)

// ErrorType represents the kind of failure a command handler reports.
type ErrorType string

const (
	ErrorInvalidParams       ErrorType = "INVALID_PARAMS"
	ErrorMissingCollaborator ErrorType = "MISSING_COLLABORATOR"
	ErrorResourceFailed      ErrorType = "RESOURCE_FAILED"
	ErrorScriptFailed        ErrorType = "SCRIPT_FAILED"
	ErrorDivisionByZero      ErrorType = "DIVISION_BY_ZERO"
)

// CommandError is returned by command handlers. The interpreter logs it and
// moves on to the next command; none of these errors stop execution.
type CommandError struct {
	Type    ErrorType
	Tag     command.Tag
	Pointer int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("[%s] %s at %s (pointer %d)", e.Type, e.Message, e.Tag, e.Pointer)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

func newCommandError(c *Call, errType ErrorType, message string, err error) *CommandError {
	return &CommandError{
		Type:    errType,
		Tag:     c.Command.ID,
		Pointer: c.Interpreter.pointer,
		Message: message,
		Err:     err,
	}
}
