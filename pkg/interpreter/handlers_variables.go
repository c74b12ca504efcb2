package interpreter

import (
	"fmt"
	"strings"

	"github.com/zurustar/vnplay/pkg/command"
)

// Variable operations, in the order scene data numbers them.
var numberOperations = []string{"set", "add", "sub", "mul", "div", "mod"}

func parseOperation(v any, names []string, def string) string {
	if s, ok := v.(string); ok {
		return strings.ToLower(s)
	}
	if n, ok := command.ToInt(v); ok && n >= 0 && n < len(names) {
		return names[n]
	}
	return def
}

func variableTarget(c *Call) (command.Ref, error) {
	if c.Env.Variables == nil {
		return command.Ref{}, newCommandError(c, ErrorMissingCollaborator, "no variable store", nil)
	}
	ref, ok := c.Params.VariableRef("target")
	if !ok {
		return command.Ref{}, newCommandError(c, ErrorInvalidParams, "missing target variable", nil)
	}
	return ref, nil
}

func handleChangeNumberVariables(c *Call) error {
	ref, err := variableTarget(c)
	if err != nil {
		return err
	}
	value, _ := c.Params.Value("value")
	operand := c.numberValue(value)
	store := c.Env.Variables
	current := store.Number(c.ContextID(), ref)

	var result int
	switch op := parseOperation(c.Params["operation"], numberOperations, "set"); op {
	case "set":
		result = operand
	case "add":
		result = current + operand
	case "sub":
		result = current - operand
	case "mul":
		result = current * operand
	case "div", "mod":
		if operand == 0 {
			return newCommandError(c, ErrorDivisionByZero, fmt.Sprintf("%s by zero", op), nil)
		}
		if op == "div" {
			result = current / operand
		} else {
			result = current % operand
		}
	default:
		return newCommandError(c, ErrorInvalidParams, fmt.Sprintf("unknown operation %q", op), nil)
	}
	store.SetNumber(c.ContextID(), ref, result)
	return nil
}

func handleChangeBooleanVariables(c *Call) error {
	ref, err := variableTarget(c)
	if err != nil {
		return err
	}
	store := c.Env.Variables
	switch op := parseOperation(c.Params["operation"], []string{"set", "toggle"}, "set"); op {
	case "set":
		value, _ := c.Params.Value("value")
		store.SetBoolean(c.ContextID(), ref, c.boolValue(value))
	case "toggle":
		store.SetBoolean(c.ContextID(), ref, !store.Boolean(c.ContextID(), ref))
	default:
		return newCommandError(c, ErrorInvalidParams, fmt.Sprintf("unknown operation %q", op), nil)
	}
	return nil
}

func handleChangeStringVariables(c *Call) error {
	ref, err := variableTarget(c)
	if err != nil {
		return err
	}
	store := c.Env.Variables
	value, _ := c.Params.Value("value")
	operand := c.stringValue(value)
	switch op := parseOperation(c.Params["operation"], []string{"set", "append"}, "set"); op {
	case "set":
		store.SetString(c.ContextID(), ref, operand)
	case "append":
		store.SetString(c.ContextID(), ref, store.String(c.ContextID(), ref)+operand)
	default:
		return newCommandError(c, ErrorInvalidParams, fmt.Sprintf("unknown operation %q", op), nil)
	}
	return nil
}
