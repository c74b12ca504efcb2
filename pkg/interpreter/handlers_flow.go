package interpreter

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/zurustar/vnplay/pkg/command"
)

// handleLoop records the loop start at the current depth and enters the body.
// The loop command runs again on every iteration.
func handleLoop(c *Call) error {
	in := c.Interpreter
	in.setLoop(in.indent, in.pointer)
	in.indent++
	return nil
}

// handleBreakLoop closes the nearest enclosing loop. The body commands left
// over are skipped by the indent gate.
func handleBreakLoop(c *Call) error {
	in := c.Interpreter
	for d := in.indent; d >= 0; d-- {
		if in.loopAt(d) != NoLoop {
			in.loops[d] = NoLoop
			in.indent = d
			return nil
		}
	}
	return nil
}

func handleCondition(c *Call) error {
	in := c.Interpreter
	result, err := evaluateCondition(c)
	in.setCondition(in.indent, result)
	if result {
		in.indent++
	}
	return err
}

func handleConditionElse(c *Call) error {
	in := c.Interpreter
	if !in.conditionAt(in.indent) {
		in.indent++
	}
	return nil
}

func handleConditionElseIf(c *Call) error {
	if c.Interpreter.conditionAt(c.Interpreter.indent) {
		return nil
	}
	return handleCondition(c)
}

// handleJumpToLabel jumps to a label. An unknown label is ignored.
func handleJumpToLabel(c *Call) error {
	name := c.Params.String("name", "")
	if !c.Interpreter.JumpToLabel(name) {
		c.Interpreter.log.Debug("Label not found, jump ignored", "label", name, "pointer", c.Interpreter.pointer)
	}
	return nil
}

func handleWait(c *Call) error {
	c.Interpreter.Wait(c.Params.Int("time", 0))
	return nil
}

func handleExitEventProcessing(c *Call) error {
	c.Interpreter.Exit()
	return nil
}

func handleCallCommonEvent(c *Call) error {
	if c.Env.Programs == nil {
		return newCommandError(c, ErrorMissingCollaborator, "no program source", nil)
	}
	id := c.Params.Int("commonEventId", -1)
	program, ok := c.Env.Programs.CommonEvent(id)
	if !ok {
		return newCommandError(c, ErrorInvalidParams, fmt.Sprintf("common event %d not found", id), nil)
	}
	c.Interpreter.callSub(program, CommonEventContextID(id))
	return nil
}

func handleCallScene(c *Call) error {
	if c.Env.Programs == nil {
		return newCommandError(c, ErrorMissingCollaborator, "no program source", nil)
	}
	name := c.Params.String("scene", "")
	program, err := c.Env.Programs.Scene(name)
	if err != nil {
		return newCommandError(c, ErrorResourceFailed, fmt.Sprintf("scene %q not loaded", name), err)
	}
	c.Interpreter.callSub(program, SceneContextID(name))
	return nil
}

// callSub runs a program in a sub-interpreter. The child gets one frame
// immediately; the caller stays suspended at least until its next frame even
// when the child is already done.
func (in *Interpreter) callSub(program *command.Program, contextID string) {
	child := New(program,
		WithLogger(in.log),
		WithEnv(in.env),
		WithContext(contextID, in.object),
		WithObject(in.object),
		WithSettings(in.settings.Share()),
		WithTable(in.table),
		WithPreview(in.preview),
		WithOnFinish(func(child *Interpreter) {
			in.subInterpreter = nil
			in.waiting = false
			in.waitingFor = WaitingFor{}
			if in.env.Variables != nil {
				in.env.Variables.ClearTempVariables(child.context.ID)
			}
		}),
	)

	in.subInterpreter = child
	in.waitingFor = WaitingFor{Reason: WaitSubInterpreter, Detail: contextID}
	in.log.Debug("Sub-interpreter started", "parent", in.context.ID, "child", contextID)

	child.Start()
	child.Update()

	in.waiting = true
	if in.subInterpreter == nil {
		in.waitingFor = WaitingFor{Reason: WaitSubFinished, Detail: contextID}
	}
}

// Condition operators, in the order scene data numbers them.
const (
	opEqual = iota
	opNotEqual
	opGreater
	opGreaterEqual
	opLess
	opLessEqual
)

var operatorSymbols = map[string]int{
	"=": opEqual, "==": opEqual,
	"≠": opNotEqual, "!=": opNotEqual, "<>": opNotEqual,
	">": opGreater,
	"≥": opGreaterEqual, ">=": opGreaterEqual,
	"<": opLess,
	"≤": opLessEqual, "<=": opLessEqual,
}

func parseOperator(v any) (int, bool) {
	if s, ok := v.(string); ok {
		if op, ok := operatorSymbols[strings.TrimSpace(s)]; ok {
			return op, true
		}
	}
	op, ok := command.ToInt(v)
	if !ok || op < opEqual || op > opLessEqual {
		return 0, false
	}
	return op, true
}

func compare[T cmp.Ordered](a, b T, op int) bool {
	r := cmp.Compare(a, b)
	switch op {
	case opEqual:
		return r == 0
	case opNotEqual:
		return r != 0
	case opGreater:
		return r > 0
	case opGreaterEqual:
		return r >= 0
	case opLess:
		return r < 0
	case opLessEqual:
		return r <= 0
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// evaluateCondition compares a variable with a constant or a second variable.
// Params: variable, valueType (number, boolean, string), operation, value.
// A malformed condition evaluates to false.
func evaluateCondition(c *Call) (bool, error) {
	if c.Env.Variables == nil {
		return false, newCommandError(c, ErrorMissingCollaborator, "no variable store", nil)
	}
	ref, ok := c.Params.VariableRef("variable")
	if !ok {
		return false, newCommandError(c, ErrorInvalidParams, "condition without variable", nil)
	}
	op, ok := parseOperator(c.Params["operation"])
	if !ok {
		return false, newCommandError(c, ErrorInvalidParams, fmt.Sprintf("unknown operator %v", c.Params["operation"]), nil)
	}
	value, _ := c.Params.Value("value")

	switch valueType(c.Params["valueType"]) {
	case "boolean":
		a := c.Env.Variables.Boolean(c.ContextID(), ref)
		b := c.boolValue(value)
		return compare(boolToInt(a), boolToInt(b), op), nil
	case "string":
		a := c.Env.Variables.String(c.ContextID(), ref)
		return compare(a, c.stringValue(value), op), nil
	default:
		a := c.Env.Variables.Number(c.ContextID(), ref)
		return compare(a, c.numberValue(value), op), nil
	}
}

func valueType(v any) string {
	switch t := v.(type) {
	case string:
		return strings.ToLower(t)
	case nil:
		return "number"
	}
	n, _ := command.ToInt(v)
	switch n {
	case 1:
		return "boolean"
	case 2:
		return "string"
	default:
		return "number"
	}
}

func (c *Call) numberValue(v command.Value) int {
	if v.IsRef() {
		return c.Env.Variables.Number(c.ContextID(), *v.Ref)
	}
	n, _ := command.ToInt(v.Literal)
	return n
}

func (c *Call) boolValue(v command.Value) bool {
	if v.IsRef() {
		return c.Env.Variables.Boolean(c.ContextID(), *v.Ref)
	}
	return command.Params{"v": v.Literal}.Bool("v", false)
}

func (c *Call) stringValue(v command.Value) string {
	if v.IsRef() {
		return c.Env.Variables.String(c.ContextID(), *v.Ref)
	}
	return command.Params{"v": v.Literal}.String("v", "")
}
