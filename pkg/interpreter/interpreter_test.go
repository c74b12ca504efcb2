package interpreter

import (
	"reflect"
	"testing"

	"github.com/zurustar/vnplay/pkg/command"
)

func TestStraightLineExecution(t *testing.T) {
	rig := newRig([]command.Command{mark("a", 0), mark("b", 0), mark("c", 0)})
	rig.in.Start()
	rig.in.Update()

	if !reflect.DeepEqual(rig.rec.pointers, []int{0, 1, 2}) {
		t.Errorf("executed pointers = %v, want [0 1 2]", rig.rec.pointers)
	}
	if rig.in.Pointer() != 3 {
		t.Errorf("Pointer() = %d, want 3", rig.in.Pointer())
	}
	if rig.in.IsRunning() {
		t.Error("interpreter should stop at the end of the list")
	}
	if rig.finished != 1 {
		t.Errorf("onFinish called %d times, want 1", rig.finished)
	}

	rig.in.Update()
	rig.in.Update()
	if rig.finished != 1 {
		t.Errorf("onFinish called again after finishing: %d", rig.finished)
	}
	if len(rig.rec.pointers) != 3 {
		t.Errorf("commands re-executed after finishing: %v", rig.rec.pointers)
	}
}

func TestUpdateBeforeStartDoesNothing(t *testing.T) {
	rig := newRig([]command.Command{mark("a", 0)})
	rig.in.Update()
	if len(rig.rec.names) != 0 || rig.finished != 0 {
		t.Errorf("not started interpreter executed %v, finished %d", rig.rec.names, rig.finished)
	}
}

func TestEmptyProgramFinishes(t *testing.T) {
	rig := newRig(nil)
	rig.in.Start()
	rig.in.Update()
	if rig.in.IsRunning() || rig.finished != 1 {
		t.Errorf("empty program: running=%v finished=%d", rig.in.IsRunning(), rig.finished)
	}
}

func TestLoopReentry(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.Loop, 0, nil),
		mark("body", 1),
		cmd(command.WaitCommand, 1, command.Params{"time": 1}),
		condition(1, 0, "=", 99),
		cmd(command.BreakLoop, 2, nil),
		mark("after", 0),
	})
	rig.in.Start()
	rig.in.Update()

	if rig.in.Pointer() != 3 || rig.rec.count("body") != 1 {
		t.Fatalf("first frame: pointer=%d body=%d", rig.in.Pointer(), rig.rec.count("body"))
	}

	for i := 0; i < 3; i++ {
		rig.in.Update() // wait frame
		rig.in.Update() // condition fails, loop re-entered up to the wait
		if rig.in.Pointer() != 3 {
			t.Errorf("iteration %d: pointer = %d, want 3", i, rig.in.Pointer())
		}
		if loops := rig.in.Loops(); len(loops) == 0 || loops[0] != 0 {
			t.Errorf("iteration %d: loops = %v, want loops[0] == 0", i, loops)
		}
		if got := rig.rec.count("body"); got != i+2 {
			t.Errorf("iteration %d: body executed %d times, want %d", i, got, i+2)
		}
	}
	for _, p := range rig.rec.pointers {
		if p != 1 {
			t.Errorf("body ran at pointer %d, want 1", p)
		}
	}

	rig.setNumber(0, 99)
	rig.in.Update()
	rig.in.Update()

	if rig.rec.count("after") != 1 {
		t.Errorf("loop did not break: %v", rig.rec.names)
	}
	if loops := rig.in.Loops(); loops[0] != NoLoop {
		t.Errorf("loops[0] = %d after break, want NoLoop", loops[0])
	}
	if rig.in.IsRunning() {
		t.Error("program should have finished")
	}
}

func TestLoopFallsOffEnd(t *testing.T) {
	rig := newRig([]command.Command{
		mark("a", 0),
		cmd(command.Loop, 0, nil),
		mark("b", 1),
		condition(1, 0, ">=", 3),
		cmd(command.BreakLoop, 2, nil),
		cmd(command.ChangeNumberVariables, 1, command.Params{
			"target": globalRef(0), "operation": "add", "value": 1,
		}),
	})
	rig.in.Start()
	rig.in.Update()

	if got := rig.number(0); got != 3 {
		t.Errorf("counter = %d, want 3", got)
	}
	if got := rig.rec.count("b"); got != 4 {
		t.Errorf("body executed %d times, want 4", got)
	}
	if rig.rec.count("a") != 1 {
		t.Errorf("command before the loop re-executed: %v", rig.rec.names)
	}
	if rig.in.IsRunning() || rig.in.Indent() != 0 {
		t.Errorf("running=%v indent=%d, want finished at indent 0", rig.in.IsRunning(), rig.in.Indent())
	}
}

func TestNestedBreakLoop(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.Loop, 0, nil),
		cmd(command.Loop, 1, nil),
		mark("inner", 2),
		cmd(command.BreakLoop, 2, nil),
		mark("outer", 1),
		cmd(command.BreakLoop, 1, nil),
		mark("end", 0),
	})
	rig.in.Start()
	rig.in.Update()

	if want := []string{"inner", "outer", "end"}; !reflect.DeepEqual(rig.rec.names, want) {
		t.Errorf("executed %v, want %v", rig.rec.names, want)
	}
}

func TestConditionalSkip(t *testing.T) {
	program := func() []command.Command {
		return []command.Command{
			condition(0, 0, "=", 1),
			mark("then", 1),
			cmd(command.ConditionElse, 0, nil),
			mark("else", 1),
			mark("end", 0),
		}
	}

	t.Run("false branch", func(t *testing.T) {
		rig := newRig(program())
		rig.in.Start()
		rig.in.Update()
		if want := []string{"else", "end"}; !reflect.DeepEqual(rig.rec.names, want) {
			t.Errorf("executed %v, want %v", rig.rec.names, want)
		}
		if rig.in.Indent() != 0 {
			t.Errorf("Indent() = %d, want 0", rig.in.Indent())
		}
	})

	t.Run("true branch", func(t *testing.T) {
		rig := newRig(program())
		rig.setNumber(0, 1)
		rig.in.Start()
		rig.in.Update()
		if want := []string{"then", "end"}; !reflect.DeepEqual(rig.rec.names, want) {
			t.Errorf("executed %v, want %v", rig.rec.names, want)
		}
	})
}

func TestConditionElseIfChain(t *testing.T) {
	program := []command.Command{
		condition(0, 0, "=", 1),
		mark("one", 1),
		cmd(command.ConditionElseIf, 0, condition(0, 0, "=", 2).Params),
		mark("two", 1),
		cmd(command.ConditionElseIf, 0, condition(0, 0, ">", 0).Params),
		mark("positive", 1),
		cmd(command.ConditionElse, 0, nil),
		mark("other", 1),
	}

	tests := []struct {
		value int
		want  string
	}{
		{1, "one"},
		{2, "two"},
		{7, "positive"},
		{-3, "other"},
	}
	for _, tt := range tests {
		rig := newRig(program)
		rig.setNumber(0, tt.value)
		rig.in.Start()
		rig.in.Update()
		if !reflect.DeepEqual(rig.rec.names, []string{tt.want}) {
			t.Errorf("value %d: executed %v, want [%s]", tt.value, rig.rec.names, tt.want)
		}
	}
}

func TestConditionOperators(t *testing.T) {
	tests := []struct {
		name      string
		valueType any
		set       func(r *testRig)
		op        any
		value     any
		want      bool
	}{
		{"number equal", "number", func(r *testRig) { r.setNumber(0, 5) }, "=", 5, true},
		{"number not equal symbol", "number", func(r *testRig) { r.setNumber(0, 5) }, "≠", 5, false},
		{"number greater index", 0, func(r *testRig) { r.setNumber(0, 6) }, 2, 5, true},
		{"number greater equal", "number", func(r *testRig) { r.setNumber(0, 5) }, "≥", 5, true},
		{"number less", "number", func(r *testRig) { r.setNumber(0, 4) }, "<", 5, true},
		{"number less equal", "number", func(r *testRig) { r.setNumber(0, 6) }, "<=", 5, false},
		{"variable operand", "number", func(r *testRig) { r.setNumber(0, 3); r.setNumber(1, 3) }, "=", globalRef(1), true},
		{"boolean", "boolean", func(r *testRig) {
			r.store.SetBoolean("", command.Ref{Scope: 1, Index: 0}, true)
		}, "=", true, true},
		{"string", "string", func(r *testRig) {
			r.store.SetString("", command.Ref{Scope: 1, Index: 0}, "alice")
		}, "=", "alice", true},
		{"string order", 2, func(r *testRig) {
			r.store.SetString("", command.Ref{Scope: 1, Index: 0}, "b")
		}, "<", "c", true},
		{"bad operator", "number", func(r *testRig) {}, "~", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newRig([]command.Command{
				cmd(command.Condition, 0, command.Params{
					"variable":  globalRef(0),
					"valueType": tt.valueType,
					"operation": tt.op,
					"value":     tt.value,
				}),
				mark("then", 1),
			})
			tt.set(rig)
			rig.in.Start()
			rig.in.Update()
			if got := rig.rec.count("then") == 1; got != tt.want {
				t.Errorf("condition = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitBlocksExactFrames(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.WaitCommand, 0, command.Params{"time": 3}),
		mark("after", 0),
	})
	rig.in.Start()
	rig.in.Update()

	if !rig.in.IsWaiting() || rig.in.WaitCounter() != 3 {
		t.Fatalf("after Wait: waiting=%v counter=%d", rig.in.IsWaiting(), rig.in.WaitCounter())
	}
	wantWaiting := []bool{true, true, false}
	for i, want := range wantWaiting {
		rig.in.Update()
		if len(rig.rec.names) != 0 || rig.in.Pointer() != 1 {
			t.Fatalf("frame %d: executed %v, pointer %d", i+1, rig.rec.names, rig.in.Pointer())
		}
		if rig.in.IsWaiting() != want {
			t.Errorf("frame %d: IsWaiting() = %v, want %v", i+1, rig.in.IsWaiting(), want)
		}
	}
	rig.in.Update()
	if rig.rec.count("after") != 1 {
		t.Errorf("execution did not resume on the 4th frame: %v", rig.rec.names)
	}
}

func TestWaitIgnoresNonPositive(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.WaitCommand, 0, command.Params{"time": 0}),
		cmd(command.WaitCommand, 0, command.Params{"time": -4}),
		mark("after", 0),
	})
	rig.in.Start()
	rig.in.Update()
	if rig.rec.count("after") != 1 {
		t.Errorf("non-positive wait suspended execution")
	}
}

func TestUnknownTagIsSkipped(t *testing.T) {
	rig := newRig([]command.Command{
		cmd("gs.NotImplemented", 0, nil),
		mark("after", 0),
	})
	rig.in.Start()
	rig.in.Update()
	if rig.rec.count("after") != 1 || rig.in.Pointer() != 2 {
		t.Errorf("unknown tag blocked execution: %v pointer %d", rig.rec.names, rig.in.Pointer())
	}
	if rig.in.slots[0] != slotUnknown {
		t.Errorf("unknown command slot = %d, want slotUnknown", rig.in.slots[0])
	}
	if rig.in.slots[1] <= 0 {
		t.Errorf("known command slot not memoized: %d", rig.in.slots[1])
	}
}

func TestRegisterAfterResolveKeepsSlot(t *testing.T) {
	rig := newRig([]command.Command{mark("a", 0)}, WithRepeat(true))
	rig.in.Start()
	rig.in.Update()

	calls := 0
	rig.in.table.Register(markTag, func(*Call) error {
		calls++
		return nil
	})
	rig.in.Update()
	if calls != 1 {
		t.Errorf("replacement handler called %d times, want 1", calls)
	}
}

func TestJumpToLabel(t *testing.T) {
	rig := newRig([]command.Command{
		mark("a", 0),
		cmd(command.JumpToLabel, 0, command.Params{"name": "skip"}),
		mark("b", 0),
		cmd(command.Label, 0, command.Params{"name": "skip"}),
		mark("c", 0),
	})
	rig.in.Start()
	rig.in.Update()
	if want := []string{"a", "c"}; !reflect.DeepEqual(rig.rec.names, want) {
		t.Errorf("executed %v, want %v", rig.rec.names, want)
	}
}

func TestJumpResetsIndentAndWait(t *testing.T) {
	rig := newRig([]command.Command{
		condition(0, 0, "=", 0),
		cmd(command.Label, 1, command.Params{"name": "inside"}),
		mark("inside", 1),
		cmd(command.Label, 0, command.Params{"name": "outside"}),
		mark("outside", 0),
	})
	rig.in.Start()
	rig.in.Wait(5)

	if !rig.in.JumpToLabel("inside") {
		t.Fatal("JumpToLabel(inside) failed")
	}
	if rig.in.Pointer() != 1 || rig.in.Indent() != 1 {
		t.Errorf("after jump: pointer=%d indent=%d, want 1 and 1", rig.in.Pointer(), rig.in.Indent())
	}
	if rig.in.IsWaiting() || rig.in.WaitCounter() != 0 {
		t.Errorf("jump did not cancel the wait: waiting=%v counter=%d", rig.in.IsWaiting(), rig.in.WaitCounter())
	}

	rig.in.Update()
	if want := []string{"inside", "outside"}; !reflect.DeepEqual(rig.rec.names, want) {
		t.Errorf("executed %v, want %v", rig.rec.names, want)
	}
}

func TestJumpToMissingLabelIsNoop(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.JumpToLabel, 0, command.Params{"name": "nowhere"}),
		mark("next", 0),
	})
	rig.in.Start()
	rig.in.ExecuteCommand()

	if rig.in.Pointer() != 1 || rig.in.Indent() != 0 || rig.in.IsWaiting() {
		t.Errorf("pointer=%d indent=%d waiting=%v, want 1, 0, false",
			rig.in.Pointer(), rig.in.Indent(), rig.in.IsWaiting())
	}
	rig.in.Update()
	if rig.rec.count("next") != 1 {
		t.Error("command after a failed jump did not run")
	}
}

func TestExitEventProcessing(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.Loop, 0, nil),
		mark("a", 1),
		cmd(command.ExitEventProcessing, 1, nil),
		mark("b", 1),
	})
	rig.in.Start()
	rig.in.Update()
	if !reflect.DeepEqual(rig.rec.names, []string{"a"}) {
		t.Errorf("executed %v, want [a]", rig.rec.names)
	}
	if rig.in.Pointer() != 4 || rig.in.IsRunning() || rig.finished != 1 {
		t.Errorf("pointer=%d running=%v finished=%d", rig.in.Pointer(), rig.in.IsRunning(), rig.finished)
	}
}

func TestRepeatRestarts(t *testing.T) {
	rig := newRig([]command.Command{mark("a", 0)}, WithRepeat(true))
	rig.in.Start()
	for i := 0; i < 3; i++ {
		rig.in.Update()
	}
	if got := rig.rec.count("a"); got != 3 {
		t.Errorf("repeating program ran %d times in 3 frames, want 3", got)
	}
	if rig.finished != 0 || !rig.in.IsRunning() {
		t.Errorf("repeating program finished: finished=%d running=%v", rig.finished, rig.in.IsRunning())
	}

	rig.in.SetRepeat(false)
	rig.in.Update()
	rig.in.Update()
	if rig.finished != 1 {
		t.Errorf("onFinish called %d times after repeat off, want 1", rig.finished)
	}
}

func TestStopResume(t *testing.T) {
	rig := newRig([]command.Command{
		mark("a", 0),
		cmd(command.WaitCommand, 0, command.Params{"time": 1}),
		mark("b", 0),
	})
	rig.in.Start()
	rig.in.Update()
	rig.in.Stop()
	for i := 0; i < 5; i++ {
		rig.in.Update()
	}
	if rig.in.Pointer() != 2 || rig.in.WaitCounter() != 1 {
		t.Errorf("stopped interpreter advanced: pointer=%d counter=%d", rig.in.Pointer(), rig.in.WaitCounter())
	}

	rig.in.Resume()
	rig.in.Update()
	rig.in.Update()
	if rig.rec.count("b") != 1 {
		t.Errorf("resumed interpreter did not continue: %v", rig.rec.names)
	}
}

func TestCallbackCanReleaseStoppedInterpreter(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.ShowMessage, 0, command.Params{"message": "hi"}),
		mark("after", 0),
	})
	rig.in.Start()
	rig.in.Update()
	rig.in.Stop()

	rig.messages.pendingDone()
	if rig.in.IsWaiting() {
		t.Error("completion callback must clear the wait even while stopped")
	}
	rig.in.Update()
	if rig.rec.count("after") != 0 {
		t.Error("stopped interpreter executed commands")
	}
}

func TestPreviewBudget(t *testing.T) {
	preview := &Preview{Enabled: true}
	rig := newRig([]command.Command{
		cmd(command.Loop, 0, nil),
		mark("spin", 1),
	}, WithPreview(preview))
	rig.in.Start()

	rig.in.Update()
	if got := rig.rec.count("spin"); got != PreviewBudget/2 {
		t.Fatalf("first frame ran %d bodies, want %d", got, PreviewBudget/2)
	}
	if !rig.in.IsWaiting() || rig.in.WaitCounter() != 1 {
		t.Errorf("budget did not force a pause: waiting=%v counter=%d", rig.in.IsWaiting(), rig.in.WaitCounter())
	}

	rig.in.Update()
	if got := rig.rec.count("spin"); got != PreviewBudget/2 {
		t.Errorf("paused frame executed commands: %d", got)
	}
	rig.in.Update()
	if got := rig.rec.count("spin"); got != PreviewBudget {
		t.Errorf("after resuming ran %d bodies, want %d", got, PreviewBudget)
	}
}

func TestPreviewPausedAndSkipWaits(t *testing.T) {
	preview := &Preview{Paused: true, SkipWaits: true}
	rig := newRig([]command.Command{
		cmd(command.WaitCommand, 0, command.Params{"time": 10}),
		mark("after", 0),
	}, WithPreview(preview))
	rig.in.Start()
	rig.in.Update()
	if len(rig.rec.names) != 0 || rig.in.Pointer() != 0 {
		t.Fatalf("paused preview executed commands")
	}

	preview.Paused = false
	rig.in.Update()
	if rig.rec.count("after") != 1 {
		t.Errorf("wait not skipped in preview data mode: %v", rig.rec.names)
	}
}

func TestTempVariablesBoundEachFrame(t *testing.T) {
	rig := newRig([]command.Command{mark("a", 0)}, WithContext("scene:temp", nil))
	rig.store.SetupTempVariables("other")
	rig.in.Start()
	rig.in.Update()
	if got := rig.store.TempContext(); got != "scene:temp" {
		t.Errorf("TempContext() = %q, want scene:temp", got)
	}
}
