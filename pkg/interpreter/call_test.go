package interpreter

import (
	"reflect"
	"testing"

	"github.com/zurustar/vnplay/pkg/command"
)

func TestCallCommonEventDelegates(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.CallCommonEvent, 0, command.Params{"commonEventId": 1}),
		mark("parent", 0),
	})
	rig.programs.events[1] = command.NewProgram("ce1", []command.Command{
		mark("ce-start", 0),
		cmd(command.WaitCommand, 0, command.Params{"time": 2}),
		mark("ce-end", 0),
	})

	rig.in.Start()
	rig.in.Update()

	child := rig.in.SubInterpreter()
	if child == nil {
		t.Fatal("sub-interpreter not started")
	}
	if child.Context().ID != "commonEvent:1" {
		t.Errorf("child context = %q", child.Context().ID)
	}
	if !rig.in.IsWaiting() || rig.in.Pointer() != 1 {
		t.Errorf("parent: waiting=%v pointer=%d", rig.in.IsWaiting(), rig.in.Pointer())
	}
	if got := rig.in.WaitingFor().Reason; got != WaitSubInterpreter {
		t.Errorf("parent waitingFor = %q", got)
	}

	for frame := 0; frame < 2; frame++ {
		rig.in.Update()
		if rig.in.Pointer() != 1 || rig.in.SubInterpreter() == nil {
			t.Fatalf("frame %d: parent moved or child vanished", frame)
		}
	}
	if rig.rec.count("ce-end") != 0 {
		t.Fatal("child finished too early")
	}

	rig.in.Update()
	if rig.rec.count("ce-end") != 1 {
		t.Fatalf("child did not finish: %v", rig.rec.names)
	}
	if rig.in.SubInterpreter() != nil || rig.in.IsWaiting() {
		t.Errorf("after child finished: sub=%v waiting=%v", rig.in.SubInterpreter(), rig.in.IsWaiting())
	}
	if rig.rec.count("parent") != 0 {
		t.Error("parent ran in the frame its child finished")
	}

	rig.in.Update()
	if want := []string{"ce-start", "ce-end", "parent"}; !reflect.DeepEqual(rig.rec.names, want) {
		t.Errorf("executed %v, want %v", rig.rec.names, want)
	}
	if rig.finished != 1 {
		t.Errorf("parent onFinish called %d times", rig.finished)
	}
}

func TestInstantCommonEventTakesOneFrame(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.CallCommonEvent, 0, command.Params{"commonEventId": 2}),
		mark("parent", 0),
	})
	rig.programs.events[2] = command.NewProgram("ce2", []command.Command{mark("instant", 0)})

	rig.in.Start()
	rig.in.Update()

	if rig.rec.count("instant") != 1 {
		t.Fatal("instant common event did not run in the calling frame")
	}
	if rig.in.SubInterpreter() != nil {
		t.Error("finished child still attached")
	}
	if !rig.in.IsWaiting() || rig.rec.count("parent") != 0 {
		t.Error("parent continued in the same frame as the call")
	}
	if got := rig.in.WaitingFor().Reason; got != WaitSubFinished {
		t.Errorf("waitingFor = %q, want %q", got, WaitSubFinished)
	}

	rig.in.Update()
	if rig.rec.count("parent") != 1 {
		t.Errorf("parent did not resume on the next frame: %v", rig.rec.names)
	}
}

func TestCallAsLastCommand(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.CallCommonEvent, 0, command.Params{"commonEventId": 3}),
	})
	rig.programs.events[3] = command.NewProgram("ce3", []command.Command{mark("x", 0)})

	rig.in.Start()
	rig.in.Update()
	if rig.finished != 0 {
		t.Fatal("parent finished in the call frame")
	}
	rig.in.Update()
	if rig.finished != 1 || rig.in.IsRunning() {
		t.Errorf("parent did not finish after its last call: finished=%d", rig.finished)
	}
}

func TestCallSceneSharesSettings(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.CallScene, 0, command.Params{"scene": "options"}),
		mark("parent", 0),
	})
	rig.programs.scenes["options"] = command.NewProgram("options", []command.Command{
		cmd(command.MessageSettings, 0, command.Params{"autoAdvance": true, "messageBoxId": "narration"}),
	})

	rig.in.Start()
	rig.in.Update()

	s := rig.in.Settings()
	if !s.AutoAdvance || s.MessageBoxID != "narration" {
		t.Errorf("child settings change not visible to parent: %+v", *s)
	}
}

func TestNestedCalls(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.CallCommonEvent, 0, command.Params{"commonEventId": 1}),
		mark("root", 0),
	})
	rig.programs.events[1] = command.NewProgram("outer", []command.Command{
		cmd(command.CallCommonEvent, 0, command.Params{"commonEventId": 2}),
		mark("outer", 0),
	})
	rig.programs.events[2] = command.NewProgram("inner", []command.Command{
		cmd(command.WaitCommand, 0, command.Params{"time": 1}),
		mark("inner", 0),
	})

	rig.in.Start()
	for i := 0; i < 10 && rig.rec.count("root") == 0; i++ {
		rig.in.Update()
	}
	if want := []string{"inner", "outer", "root"}; !reflect.DeepEqual(rig.rec.names, want) {
		t.Errorf("executed %v, want %v", rig.rec.names, want)
	}
}

func TestCallMissingProgramIsSkipped(t *testing.T) {
	rig := newRig([]command.Command{
		cmd(command.CallCommonEvent, 0, command.Params{"commonEventId": 42}),
		cmd(command.CallScene, 0, command.Params{"scene": "missing"}),
		mark("after", 0),
	})
	rig.in.Start()
	rig.in.Update()
	if rig.rec.count("after") != 1 || rig.in.SubInterpreter() != nil {
		t.Errorf("missing program blocked execution: %v", rig.rec.names)
	}
}

func TestChildTempVariablesCleared(t *testing.T) {
	tempRef := map[string]any{"scope": 3, "index": 0}
	rig := newRig([]command.Command{
		cmd(command.CallCommonEvent, 0, command.Params{"commonEventId": 5}),
	})
	rig.programs.events[5] = command.NewProgram("ce5", []command.Command{
		cmd(command.ChangeNumberVariables, 0, command.Params{"target": tempRef, "value": 9}),
	})
	rig.in.Start()
	rig.in.Update()

	rig.store.SetupTempVariables("commonEvent:5")
	if got := rig.store.Number("commonEvent:5", command.Ref{Scope: 3}); got != 0 {
		t.Errorf("child temp variable survived the call: %d", got)
	}
}
