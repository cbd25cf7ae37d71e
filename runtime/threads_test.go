package runtime

import (
	"testing"
)

func TestThreads_RunningFallsBackToMain(t *testing.T) {
	inst, err := New(Config{Resource: "test"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer inst.Close()

	if inst.RunningThread() != inst.State() {
		t.Fatal("Idle instance should report the main state")
	}
}

func TestThreads_EnterExitNesting(t *testing.T) {
	inst, err := New(Config{Resource: "test"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer inst.Close()

	co1, cancel1, err := inst.holder.NewThread()
	if err != nil {
		t.Fatalf("NewThread failed: %v", err)
	}
	if cancel1 != nil {
		defer cancel1()
	}
	co2, cancel2, err := inst.holder.NewThread()
	if err != nil {
		t.Fatalf("NewThread failed: %v", err)
	}
	if cancel2 != nil {
		defer cancel2()
	}

	exit1 := inst.EnterThread(co1)
	if inst.RunningThread() != co1 {
		t.Fatal("Innermost thread should be co1")
	}

	exit2 := inst.EnterThread(co2)
	if inst.RunningThread() != co2 {
		t.Fatal("Innermost thread should be co2")
	}
	if inst.ThreadDepth() != 2 {
		t.Fatalf("Depth = %d, want 2", inst.ThreadDepth())
	}

	exit2()
	if inst.RunningThread() != co1 {
		t.Fatal("Exit should restore the outer thread")
	}
	exit1()
	if inst.RunningThread() != inst.State() {
		t.Fatal("Exit should restore the main state")
	}
}

func TestThreads_ExitIdempotent(t *testing.T) {
	inst, err := New(Config{Resource: "test"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer inst.Close()

	co, cancel, err := inst.holder.NewThread()
	if err != nil {
		t.Fatalf("NewThread failed: %v", err)
	}
	if cancel != nil {
		defer cancel()
	}

	exit := inst.EnterThread(co)
	exit()
	exit()
	exit()

	if inst.ThreadDepth() != 0 {
		t.Fatalf("Depth = %d after repeated exits, want 0", inst.ThreadDepth())
	}
}
