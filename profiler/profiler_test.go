package profiler

import (
	"bytes"
	"testing"

	luaruntime "github.com/wippyai/lua-runtime"
)

type sinkRecorder struct {
	events []Event
}

func (s *sinkRecorder) RecordProfilerEvent(ev Event) {
	s.events = append(s.events, ev)
}

type listenerRecorder struct {
	events []luaruntime.DebugEvent
}

func (l *listenerRecorder) OnDebugEvent(ev luaruntime.DebugEvent) {
	l.events = append(l.events, ev)
}

func TestBridge_Transitions(t *testing.T) {
	setups, teardowns := 0, 0
	b := New(Config{
		Resource: "test",
		Setup:    func() { setups++ },
		Teardown: func() { teardowns++ },
	})

	if b.Mode() != ModeNone || b.Active() {
		t.Fatal("Fresh bridge should be idle")
	}

	// Redundant stop is a no-op.
	if b.Tick(false) {
		t.Fatal("Tick(false) from idle should stay inactive")
	}
	if teardowns != 0 {
		t.Fatal("Idle stop must not run teardown")
	}

	if !b.Tick(true) {
		t.Fatal("Tick(true) should activate")
	}
	if setups != 1 {
		t.Fatalf("Setups = %d, want 1", setups)
	}

	// Redundant start is a no-op.
	if !b.Tick(true) {
		t.Fatal("Redundant start should stay active")
	}
	if setups != 1 {
		t.Fatalf("Redundant start reran setup, setups = %d", setups)
	}

	if b.Tick(false) {
		t.Fatal("Tick(false) should deactivate")
	}
	if teardowns != 1 {
		t.Fatalf("Teardowns = %d, want 1", teardowns)
	}
}

func TestBridge_RecordsOnlyWhileActive(t *testing.T) {
	sink := &sinkRecorder{}
	b := New(Config{Resource: "test", Sink: sink})

	b.TickBegin()
	b.CallBegin("dormant")
	b.TickEnd()
	if len(sink.events) != 0 {
		t.Fatalf("Idle bridge recorded %d events", len(sink.events))
	}

	b.Tick(true)
	b.TickBegin()
	b.CallBegin("live")
	b.CallEnd()
	b.TickEnd()
	b.Tick(false)

	if len(sink.events) == 0 {
		t.Fatal("Active bridge recorded nothing")
	}
	for _, ev := range sink.events {
		if ev.Name == "dormant" {
			t.Fatal("Idle-period event leaked into the sink")
		}
	}
}

func TestBridge_TimelineIncrements(t *testing.T) {
	b := New(Config{Resource: "test"})

	b.Tick(true)
	b.Tick(false)
	first := b.LastTrace()
	b.Tick(true)
	b.Tick(false)
	second := b.LastTrace()

	if first == nil || second == nil {
		t.Fatal("Each session should produce a trace")
	}
	if second.Timeline != first.Timeline+1 {
		t.Fatalf("Timeline %d -> %d, want +1", first.Timeline, second.Timeline)
	}
}

func TestBridge_ListenerSetOnce(t *testing.T) {
	b := New(Config{Resource: "test"})

	first := &listenerRecorder{}
	second := &listenerRecorder{}
	b.SetListener(first)
	b.SetListener(second)

	b.EmitDebug("marker", "detail")
	if len(first.events) != 1 {
		t.Fatalf("First listener got %d events, want 1", len(first.events))
	}
	if len(second.events) != 0 {
		t.Fatal("Second registration should be ignored")
	}
	if first.events[0].Kind != "marker" || first.events[0].Detail != "detail" {
		t.Fatalf("Unexpected event: %+v", first.events[0])
	}
}

func TestBridge_EmitDebugIndependentOfMode(t *testing.T) {
	b := New(Config{Resource: "test"})
	l := &listenerRecorder{}
	b.SetListener(l)

	b.EmitDebug("idle", "")
	b.Tick(true)
	b.EmitDebug("active", "")
	b.Tick(false)

	if len(l.events) != 2 {
		t.Fatalf("Listener got %d events, want 2", len(l.events))
	}
}

func TestTrace_SaveLoadRoundtrip(t *testing.T) {
	b := New(Config{Resource: "gamemode", Instance: 3})
	b.Tick(true)
	b.TickBegin()
	b.CallBegin("handler")
	b.CallEnd()
	b.TickEnd()
	b.Tick(false)

	trace := b.LastTrace()
	var buf bytes.Buffer
	if err := trace.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := LoadTrace(&buf)
	if err != nil {
		t.Fatalf("LoadTrace failed: %v", err)
	}
	if got.Resource != "gamemode" || got.Instance != 3 {
		t.Fatalf("Roundtrip header mismatch: %+v", got)
	}
	if len(got.Events) != len(trace.Events) {
		t.Fatalf("Roundtrip events = %d, want %d", len(got.Events), len(trace.Events))
	}
}

func TestMode_String(t *testing.T) {
	cases := map[Mode]string{
		ModeNone:      "none",
		ModeSetup:     "setup",
		ModeProfiling: "profiling",
		ModeShutdown:  "shutdown",
		Mode(99):      "unknown",
	}
	for mode, want := range cases {
		if mode.String() != want {
			t.Errorf("Mode(%d).String() = %q, want %q", mode, mode.String(), want)
		}
	}
}
