package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	err := FileNotFound("spawnmanager", "missing.lua")

	msg := err.Error()
	if !strings.Contains(msg, "[load]") {
		t.Errorf("Expected phase in message, got %q", msg)
	}
	if !strings.Contains(msg, "not_found") {
		t.Errorf("Expected kind in message, got %q", msg)
	}
	if !strings.Contains(msg, "spawnmanager") {
		t.Errorf("Expected resource in message, got %q", msg)
	}
	if !strings.Contains(msg, "missing.lua") {
		t.Errorf("Expected script in message, got %q", msg)
	}
}

func TestError_CauseChain(t *testing.T) {
	cause := fmt.Errorf("unexpected symbol near 'end'")
	err := CompileFailed("spawnmanager", "broken.lua", cause)

	if !strings.Contains(err.Error(), "unexpected symbol") {
		t.Errorf("Expected cause in message, got %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("Expected errors.Is to find the cause")
	}
}

func TestError_Is_MatchesPhaseAndKind(t *testing.T) {
	a := FileNotFound("res-a", "a.lua")
	b := FileNotFound("res-b", "b.lua")
	c := CompileFailed("res-a", "a.lua", nil)

	if !stderrors.Is(a, b) {
		t.Error("Same phase+kind should match regardless of context")
	}
	if stderrors.Is(a, c) {
		t.Error("Different kind should not match")
	}
}

func TestError_Fatal(t *testing.T) {
	cases := []struct {
		err   error
		fatal bool
	}{
		{Corrupt("stack smashed", nil), true},
		{AllocationFailed(nil), true},
		{FileNotFound("r", "s.lua"), false},
		{InvalidRef(42), false},
		{InvalidBookmark(0), false},
		{stderrors.New("plain"), false},
	}

	for _, tc := range cases {
		if got := IsFatal(tc.err); got != tc.fatal {
			t.Errorf("IsFatal(%v) = %v, want %v", tc.err, got, tc.fatal)
		}
	}
}

func TestBuilder(t *testing.T) {
	cause := stderrors.New("boom")
	err := New(PhaseCall, KindExec).
		Resource("spawnmanager").
		Script("spawnmanager.lua").
		Detail("call %q failed", "onSpawn").
		Cause(cause).
		Build()

	if err.Phase != PhaseCall || err.Kind != KindExec {
		t.Errorf("Unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if err.Detail != `call "onSpawn" failed` {
		t.Errorf("Unexpected detail: %q", err.Detail)
	}
	if stderrors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
}
