package runtime

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// EnterThread pushes co onto the running-thread stack and returns the
// matching pop. The pop is idempotent, so deferred and explicit exits can
// coexist on the same frame.
func (i *Instance) EnterThread(co *lua.LState) func() {
	i.running = append(i.running, co)

	popped := false
	return func() {
		if popped {
			return
		}
		popped = true

		n := len(i.running)
		if n == 0 {
			i.log.Warn("thread exit with empty running stack")
			return
		}
		if i.running[n-1] != co {
			// Unbalanced enter/exit means the dispatch path is broken.
			i.log.Error("thread exit out of order",
				zap.Int("depth", n))
		}
		i.running[n-1] = nil
		i.running = i.running[:n-1]
	}
}

// RunningThread returns the innermost executing thread, falling back to the
// main state when no dispatch is in flight.
func (i *Instance) RunningThread() *lua.LState {
	if n := len(i.running); n > 0 {
		return i.running[n-1]
	}
	return i.holder.L()
}

// ThreadDepth reports the current dispatch nesting depth.
func (i *Instance) ThreadDepth() int {
	return len(i.running)
}
