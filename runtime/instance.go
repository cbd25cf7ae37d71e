package runtime

import (
	gort "runtime"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	luaruntime "github.com/wippyai/lua-runtime"
	"github.com/wippyai/lua-runtime/errors"
	"github.com/wippyai/lua-runtime/profiler"
)

var (
	_ luaruntime.FileHandlingRuntime = (*Instance)(nil)
	_ luaruntime.TickRuntime         = (*Instance)(nil)
	_ luaruntime.BookmarkRuntime     = (*Instance)(nil)
	_ luaruntime.EventRuntime        = (*Instance)(nil)
	_ luaruntime.RefRuntime          = (*Instance)(nil)
	_ luaruntime.MemInfoRuntime      = (*Instance)(nil)
	_ luaruntime.StackWalkingRuntime = (*Instance)(nil)
	_ luaruntime.DebugRuntime        = (*Instance)(nil)
	_ luaruntime.ProfilerRuntime     = (*Instance)(nil)
	_ luaruntime.WarningRuntime      = (*Instance)(nil)
)

// Tick advances the instance by one host frame: the tick routine runs
// first, then every bookmark due at or before now is dispatched. now becomes
// the tick clock for timeouts scheduled during this frame.
func (i *Instance) Tick(now time.Time) {
	if i.usable() != nil {
		return
	}
	i.tickTime = now

	i.prof.TickBegin()
	defer i.prof.TickEnd()

	if i.routines.tick != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					i.log.Error("tick routine panicked", zap.Any("panic", r))
				}
			}()
			i.routines.tick(0, i.prof.Active())
		}()
	}

	i.drainBookmarks()
}

// TriggerEvent delivers a named event with its serialized payload into the
// instance. With no event routine installed delivery is a silent no-op, so
// hosts can broadcast without tracking which instances subscribed.
func (i *Instance) TriggerEvent(name string, payload []byte, source string) error {
	if err := i.usable(); err != nil {
		return err
	}
	if i.routines.event == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			i.log.Error("event routine panicked",
				zap.String("event", name),
				zap.Any("panic", r))
		}
	}()

	i.prof.CallBegin("event:" + name)
	i.routines.event(name, payload, source)
	i.prof.CallEnd()
	return nil
}

// CallRef routes a reference call through the installed routine.
func (i *Instance) CallRef(ref luaruntime.Ref, args []byte) ([]byte, error) {
	if err := i.usable(); err != nil {
		return nil, err
	}
	if i.routines.callRef == nil {
		return nil, errors.InvalidRef(int32(ref))
	}
	return i.routines.callRef(ref, args)
}

// DuplicateRef routes a reference duplication through the installed routine.
func (i *Instance) DuplicateRef(ref luaruntime.Ref) (luaruntime.Ref, error) {
	if err := i.usable(); err != nil {
		return 0, err
	}
	if i.routines.duplicateRef == nil {
		return 0, errors.InvalidRef(int32(ref))
	}
	return i.routines.duplicateRef(ref)
}

// DeleteRef routes a reference release through the installed routine.
func (i *Instance) DeleteRef(ref luaruntime.Ref) error {
	if err := i.usable(); err != nil {
		return err
	}
	if i.routines.deleteRef == nil {
		return errors.InvalidRef(int32(ref))
	}
	return i.routines.deleteRef(ref)
}

// WalkStack reconstructs a serialized stack trace between two boundary
// cookies. Without a stack-trace routine the result is empty.
func (i *Instance) WalkStack(start, end []byte) ([]byte, error) {
	if err := i.usable(); err != nil {
		return nil, err
	}
	if i.routines.stackTrace == nil {
		return nil, nil
	}
	return i.routines.stackTrace(start, end)
}

// Call invokes a global script function by name with string arguments and
// returns its first result serialized. Missing globals report not-found.
func (i *Instance) Call(name string, args ...string) ([]byte, error) {
	if err := i.usable(); err != nil {
		return nil, err
	}

	L := i.holder.L()
	fn := L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, errors.NotFound(errors.PhaseCall, "function", name)
	}

	callArgs := make([]lua.LValue, len(args))
	for n, a := range args {
		callArgs[n] = lua.LString(a)
	}

	i.prof.CallBegin(name)
	err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
		Handler: i.dbTraceback,
	}, callArgs...)
	i.prof.CallEnd()
	if err != nil {
		return nil, i.classifyScriptError(errors.PhaseCall, "", err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return i.marshalResult(ret), nil
}

// ResultAsObject materializes a serialized object on the given thread via
// the installed routine. Without one a single nil is pushed, keeping the
// caller's stack arithmetic intact.
func (i *Instance) ResultAsObject(co *lua.LState, object []byte) {
	if i.routines.resultAsObject != nil {
		i.routines.resultAsObject(co, object)
		return
	}
	co.Push(lua.LNil)
}

// MemoryInfo snapshots the instance footprint. HeapBytes reads the shared
// process heap and so moves with every instance in the process.
func (i *Instance) MemoryInfo() luaruntime.MemoryInfo {
	var ms gort.MemStats
	gort.ReadMemStats(&ms)

	return luaruntime.MemoryInfo{
		Refs:             i.refs.Len(),
		Threads:          len(i.running),
		PendingBookmarks: len(i.pending),
		NativesCached:    len(i.nativeIDs) + len(i.nonExistent),
		HeapBytes:        ms.HeapAlloc,
	}
}

// EmitWarning surfaces a script warning with resource and instance context.
func (i *Instance) EmitWarning(kind, msg string) {
	i.log.Warn("script warning",
		zap.String("kind", kind),
		zap.String("message", msg))
	i.prof.EmitDebug("warning:"+kind, msg)
}

// SetDebugListener attaches the debug-event listener. First registration
// wins.
func (i *Instance) SetDebugListener(l luaruntime.DebugEventListener) {
	i.prof.SetListener(l)
}

// ProfilerTick forwards to the profiling bridge. The return value reports
// whether profiling is active after the call.
func (i *Instance) ProfilerTick(begin bool) bool {
	if i.usable() != nil {
		return false
	}
	return i.prof.Tick(begin)
}

// captureFrames walks the innermost running thread and records one frame
// per activation. Frames executing host code are marked as boundary frames.
func (i *Instance) captureFrames() []profiler.Frame {
	L := i.RunningThread()

	var frames []profiler.Frame
	for depth := 0; ; depth++ {
		dbg, ok := L.GetStack(depth)
		if !ok {
			break
		}
		if _, err := L.GetInfo("Sln", dbg, lua.LNil); err != nil {
			break
		}

		name := dbg.Name
		if name == "" {
			name = "?"
		}
		frames = append(frames, profiler.Frame{
			Name:     name,
			Source:   dbg.Source,
			Line:     dbg.CurrentLine,
			Boundary: dbg.What == "G",
		})
	}
	return frames
}

// profilerSetup prepares the engine side of a profiling session: a scratch
// table scripts can use to stage sample annotations.
func (i *Instance) profilerSetup() {
	L := i.holder.L()
	i.profScratch = L.CreateTable(0, 8)
	L.SetGlobal("__profiler_scratch", i.profScratch)
}

// profilerTeardown clears the engine side of a profiling session.
func (i *Instance) profilerTeardown() {
	if i.profScratch == nil {
		return
	}
	i.holder.L().SetGlobal("__profiler_scratch", lua.LNil)
	i.profScratch = nil
}
