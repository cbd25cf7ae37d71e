package runtime

import (
	lua "github.com/yuin/gopher-lua"

	luaruntime "github.com/wippyai/lua-runtime"
)

// TickRoutine runs script-side frame work. bookmark is zero for plain ticks
// and carries the bookmark id for deferred dispatch; profiling reports
// whether the profiling bridge is active for this entry.
type TickRoutine func(bookmark uint64, profiling bool)

// EventRoutine delivers a named event with its serialized payload and
// origin identifier into the engine state.
type EventRoutine func(name string, payload []byte, source string)

// CallRefRoutine invokes the engine value behind a reference with a
// serialized argument buffer and returns the serialized result. An empty
// result buffer means "no value".
type CallRefRoutine func(ref luaruntime.Ref, args []byte) ([]byte, error)

// DuplicateRefRoutine increments the reference count behind a reference and
// returns an equivalent reference.
type DuplicateRefRoutine func(ref luaruntime.Ref) (luaruntime.Ref, error)

// DeleteRefRoutine decrements the reference count behind a reference.
type DeleteRefRoutine func(ref luaruntime.Ref) error

// StackTraceRoutine reconstructs a serialized script stack trace between two
// boundary cookies.
type StackTraceRoutine func(start, end []byte) ([]byte, error)

// ResultAsObjectRoutine converts a serialized object into engine values
// pushed onto the given thread.
type ResultAsObjectRoutine func(co *lua.LState, object []byte)

// BoundaryRoutine brackets a host/engine boundary crossing for stack
// reconstruction. enter is true on the way in, false on the way out.
type BoundaryRoutine func(enter bool, cookie []byte)

// routines are the write-once dispatch cells of an instance. Each cell is
// set at most once, by the built-in router or by host injection; later
// writes are silently ignored so a live binding can never be swapped out
// underneath running script code.
type routines struct {
	tick           TickRoutine
	event          EventRoutine
	callRef        CallRefRoutine
	duplicateRef   DuplicateRefRoutine
	deleteRef      DeleteRefRoutine
	stackTrace     StackTraceRoutine
	resultAsObject ResultAsObjectRoutine
	boundary       BoundaryRoutine
}

// SetTickRoutine installs the tick routine. First write wins.
func (i *Instance) SetTickRoutine(fn TickRoutine) {
	if i.routines.tick == nil {
		i.routines.tick = fn
	}
}

// SetEventRoutine installs the event routine. First write wins.
func (i *Instance) SetEventRoutine(fn EventRoutine) {
	if i.routines.event == nil {
		i.routines.event = fn
	}
}

// SetCallRefRoutine installs the reference-call routine. First write wins.
func (i *Instance) SetCallRefRoutine(fn CallRefRoutine) {
	if i.routines.callRef == nil {
		i.routines.callRef = fn
	}
}

// SetDuplicateRefRoutine installs the reference-duplicate routine. First
// write wins.
func (i *Instance) SetDuplicateRefRoutine(fn DuplicateRefRoutine) {
	if i.routines.duplicateRef == nil {
		i.routines.duplicateRef = fn
	}
}

// SetDeleteRefRoutine installs the reference-delete routine. First write
// wins.
func (i *Instance) SetDeleteRefRoutine(fn DeleteRefRoutine) {
	if i.routines.deleteRef == nil {
		i.routines.deleteRef = fn
	}
}

// SetStackTraceRoutine installs the stack-trace routine. First write wins.
func (i *Instance) SetStackTraceRoutine(fn StackTraceRoutine) {
	if i.routines.stackTrace == nil {
		i.routines.stackTrace = fn
	}
}

// SetResultAsObjectRoutine installs the object-materializing routine. First
// write wins.
func (i *Instance) SetResultAsObjectRoutine(fn ResultAsObjectRoutine) {
	if i.routines.resultAsObject == nil {
		i.routines.resultAsObject = fn
	}
}

// SetBoundaryRoutine installs the boundary-bracketing routine. First write
// wins.
func (i *Instance) SetBoundaryRoutine(fn BoundaryRoutine) {
	if i.routines.boundary == nil {
		i.routines.boundary = fn
	}
}
