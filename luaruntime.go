package luaruntime

import "time"

// InstanceID uniquely identifies a runtime instance within the host process.
// IDs are allocated from a process-wide counter and never reused.
type InstanceID uint32

// Ref is an opaque cross-boundary reference to a value living inside an
// engine state, typically a callable. Ref 0 is reserved and always invalid.
// Refs are reference counted: DuplicateRef increments, DeleteRef decrements,
// and the underlying engine value is released when the count reaches zero.
type Ref int32

// MemoryInfo is a point-in-time snapshot of an instance's footprint.
// HeapBytes covers the Go heap shared by all instances in the process;
// the remaining fields are per-instance.
type MemoryInfo struct {
	Refs             int
	Threads          int
	PendingBookmarks int
	NativesCached    int
	HeapBytes        uint64
}

// FileHandlingRuntime loads a script file by logical name and executes it in
// the engine state. Host files take precedence over system/bundled files.
type FileHandlingRuntime interface {
	LoadFile(name string) error
}

// TickRuntime is driven periodically by the host. A tick forwards to the
// instance's tick routine and then drains due bookmarks. Ticks are the only
// clock source available to scripts.
type TickRuntime interface {
	Tick(now time.Time)
}

// BookmarkRuntime schedules and dispatches deferred work against an
// instance's engine state. Timeouts are minimum delays, not deadlines.
type BookmarkRuntime interface {
	ScheduleBookmarkSoon(bookmark uint64, timeout time.Duration) error
	RunBookmark(bookmark uint64) bool
}

// EventRuntime delivers a named event with a serialized payload into the
// instance. Delivery with no event routine installed is a no-op.
type EventRuntime interface {
	TriggerEvent(name string, payload []byte, source string) error
}

// RefRuntime routes cross-boundary reference operations. All payloads are
// flat byte buffers; an empty result buffer is the engine's "no value"
// representation.
type RefRuntime interface {
	CallRef(ref Ref, args []byte) ([]byte, error)
	DuplicateRef(ref Ref) (Ref, error)
	DeleteRef(ref Ref) error
}

// MemInfoRuntime reports the instance's memory footprint.
type MemInfoRuntime interface {
	MemoryInfo() MemoryInfo
}

// StackWalkingRuntime reconstructs a script stack trace between two
// host-defined boundary cookies. The result encoding is engine-defined.
type StackWalkingRuntime interface {
	WalkStack(start, end []byte) ([]byte, error)
}

// DebugRuntime accepts a single optional debug-event listener.
// The first registration wins; later calls are no-ops.
type DebugRuntime interface {
	SetDebugListener(l DebugEventListener)
}

// ProfilerRuntime drives the profiling bridge. Tick(true) starts profiling,
// Tick(false) stops it; redundant calls are no-ops. The return value reports
// whether profiling is active after the call.
type ProfilerRuntime interface {
	ProfilerTick(begin bool) bool
}

// WarningRuntime surfaces script warnings with resource and instance context.
type WarningRuntime interface {
	EmitWarning(kind, msg string)
}

// BookmarkHost is the host-side capability an instance notifies when a
// bookmark is scheduled, so the host can align its tick cadence.
type BookmarkHost interface {
	ScheduleBookmark(instance InstanceID, bookmark uint64, due time.Time)
}

// DebugEvent is a single observation delivered to a DebugEventListener.
type DebugEvent struct {
	Time     time.Time
	Kind     string
	Resource string
	Instance InstanceID
	Detail   string
}

// DebugEventListener receives debug events from an instance. Listeners must
// not call back into the instance.
type DebugEventListener interface {
	OnDebugEvent(ev DebugEvent)
}

// Allocator allocates the adapter-owned buffers used for cross-boundary
// marshaling. Implementations must be safe for concurrent use across
// instances.
type Allocator interface {
	Alloc(n int) []byte
	Free(buf []byte)
}
