package profiler

import (
	"time"

	"go.uber.org/zap"

	luaruntime "github.com/wippyai/lua-runtime"
)

// Mode is the profiling session state.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeSetup
	ModeProfiling
	ModeShutdown
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeSetup:
		return "setup"
	case ModeProfiling:
		return "profiling"
	case ModeShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Event is one profiling observation on the session timeline.
type Event struct {
	Time     time.Time             `json:"time"`
	Kind     string                `json:"kind"`
	Name     string                `json:"name,omitempty"`
	Resource string                `json:"resource"`
	Instance luaruntime.InstanceID `json:"instance"`
}

// Sink receives profiling events as they are recorded. Sinks must not call
// back into the bridge.
type Sink interface {
	RecordProfilerEvent(ev Event)
}

// Frame is one activation in a captured script stack.
type Frame struct {
	Name     string `json:"name"`
	Source   string `json:"source"`
	Line     int    `json:"line"`
	Boundary bool   `json:"boundary"`
}

// Config holds configuration for bridge creation.
type Config struct {
	// Resource and Instance identify the owning adapter in every event.
	Resource string
	Instance luaruntime.InstanceID

	// Logger for bridge diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// Sink receives the event stream while profiling. Optional.
	Sink Sink

	// Stack captures the owning instance's current script stack.
	Stack func() []Frame

	// Setup and Teardown bracket a profiling session on the engine side.
	// Optional.
	Setup    func()
	Teardown func()
}

// Bridge is the profiling/debug bridge of one instance. It shares the
// instance's single-goroutine discipline; only EmitDebug and the attached
// listener see events from the driving goroutine.
type Bridge struct {
	resource string
	instance luaruntime.InstanceID
	log      *zap.Logger
	sink     Sink
	stack    func() []Frame
	setup    func()
	teardown func()

	mode     Mode
	timeline uint64
	events   []Event
	last     *Trace

	listener luaruntime.DebugEventListener
}

// New constructs a bridge in ModeNone.
func New(cfg Config) *Bridge {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{
		resource: cfg.Resource,
		instance: cfg.Instance,
		log:      log,
		sink:     cfg.Sink,
		stack:    cfg.Stack,
		setup:    cfg.Setup,
		teardown: cfg.Teardown,
	}
}

// Mode returns the current session state.
func (b *Bridge) Mode() Mode {
	return b.mode
}

// Active reports whether a profiling session is recording.
func (b *Bridge) Active() bool {
	return b.mode == ModeProfiling
}

// Tick drives the session state machine. begin true starts a session, false
// ends one; redundant transitions are no-ops. The return value reports
// whether profiling is active after the call.
func (b *Bridge) Tick(begin bool) bool {
	switch {
	case begin && b.mode == ModeNone:
		b.mode = ModeSetup
		if b.setup != nil {
			b.setup()
		}
		b.timeline++
		b.events = b.events[:0]
		b.mode = ModeProfiling
		b.log.Debug("profiling session started", zap.Uint64("timeline", b.timeline))
		b.record("session-begin", "")

	case !begin && b.mode == ModeProfiling:
		b.record("session-end", "")
		b.mode = ModeShutdown
		if b.teardown != nil {
			b.teardown()
		}
		b.last = &Trace{
			Resource: b.resource,
			Instance: b.instance,
			Timeline: b.timeline,
			Events:   append([]Event(nil), b.events...),
		}
		b.events = b.events[:0]
		b.mode = ModeNone
		b.log.Debug("profiling session stopped",
			zap.Int("events", len(b.last.Events)))
	}

	return b.Active()
}

// LastTrace returns the trace of the most recently completed session, or
// nil when none has completed.
func (b *Bridge) LastTrace() *Trace {
	return b.last
}

// TickBegin marks the start of a host tick on the timeline.
func (b *Bridge) TickBegin() {
	b.record("tick-begin", "")
}

// TickEnd marks the end of a host tick on the timeline.
func (b *Bridge) TickEnd() {
	b.record("tick-end", "")
}

// CallBegin marks entry into a named script call on the timeline.
func (b *Bridge) CallBegin(name string) {
	b.record("call-begin", name)
}

// CallEnd marks exit from the innermost script call on the timeline.
func (b *Bridge) CallEnd() {
	b.record("call-end", "")
}

// StackTrace captures the owning instance's current script stack.
func (b *Bridge) StackTrace() []Frame {
	if b.stack == nil {
		return nil
	}
	return b.stack()
}

// SetListener attaches the debug-event listener. The first registration
// wins; later calls are no-ops.
func (b *Bridge) SetListener(l luaruntime.DebugEventListener) {
	if b.listener == nil {
		b.listener = l
	}
}

// EmitDebug delivers a debug event to the attached listener, independent of
// the profiling mode. Without a listener the event is dropped.
func (b *Bridge) EmitDebug(kind, detail string) {
	if b.listener == nil {
		return
	}
	b.listener.OnDebugEvent(luaruntime.DebugEvent{
		Time:     time.Now(),
		Kind:     kind,
		Resource: b.resource,
		Instance: b.instance,
		Detail:   detail,
	})
}

// record appends an event to the session timeline. Outside a session this
// is a no-op.
func (b *Bridge) record(kind, name string) {
	if b.mode != ModeProfiling {
		return
	}
	ev := Event{
		Time:     time.Now(),
		Kind:     kind,
		Name:     name,
		Resource: b.resource,
		Instance: b.instance,
	}
	b.events = append(b.events, ev)
	if b.sink != nil {
		b.sink.RecordProfilerEvent(ev)
	}
}
