package runtime

import (
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	luaruntime "github.com/wippyai/lua-runtime"
	"github.com/wippyai/lua-runtime/engine"
	"github.com/wippyai/lua-runtime/errors"
	"github.com/wippyai/lua-runtime/profiler"
	"github.com/wippyai/lua-runtime/refs"
	"github.com/wippyai/lua-runtime/scripthost"
)

// instanceCounter allocates process-unique instance ids.
var instanceCounter atomic.Uint32

// Config holds configuration for instance creation.
type Config struct {
	// Resource names the script unit this instance belongs to. Empty falls
	// back to the Files collaborator's resource name.
	Resource string

	// NativesDir locates native-call definition files relative to the
	// system file collaborator.
	NativesDir string

	// Files resolves host-provided script files. Optional.
	Files scripthost.Files

	// System resolves system/bundled script files, tried after Files.
	// Optional.
	System scripthost.Files

	// Natives resolves native-call names to identifiers. Optional; without
	// it every resolution reports unresolved (and is never cached absent).
	Natives NativeRegistry

	// Bookmarks is notified when deferred work is scheduled so the host can
	// align its tick cadence. Optional.
	Bookmarks luaruntime.BookmarkHost

	// Sink receives profiling observations. Optional.
	Sink profiler.Sink

	// Engine configures the owned engine state.
	Engine engine.Config

	// Logger for instance diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// NoRouter skips installing the built-in reference router routines,
	// leaving every routine slot open for host injection.
	NoRouter bool
}

// Instance is the adapter bridging one loaded script unit to the host. It
// owns one engine state, the cross-boundary reference table, the pending
// bookmark queue, and the running-thread stack.
//
// An Instance is single-threaded: the host drives it from one goroutine
// through ticks and synchronous calls. Distinct instances are independent.
type Instance struct {
	id       luaruntime.InstanceID
	resource string

	holder *engine.Holder
	refs   *refs.Table
	prof   *profiler.Bridge
	log    *zap.Logger

	files      scripthost.Files
	system     scripthost.Files
	bookmarks  luaruntime.BookmarkHost
	nativesDir string

	dbTraceback *lua.LFunction
	profScratch *lua.LTable

	routines routines

	running []*lua.LState

	natives     NativeRegistry
	nativeIDs   map[string]NativeID
	nonExistent map[uint32]struct{}

	pending  []pendingBookmark
	seq      uint64
	tickTime time.Time // last host tick, the only clock scripts see

	corrupted bool
	closed    bool
}

// New constructs a runtime instance and its engine state. Engine allocation
// failure is fatal: no instance is returned.
func New(cfg Config) (*Instance, error) {
	holder, err := engine.NewHolder(cfg.Engine)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	resource := cfg.Resource
	if resource == "" && cfg.Files != nil {
		resource = cfg.Files.ResourceName()
	}

	id := luaruntime.InstanceID(instanceCounter.Add(1))
	log = log.With(zap.Uint32("instance", uint32(id)), zap.String("resource", resource))

	i := &Instance{
		id:          id,
		resource:    resource,
		holder:      holder,
		refs:        refs.NewTable(),
		log:         log,
		files:       cfg.Files,
		system:      cfg.System,
		bookmarks:   cfg.Bookmarks,
		nativesDir:  cfg.NativesDir,
		natives:     cfg.Natives,
		nativeIDs:   make(map[string]NativeID),
		nonExistent: make(map[uint32]struct{}),
		// Scheduling before the first host tick measures timeouts from the
		// construction instant, never from the zero time.
		tickTime: time.Now(),
	}

	if dbg, ok := holder.L().GetGlobal("debug").(*lua.LTable); ok {
		if tb, ok := holder.L().GetField(dbg, "traceback").(*lua.LFunction); ok {
			i.dbTraceback = tb
		}
	}

	i.prof = profiler.New(profiler.Config{
		Resource: resource,
		Instance: id,
		Logger:   log,
		Sink:     cfg.Sink,
		Stack:    i.captureFrames,
		Setup:    i.profilerSetup,
		Teardown: i.profilerTeardown,
	})

	if !cfg.NoRouter {
		i.bindRouter()
	}

	log.Debug("runtime instance created",
		zap.String("gc_mode", cfg.Engine.GCMode.String()))

	return i, nil
}

// ID returns the process-unique instance id.
func (i *Instance) ID() luaruntime.InstanceID {
	return i.id
}

// ResourceName returns the name of the resource this instance belongs to.
func (i *Instance) ResourceName() string {
	return i.resource
}

// NativesDir returns the native-call definition directory.
func (i *Instance) NativesDir() string {
	return i.nativesDir
}

// State exposes the raw engine state for adapter-level glue.
func (i *Instance) State() *lua.LState {
	return i.holder.L()
}

// Profiler returns the instance's profiling/debug bridge.
func (i *Instance) Profiler() *profiler.Bridge {
	return i.prof
}

// Close tears the instance down: pending bookmarks are discarded, the
// reference table is drained, and the engine state is released. Closing an
// already-closed instance is a no-op.
func (i *Instance) Close() error {
	if i.closed {
		return nil
	}
	i.closed = true

	if i.prof.Active() {
		i.prof.Tick(false)
	}

	i.pending = nil
	i.running = nil
	if err := i.refs.Close(); err != nil {
		i.log.Warn("reference table close failed", zap.Error(err))
	}

	i.log.Debug("runtime instance closed")
	return i.holder.Close()
}

// usable gates every operation: a closed or corrupted instance refuses
// further work.
func (i *Instance) usable() error {
	if i.closed {
		return errors.Closed("runtime instance")
	}
	if i.corrupted {
		return errors.Corrupt("engine state unusable", nil)
	}
	return nil
}

// markCorrupt latches the fatal state. Only genuinely unrecoverable engine
// failures come through here; recoverable script errors never do.
func (i *Instance) markCorrupt(cause error) {
	if i.corrupted {
		return
	}
	i.corrupted = true
	i.log.Error("engine state corrupted, instance disabled", zap.Error(cause))
	i.prof.EmitDebug("engine-corrupt", cause.Error())
}
