package engine

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	luaruntime "github.com/wippyai/lua-runtime"
	"github.com/wippyai/lua-runtime/errors"
)

// GCMode selects the engine's garbage-collection strategy. It is fixed at
// state creation and immutable afterward.
type GCMode uint8

const (
	// GCDefault leaves the engine's allocator at library defaults.
	GCDefault GCMode = iota

	// GCGenerational preallocates the registry and bounds its growth. Value
	// memory on the pure-Go VM is managed by the Go collector; the registry
	// is the allocation the holder controls, so generational mode trades a
	// larger fixed footprint for fewer growth pauses during ticks.
	GCGenerational
)

func (m GCMode) String() string {
	switch m {
	case GCDefault:
		return "default"
	case GCGenerational:
		return "generational"
	default:
		return fmt.Sprintf("GCMode(%d)", uint8(m))
	}
}

// Registry sizing applied in generational mode.
const (
	generationalRegistrySize = 1024 * 8
	generationalRegistryMax  = 1024 * 64
	generationalRegistryGrow = 32
)

// Config holds configuration for engine-state creation.
// The zero value is a usable default.
type Config struct {
	// GCMode selects the garbage-collection strategy.
	GCMode GCMode

	// CallStackSize overrides the engine call stack depth. 0 means the
	// library default.
	CallStackSize int

	// SkipOpenLibs creates the state without the Lua standard libraries.
	SkipOpenLibs bool

	// Allocator supplies adapter-owned marshal buffers. nil means a shared
	// pooled allocator.
	Allocator luaruntime.Allocator
}

// Holder owns exactly one engine state for its lifetime. It is the only
// component allowed to construct or destroy a state. A holder is not safe
// for concurrent use; it belongs to a single runtime instance.
type Holder struct {
	state  *lua.LState
	alloc  luaruntime.Allocator
	gcMode GCMode
	closed bool
}

// NewHolder allocates one engine state per the config. Allocation failure
// is fatal to the caller: no holder is returned and the error carries
// KindAllocation.
func NewHolder(cfg Config) (h *Holder, err error) {
	defer func() {
		if r := recover(); r != nil {
			h = nil
			err = errors.AllocationFailed(fmt.Errorf("%v", r))
		}
	}()

	opts := lua.Options{
		SkipOpenLibs:        cfg.SkipOpenLibs,
		IncludeGoStackTrace: true,
	}
	if cfg.CallStackSize > 0 {
		opts.CallStackSize = cfg.CallStackSize
	}
	if cfg.GCMode == GCGenerational {
		opts.RegistrySize = generationalRegistrySize
		opts.RegistryMaxSize = generationalRegistryMax
		opts.RegistryGrowStep = generationalRegistryGrow
		opts.MinimizeStackMemory = true
	}

	alloc := cfg.Allocator
	if alloc == nil {
		alloc = sharedPool
	}

	state := lua.NewState(opts)

	Logger().Debug("engine state created",
		zap.String("gc_mode", cfg.GCMode.String()))

	return &Holder{
		state:  state,
		alloc:  alloc,
		gcMode: cfg.GCMode,
	}, nil
}

// L exposes the raw engine state. For use by the owning adapter only.
func (h *Holder) L() *lua.LState {
	return h.state
}

// GCMode reports the mode the state was created with.
func (h *Holder) GCMode() GCMode {
	return h.gcMode
}

// Closed reports whether the state has been released.
func (h *Holder) Closed() bool {
	return h.closed
}

// NewThread creates an engine execution context (coroutine thread) sharing
// the holder's state. The returned cancel stops the thread's context and may
// be nil when the state has no context attached.
func (h *Holder) NewThread() (*lua.LState, context.CancelFunc, error) {
	if h.closed {
		return nil, nil, errors.Closed("engine state")
	}
	co, cancel := h.state.NewThread()
	return co, cancel, nil
}

// AllocBuffer obtains a marshal buffer of at least n bytes from the
// configured allocator.
func (h *Holder) AllocBuffer(n int) []byte {
	return h.alloc.Alloc(n)
}

// FreeBuffer returns a marshal buffer to the configured allocator.
func (h *Holder) FreeBuffer(buf []byte) {
	h.alloc.Free(buf)
}

// Close releases the engine state. Closing an already-released state is a
// no-op; destruction and Close are interchangeable.
func (h *Holder) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.state.Close()

	Logger().Debug("engine state closed",
		zap.String("gc_mode", h.gcMode.String()))
	return nil
}
