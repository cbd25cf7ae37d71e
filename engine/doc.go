// Package engine provides the engine-state lifecycle holder.
//
// This package wraps gopher-lua to give each runtime instance exactly one
// engine state with a fixed configuration. No other component may construct
// or destroy a state.
//
// # Lifecycle
//
//	holder, err := engine.NewHolder(engine.Config{GCMode: engine.GCGenerational})
//	if err != nil {
//	    // allocation failure is fatal to the owning instance
//	}
//	defer holder.Close() // idempotent
//
// The raw state is reachable through Holder.L() and is intended for the
// owning adapter only. Engine threads (coroutine contexts) for re-entrant
// calls come from Holder.NewThread().
//
// # Configuration
//
// GCMode and the allocator are fixed at creation and immutable afterward.
// GCGenerational preallocates the registry and bounds its growth; on the
// pure-Go VM, value memory is managed by the Go collector, so the registry
// is the allocation knob the holder actually controls.
//
// The Allocator supplies adapter-owned marshal buffers for values crossing
// the host/engine boundary. The default is a process-wide sync.Pool; a
// custom allocator must be safe for concurrent use across instances.
//
// # Thread Safety
//
// A Holder is not safe for concurrent use. It belongs to the single
// goroutine driving its runtime instance.
package engine
