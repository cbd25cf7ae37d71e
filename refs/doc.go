// Package refs provides the cross-boundary reference arena.
//
// Native host code cannot safely hold raw engine values across calls, so
// every callable that crosses the host/engine boundary is interned here and
// represented outside by an opaque integer handle.
//
// # Handle Table
//
// The Table maps generation-checked handles to engine values:
//
//	table := refs.NewTable()
//
//	// First crossing: intern the callable, count starts at one
//	h := table.Create(fn)
//
//	// Another holder appears
//	h, _ = table.Retain(h)
//
//	// Each holder releases; the value is dropped at zero
//	table.Release(h)
//	table.Release(h)
//
// # Validity
//
// A handle is valid exactly while its net reference count is positive.
// Releases past zero, stale generations, and handle 0 all resolve to
// nothing; callers surface that as an invalid-reference error. A freed slot
// bumps its generation before reuse, so a held stale handle can never
// observe the slot's next occupant.
//
// # Pinning
//
// The table holds the engine value itself, which pins it for the engine's
// collector. Dropping the last reference removes the pin; collection is then
// the engine's business.
//
// # Observers
//
// Lifecycle observers receive Created/Retained/Released/Dropped events, used
// by the profiling bridge to attribute reference churn. Observers must not
// call back into the table.
package refs
