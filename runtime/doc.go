// Package runtime implements the per-script-unit adapter instance.
//
// An Instance owns one engine state and everything that hangs off it: the
// cross-boundary reference table, the pending-bookmark queue, the
// running-thread stack, the native resolution caches, and the profiling
// bridge. The host drives an instance from a single goroutine; distinct
// instances share nothing and may run on distinct goroutines.
//
// # Lifecycle
//
//	inst, err := runtime.New(runtime.Config{
//		Resource: "gamemode",
//		Files:    scripthost.NewDir("gamemode", "./scripts"),
//	})
//	if err != nil {
//		return err
//	}
//	defer inst.Close()
//
//	if err := inst.LoadFile("main.lua"); err != nil {
//		return err
//	}
//	for range ticker.C {
//		inst.Tick(time.Now())
//	}
//
// # Routines
//
// Dispatch into script code goes through write-once routine cells: tick,
// event, reference call/duplicate/delete, stack trace, result
// materialization, and boundary bracketing. The built-in router claims the
// reference cells at construction; a host constructing with NoRouter injects
// its own before first use. A cell, once written, never changes.
//
// # Bookmarks
//
// ScheduleBookmarkSoon queues deferred work against the tick clock. Dispatch
// happens on the first Tick at or past the due time, in (due, scheduling
// order). A bookmark that reschedules itself during dispatch runs on a later
// drain, never the current one.
//
// # Failure Containment
//
// Script errors are reported per call and leave the instance usable. Only an
// engine panic latches the corrupt state, after which every operation
// refuses with a fatal error until Close.
package runtime
