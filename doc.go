// Package luaruntime embeds a Lua virtual machine inside a host application
// and exposes a uniform contract for loading, ticking, calling into, and
// tearing down script units.
//
// A host typically manages many script units concurrently. Each unit gets
// one runtime instance, each instance owns exactly one engine state, and the
// host drives all progress through explicit tick and call entry points.
// There are no internal background threads: re-entrancy, not parallelism,
// is the concurrency concern.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	luaruntime/          Root package with capability interfaces
//	├── runtime/         Runtime instance: loading, ticking, bookmarks,
//	│                    reference routing, native-call resolution
//	├── engine/          Engine-state lifecycle holder over gopher-lua
//	├── refs/            Ref-counted handle arena for engine values
//	├── profiler/        Profiling/debug bridge and trace export
//	├── scripthost/      Script file collaborators (dir, bundled, cached HTTP)
//	└── errors/          Structured error types
//
// # Quick Start
//
// Load and tick a script unit:
//
//	inst, err := runtime.New(runtime.Config{
//	    Resource: "spawnmanager",
//	    Files:    scripthost.NewDir("spawnmanager", "./resources/spawnmanager"),
//	    System:   scripthost.NewFS("system", systemFS),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close()
//
//	if err := inst.LoadFile("spawnmanager.lua"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for range ticker.C {
//	    inst.Tick(time.Now())
//	}
//
// # Capability Interfaces
//
// The host talks to an instance through independent capability interfaces
// rather than one wide surface: FileHandlingRuntime, TickRuntime,
// BookmarkRuntime, EventRuntime, RefRuntime, MemInfoRuntime,
// StackWalkingRuntime, DebugRuntime, ProfilerRuntime, and WarningRuntime.
// *runtime.Instance implements all of them.
//
// # Cross-Boundary References
//
// Engine callables never cross the boundary as raw values. The instance
// issues ref-counted integer handles instead:
//
//	ref, _ := inst.CreateRef(fn)       // first crossing
//	out, _ := inst.CallRef(ref, args)  // invoke later
//	dup, _ := inst.DuplicateRef(ref)   // count++
//	_ = inst.DeleteRef(ref)            // count--; released at zero
//
// Using a released ref fails with an invalid-reference error, never
// undefined behavior. All call payloads are flat byte buffers; an empty
// buffer is the engine's "no value".
//
// # Error Handling
//
// Load and call failures are recoverable and reported per call; the engine
// state stays usable. Engine-state corruption and allocation failure are
// fatal to the owning instance, which refuses further operations once
// corruption is detected. See the errors package for the taxonomy.
//
// # Thread Safety
//
// A runtime instance is single-threaded and cooperative: it must be driven
// from one goroutine. Distinct instances share no mutable state and may run
// on distinct goroutines freely. Shared collaborators (allocators, native
// registries, script sources) must be safe for concurrent use across
// instances.
package luaruntime
