// Package errors provides structured error types for the lua-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the owning resource name and script file
// for host-side logging, plus a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLoad, errors.KindCompile).
//		Resource("spawnmanager").
//		Script("spawnmanager.lua").
//		Cause(luaErr).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.FileNotFound("spawnmanager", "missing.lua")
//	err := errors.InvalidRef(ref)
//
// Kinds split into recoverable and fatal. Recoverable errors (not_found,
// compile, exec, invalid_ref, unresolved_native, invalid_bookmark) are
// reported per call and leave the instance usable. Fatal kinds (corrupt,
// allocation) poison the owning instance; IsFatal reports the distinction.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
