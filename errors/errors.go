package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // script file loading and execution
	PhaseCall     Phase = "call"     // synchronous and ref-routed calls
	PhaseTick     Phase = "tick"     // tick and event delivery
	PhaseSchedule Phase = "schedule" // bookmark scheduling
	PhaseEngine   Phase = "engine"   // engine state lifecycle
	PhaseProfile  Phase = "profile"  // profiling/debug bridge
	PhaseHost     Phase = "host"     // host collaborator failures
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindCompile          Kind = "compile"
	KindExec             Kind = "exec"
	KindInvalidRef       Kind = "invalid_ref"
	KindUnresolvedNative Kind = "unresolved_native"
	KindInvalidBookmark  Kind = "invalid_bookmark"
	KindCorrupt          Kind = "corrupt"
	KindAllocation       Kind = "allocation"
	KindClosed           Kind = "closed"
	KindInvalidInput     Kind = "invalid_input"
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	Resource string
	Script   string
	Detail   string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Resource != "" {
		b.WriteString(" in ")
		b.WriteString(e.Resource)
	}
	if e.Script != "" {
		b.WriteString(" (")
		b.WriteString(e.Script)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Fatal reports whether the error is unrecoverable for the owning instance.
// Corruption and allocation failure poison the engine state; everything else
// is reported per call and leaves the instance usable.
func (e *Error) Fatal() bool {
	return e.Kind == KindCorrupt || e.Kind == KindAllocation
}

// IsFatal reports whether err carries a fatal runtime error.
func IsFatal(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Fatal()
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Resource sets the owning resource name
func (b *Builder) Resource(name string) *Builder {
	b.err.Resource = name
	return b
}

// Script sets the script file name
func (b *Builder) Script(name string) *Builder {
	b.err.Script = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// FileNotFound creates a load error for a script that no host or system
// collaborator could resolve
func FileNotFound(resource, script string) *Error {
	return &Error{
		Phase:    PhaseLoad,
		Kind:     KindNotFound,
		Resource: resource,
		Script:   script,
		Detail:   "script file not found",
	}
}

// CompileFailed creates a load error for a parse/compile failure
func CompileFailed(resource, script string, cause error) *Error {
	return &Error{
		Phase:    PhaseLoad,
		Kind:     KindCompile,
		Resource: resource,
		Script:   script,
		Cause:    cause,
	}
}

// ExecFailed creates an execution error during load or call
func ExecFailed(phase Phase, resource, script string, cause error) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindExec,
		Resource: resource,
		Script:   script,
		Cause:    cause,
	}
}

// InvalidRef creates a call error for an invalid or expired reference
func InvalidRef(ref int32) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindInvalidRef,
		Detail: fmt.Sprintf("invalid reference %d", ref),
	}
}

// UnresolvedNative creates a call error for a native name with no known
// implementation
func UnresolvedNative(name string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindUnresolvedNative,
		Detail: fmt.Sprintf("native %q does not exist", name),
	}
}

// InvalidBookmark creates a scheduling error for an invalid bookmark id
func InvalidBookmark(bookmark uint64) *Error {
	return &Error{
		Phase:  PhaseSchedule,
		Kind:   KindInvalidBookmark,
		Detail: fmt.Sprintf("invalid bookmark %d", bookmark),
	}
}

// Corrupt creates a fatal engine-state error
func Corrupt(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindCorrupt,
		Detail: detail,
		Cause:  cause,
	}
}

// AllocationFailed creates a fatal engine allocation error
func AllocationFailed(cause error) *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindAllocation,
		Detail: "engine state allocation failed",
		Cause:  cause,
	}
}

// Closed creates an error for an operation on a released component
func Closed(what string) *Error {
	return &Error{
		Phase:  PhaseEngine,
		Kind:   KindClosed,
		Detail: what + " is closed",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
