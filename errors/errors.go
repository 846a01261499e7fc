package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseValidate Phase = "validate" // argument and shape validation
	PhaseEncode   Phase = "encode"   // host to engine memory
	PhaseDecode   Phase = "decode"   // engine memory to host
	PhaseCall     Phase = "call"     // engine entry point invocation
	PhaseRuntime  Phase = "runtime"  // runtime operations
	PhaseLoad     Phase = "load"     // module loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidHandle  Kind = "invalid_handle"
	KindKindMismatch   Kind = "kind_mismatch"
	KindShapeMismatch  Kind = "shape_mismatch"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindMisaligned     Kind = "misaligned"
	KindOverflow       Kind = "overflow"
	KindAllocation     Kind = "allocation"
	KindInvalidUTF8    Kind = "invalid_utf8"
	KindInvalidInput   Kind = "invalid_input"
	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindEngineFailure  Kind = "engine_failure"
	KindExhausted      Kind = "exhausted"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
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

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
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

// InvalidHandle creates an invalid-or-closed handle error
func InvalidHandle(context string, handle int64) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("%s: invalid or closed handle %d", context, handle),
		Value:  handle,
	}
}

// KindMismatch creates a resource-kind mismatch error naming the actual kind
func KindMismatch(context string, handle int64, actual string, allowed []string) *Error {
	return &Error{
		Phase: PhaseValidate,
		Kind:  KindKindMismatch,
		Detail: fmt.Sprintf("%s: handle %d is a %q resource, expected one of %s",
			context, handle, actual, strings.Join(allowed, ", ")),
		Value: handle,
	}
}

// ShapeMismatch creates a parallel-array shape mismatch error
func ShapeMismatch(path []string, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindShapeMismatch,
		Path:   path,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size, align uint32, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Cause:  cause,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, offset, length uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("memory access out of bounds: offset=%d length=%d", offset, length),
		Cause:  cause,
	}
}

// Misaligned creates a misaligned pointer error
func Misaligned(phase Phase, offset, elemSize uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMisaligned,
		Detail: fmt.Sprintf("offset %d is not a multiple of element size %d", offset, elemSize),
		Value:  offset,
	}
}

// Overflow creates an overflow error
func Overflow(path []string, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// NotInitialized creates a not-initialized error for a missing component
func NotInitialized(component string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
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

// Exhausted creates a fatal id-space or capacity exhaustion error
func Exhausted(what string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("%s exhausted", what),
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
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
