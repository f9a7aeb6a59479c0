package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which operation produced the error
type Phase string

const (
	PhaseHeap     Phase = "heap"     // foreign memory and allocator
	PhaseAlloc    Phase = "alloc"    // string handle allocation
	PhaseRealloc  Phase = "realloc"  // string handle reallocation
	PhaseConvert  Phase = "convert"  // Value <-> VARIANT bridge
	PhaseWrap     Phase = "wrap"     // adopting raw pointers
	PhaseQuery    Phase = "query"    // capability query
	PhaseActivate Phase = "activate" // class object / instance activation
	PhaseDispatch Phase = "dispatch" // name resolution and invocation
	PhaseRegister Phase = "register" // object and class registration
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation             Kind = "allocation"
	KindInvalidPointer         Kind = "invalid_pointer"
	KindNullTerminatorRequired Kind = "null_terminator_required"
	KindSourceTooLong          Kind = "source_too_long"
	KindNilPointer             Kind = "nil_pointer"
	KindOutOfBounds            Kind = "out_of_bounds"
	KindInvalidInput           Kind = "invalid_input"
	KindUnsupported            Kind = "unsupported"
	KindClosed                 Kind = "closed"
)

// Sentinels for the resource-contract violations. They carry no phase, so
// errors.Is matches any error of the same kind.
var (
	ErrAllocation             = &Error{Kind: KindAllocation}
	ErrInvalidPointer         = &Error{Kind: KindInvalidPointer}
	ErrNullTerminatorRequired = &Error{Kind: KindNullTerminatorRequired}
	ErrSourceTooLong          = &Error{Kind: KindSourceTooLong}
	ErrNilPointer             = &Error{Kind: KindNilPointer}
)

// Error is the structured error type used throughout the library
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	GoType  string
	ABIType string
	Detail  string
	Path    []string
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

	if e.GoType != "" || e.ABIType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.ABIType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", ABI type ")
			b.WriteString(e.ABIType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("ABI type ")
			b.WriteString(e.ABIType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.ABIType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
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

// Path sets the operation path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// ABIType sets the foreign type name
func (b *Builder) ABIType(t string) *Builder {
	b.err.ABIType = t
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

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// InvalidPointer creates an invalid pointer error
func InvalidPointer(phase Phase, ptr uint32, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidPointer,
		Detail: detail,
		Value:  ptr,
	}
}

// NullTerminatorRequired creates the error for a source without a terminating NUL
func NullTerminatorRequired(phase Phase, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNullTerminatorRequired,
		Detail: fmt.Sprintf("source of %d code units has no terminating NUL", length),
		Value:  length,
	}
}

// SourceTooLong creates the error for a source exceeding the 32-bit length limit
func SourceTooLong(phase Phase, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSourceTooLong,
		Detail: fmt.Sprintf("source of %d code units exceeds the 32-bit length limit", length),
		Value:  length,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "cannot wrap an uninitialized handle",
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("memory access out of bounds: offset=%d, length=%d", offset, length),
		Value:  offset,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
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

// Closed creates the error returned by operations on a closed environment
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
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
