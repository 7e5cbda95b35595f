package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/wippyai/edge-abi/abi"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConfig   Phase = "config"   // configuration loading
	PhaseLoad     Phase = "load"     // guest module compilation
	PhaseLink     Phase = "link"     // import resolution
	PhaseRuntime  Phase = "runtime"  // guest instantiation and execution
	PhaseHost     Phase = "host"     // host call handling
	PhaseMemory   Phase = "memory"   // guest memory access
	PhaseBackend  Phase = "backend"  // backend dispatch
	PhaseDispatch Phase = "dispatch" // downstream request handling
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidData    Kind = "invalid_data"
	KindNotFound       Kind = "not_found"
	KindBadHandle      Kind = "bad_handle"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindBufferTooSmall Kind = "buffer_too_small"
	KindUnsupported    Kind = "unsupported"
	KindInvalidState   Kind = "invalid_state"
	KindTransport      Kind = "transport"
	KindMissingImport  Kind = "missing_import"
	KindInstantiation  Kind = "instantiation"
	KindExit           Kind = "exit"
)

// Error is the structured error type used by the host side.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Func   string
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

	if e.Func != "" {
		b.WriteString(" in ")
		b.WriteString(e.Func)
	}

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

// Func sets the host call the error belongs to, as "module#name".
func (b *Builder) Func(name string) *Builder {
	b.err.Func = name
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

// StatusOf maps an error to the status reported to the guest. A bare
// abi.Status passes through; structured errors map by Kind.
func StatusOf(err error) abi.Status {
	if err == nil {
		return abi.StatusOK
	}

	var status abi.Status
	if stderrors.As(err, &status) {
		return status
	}

	var e *Error
	if !stderrors.As(err, &e) {
		return abi.StatusError
	}
	switch e.Kind {
	case KindBadHandle:
		return abi.StatusBadDescriptor
	case KindInvalidInput, KindNotFound, KindOutOfBounds, KindInvalidData:
		return abi.StatusInvalidValue
	case KindBufferTooSmall:
		return abi.StatusBufferTooSmall
	case KindUnsupported:
		return abi.StatusUnsupported
	default:
		return abi.StatusError
	}
}

// Convenience constructors for common error patterns

// BadHandle creates an error for a stale handle or one of the wrong kind.
func BadHandle(fn string, kind string, handle uint32) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindBadHandle,
		Func:   fn,
		Detail: fmt.Sprintf("no %s with handle %d", kind, handle),
		Value:  handle,
	}
}

// OutOfBounds creates an error for a guest pointer range outside memory.
func OutOfBounds(fn string, ptr, length uint32) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindOutOfBounds,
		Func:   fn,
		Detail: fmt.Sprintf("range [%d, %d) outside guest memory", ptr, uint64(ptr)+uint64(length)),
	}
}

// BufferTooSmall creates an error for an output that does not fit.
func BufferTooSmall(fn string, need, have int) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindBufferTooSmall,
		Func:   fn,
		Detail: fmt.Sprintf("need %d bytes, have %d", need, have),
		Value:  need,
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

// InvalidState creates an error for an operation the entity no longer allows.
func InvalidState(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidState,
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

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Config creates a configuration error
func Config(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: detail,
	}
}

// Backend creates a backend dispatch error
func Backend(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseBackend,
		Kind:   KindTransport,
		Detail: fmt.Sprintf("backend %q", name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Exit creates an error for a guest that exited with a non-zero code.
func Exit(code uint32) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindExit,
		Detail: fmt.Sprintf("guest exited with code %d", code),
		Value:  code,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
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

// MissingImport represents a single unresolved guest import
type MissingImport struct {
	Module   string // e.g., "fastly_http_req"
	Function string // e.g., "header_names_get"
}

// MissingImportsError is returned when a guest imports host functions the
// host does not provide
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError creates an error from a list of "module#function" strings
func NewMissingImportsError(imports []string) *MissingImportsError {
	result := &MissingImportsError{
		Imports: make([]MissingImport, 0, len(imports)),
	}
	for _, imp := range imports {
		mod, fn, _ := strings.Cut(imp, "#")
		result.Imports = append(result.Imports, MissingImport{
			Module:   mod,
			Function: fn,
		})
	}
	return result
}

func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[link] missing_import: no imports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "missing %d host function(s):\n", len(e.Imports))

	byModule := make(map[string][]string)
	var order []string
	for _, imp := range e.Imports {
		if _, exists := byModule[imp.Module]; !exists {
			order = append(order, imp.Module)
		}
		byModule[imp.Module] = append(byModule[imp.Module], imp.Function)
	}

	for _, mod := range order {
		b.WriteString("\n  ")
		b.WriteString(mod)
		b.WriteString(":\n")
		for _, fn := range byModule[mod] {
			b.WriteString("    - ")
			b.WriteString(fn)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingImportsError) Is(target error) bool {
	_, ok := target.(*MissingImportsError)
	return ok
}
