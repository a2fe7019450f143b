// Package errors provides structured error reporting for panelkit.
//
// Nothing in panelkit terminates the host process. Failures are reported to
// the installed [ErrorHandler] and the failing operation degrades to a no-op
// with a well-defined return value.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfiguration indicates a missing descriptor, an empty event name,
	// a nil callback or a malformed binding declaration.
	KindConfiguration
	// KindCallback indicates a user hook that returned an error, such as a
	// panel whose Initialize failed. Hooks that panic are reported as
	// [PanicError] instead.
	KindCallback
	// KindResource indicates a template or asset that failed to load.
	KindResource
	// KindMisuse indicates an API used out of order, such as releasing an
	// item the pool does not own or closing a panel that is not open.
	KindMisuse
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindCallback:
		return "callback"
	case KindResource:
		return "resource"
	case KindMisuse:
		return "misuse"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Severity ranks how loudly an error is logged.
type Severity int

const (
	// SeverityError is the default severity.
	SeverityError Severity = iota
	// SeverityWarning is used for misuse that is tolerated as a no-op.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Severity returns the logging severity for errors of this kind.
func (k ErrorKind) Severity() Severity {
	if k == KindMisuse {
		return SeverityWarning
	}
	return SeverityError
}

// UIError represents a structured error in panelkit.
type UIError struct {
	// Op is the operation that failed (e.g., "panel.Open").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Panel is the panel name, if applicable.
	Panel string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *UIError) Error() string {
	if e.Panel != "" {
		return fmt.Sprintf("%s [%s] panel=%s: %v", e.Op, e.Kind, e.Panel, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *UIError) Unwrap() error {
	return e.Err
}

// PanicError represents a panic recovered at a callback site.
type PanicError struct {
	// Op is the operation that panicked (e.g., "events.Trigger(login)").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ErrorHandler receives errors reported by panelkit.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *UIError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
