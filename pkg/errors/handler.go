package errors

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// DefaultHandler receives every report from panels, bindings, signals
	// and the resource provider. The app replaces it from configuration.
	DefaultHandler ErrorHandler = &LogHandler{}

	handlerMu sync.RWMutex
)

// SetHandler installs h as the process-wide handler. Nil restores a quiet
// LogHandler.
func SetHandler(h ErrorHandler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	if h == nil {
		h = &LogHandler{}
	}
	DefaultHandler = h
}

func handler() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return DefaultHandler
}

// Report hands err to the installed handler and returns. The operation that
// failed is expected to degrade to a no-op on its own.
func Report(err *UIError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if h := handler(); h != nil {
		h.HandleError(err)
	}
}

// ReportPanic hands a recovered panel or listener panic to the handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if h := handler(); h != nil {
		h.HandlePanic(err)
	}
}

// Recover reports a panic in progress. Defer it at the top of a goroutine
// or frame that must not take the host down:
//
//	defer errors.Recover("app.Run")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(recovered(op, r))
	}
}

// Call runs one user hook, listener or observer as op. A panic is reported
// and swallowed so sibling callbacks in the same dispatch still run; Call
// then returns false.
func Call(op string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ReportPanic(recovered(op, r))
			ok = false
		}
	}()
	fn()
	return true
}

func recovered(op string, v any) *PanicError {
	return &PanicError{Op: op, Value: v, StackTrace: CaptureStack(), Timestamp: time.Now()}
}

// CaptureStack formats the stack of the caller's caller, one
// "function\n\tfile:line" pair per frame.
func CaptureStack() string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return ""
	}

	var sb strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		sb.WriteString(frame.Function + "\n\t" + frame.File + ":" + strconv.Itoa(frame.Line) + "\n")
		if !more {
			break
		}
	}
	return sb.String()
}
