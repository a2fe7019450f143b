package errors

import "sync"

// Recorder is an ErrorHandler that keeps every report in memory.
// Tests install it with Capture to assert on logged no-ops.
type Recorder struct {
	mu     sync.Mutex
	errors []*UIError
	panics []*PanicError
}

// Capture installs a new Recorder as the global handler and returns it
// together with a function that restores the previous handler.
func Capture() (*Recorder, func()) {
	handlerMu.RLock()
	prev := DefaultHandler
	handlerMu.RUnlock()

	r := &Recorder{}
	SetHandler(r)
	return r, func() { SetHandler(prev) }
}

// HandleError records err.
func (r *Recorder) HandleError(err *UIError) {
	r.mu.Lock()
	r.errors = append(r.errors, err)
	r.mu.Unlock()
}

// HandlePanic records err.
func (r *Recorder) HandlePanic(err *PanicError) {
	r.mu.Lock()
	r.panics = append(r.panics, err)
	r.mu.Unlock()
}

// Errors returns the recorded errors in report order.
func (r *Recorder) Errors() []*UIError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*UIError(nil), r.errors...)
}

// Panics returns the recorded panics in report order.
func (r *Recorder) Panics() []*PanicError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*PanicError(nil), r.panics...)
}

// Count returns how many errors of kind were recorded.
func (r *Recorder) Count(kind ErrorKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.errors {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.errors = nil
	r.panics = nil
	r.mu.Unlock()
}
