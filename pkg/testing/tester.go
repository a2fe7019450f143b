package testing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
	"github.com/go-drift/panelkit/pkg/headless"
	"github.com/go-drift/panelkit/pkg/panel"
	"github.com/go-drift/panelkit/pkg/prefs"
	"github.com/go-drift/panelkit/pkg/resource"
)

// DefaultLayers are the layers a tester registers panels against unless
// SetLayers is called.
var DefaultLayers = []string{"bottom", "normal", "top", "system"}

// DefaultSettleTimeout is a reasonable bound for PumpAndSettle.
const DefaultSettleTimeout = 5 * time.Second

var (
	// ErrSettleTimeout is returned when PumpAndSettle exceeds its round limit.
	ErrSettleTimeout = errors.New("PumpAndSettle timed out: loads or dispatches still pending")
	// ErrNoMatch is returned by gestures whose finder matched nothing.
	ErrNoMatch = errors.New("finder matched no nodes")
	// ErrUnsupportedGesture is returned when the matched widget cannot
	// receive the gesture.
	ErrUnsupportedGesture = errors.New("widget does not support the gesture")
)

// PanelTester runs panels against the headless renderer, an in-memory
// asset tree and in-memory preferences. Reported UI errors are captured
// instead of logged.
type PanelTester struct {
	assets      fstest.MapFS
	layers      []string
	descs       []panel.Descriptor
	types       map[string]panel.Factory
	mask        string
	renderer    *headless.Renderer
	resources   *resource.Provider
	prefs       *prefs.Store
	errors      *uierrors.Recorder
	restore     func()
	manager     *panel.Manager
	transitions []panel.Transition

	// Resource workers dispatch from their own goroutines.
	mu         sync.Mutex
	dispatches []func()
	wake       chan struct{}
}

// NewPanelTester creates a tester with an empty asset tree.
// Call Cleanup() when done, or use NewPanelTesterWithT() instead.
func NewPanelTester() *PanelTester {
	rec, restore := uierrors.Capture()
	return &PanelTester{
		assets:   fstest.MapFS{},
		layers:   DefaultLayers,
		types:    make(map[string]panel.Factory),
		renderer: headless.NewRenderer(),
		prefs:    prefs.NewMemory(),
		errors:   rec,
		restore:  restore,
		wake:     make(chan struct{}, 1),
	}
}

// NewPanelTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewPanelTesterWithT(t *testing.T) *PanelTester {
	tester := NewPanelTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup destroys every panel and restores the error handler.
func (t *PanelTester) Cleanup() {
	if t.manager != nil {
		t.manager.Shutdown()
	}
	if t.restore != nil {
		t.restore()
		t.restore = nil
	}
}

// SetLayers replaces the layer names. Must be called before the manager
// is first used.
func (t *PanelTester) SetLayers(layers ...string) {
	t.layers = layers
}

// SetMaskTemplate sets the template instantiated behind masked panels.
func (t *PanelTester) SetMaskTemplate(path string) {
	t.mask = path
}

// AddTemplate stores a YAML template under path + ".yaml".
func (t *PanelTester) AddTemplate(path, yaml string) {
	t.AddAsset(path+".yaml", []byte(yaml))
}

// AddAsset stores raw data under file.
func (t *PanelTester) AddAsset(file string, data []byte) {
	t.assets[file] = &fstest.MapFile{Data: data}
}

// Register adds a descriptor and, when f is not nil, its behavior.
func (t *PanelTester) Register(desc panel.Descriptor, f panel.Factory) {
	t.descs = append(t.descs, desc)
	if f != nil {
		t.types[desc.Name] = f
	}
}

// Manager returns the panel manager, building it on first use. It panics
// if the registered descriptors are invalid.
func (t *PanelTester) Manager() *panel.Manager {
	if t.manager != nil {
		return t.manager
	}
	reg, err := panel.NewRegistry(t.layers, t.descs...)
	if err != nil {
		panic(fmt.Sprintf("paneltest: %v", err))
	}
	t.resources = resource.New(t.assets, resource.WithDispatcher(t.Dispatch))
	m, err := panel.NewManager(panel.Options{
		Registry:     reg,
		Renderer:     t.renderer,
		Resources:    t.resources,
		MaskTemplate: t.mask,
		Services:     &panel.Services{Prefs: t.prefs},
		OnTransition: func(tr panel.Transition) { t.transitions = append(t.transitions, tr) },
	})
	if err != nil {
		panic(fmt.Sprintf("paneltest: %v", err))
	}
	for name, f := range t.types {
		m.RegisterType(name, f)
	}
	t.manager = m
	return m
}

// Open opens name synchronously.
func (t *PanelTester) Open(name string, args ...any) (*panel.Instance, error) {
	return t.Manager().Open(name, args...)
}

// OpenAsync starts an asynchronous open. done runs during a later Pump.
func (t *PanelTester) OpenAsync(ctx context.Context, name string, done func(*panel.Instance, error), args ...any) {
	t.Manager().OpenAsync(ctx, name, done, args...)
}

// Close closes name.
func (t *PanelTester) Close(name string) error {
	return t.Manager().Close(name)
}

// Dispatch queues a callback for the next Pump, mirroring a host loop.
// It is safe to call from any goroutine.
func (t *PanelTester) Dispatch(fn func()) {
	t.mu.Lock()
	t.dispatches = append(t.dispatches, fn)
	t.mu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued callbacks plus the number of
// resource loads still in flight.
func (t *PanelTester) Pending() int {
	n := t.queued()
	if t.resources != nil {
		n += t.resources.Pending()
	}
	return n
}

// Pump runs the callbacks queued so far. Callbacks they queue wait for
// the next Pump.
func (t *PanelTester) Pump() {
	t.mu.Lock()
	dispatches := t.dispatches
	t.dispatches = nil
	t.mu.Unlock()
	for _, fn := range dispatches {
		fn()
	}
}

// PumpAndSettle pumps until no callbacks are queued and no loads are in
// flight, waiting for worker loads as needed. Returns ErrSettleTimeout if
// that does not happen within timeout.
func (t *PanelTester) PumpAndSettle(timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		t.Pump()
		if t.Pending() == 0 {
			return nil
		}
		if t.queued() == 0 {
			select {
			case <-t.wake:
			case <-deadline.C:
				return ErrSettleTimeout
			}
			continue
		}
		select {
		case <-deadline.C:
			return ErrSettleTimeout
		default:
		}
	}
}

func (t *PanelTester) queued() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.dispatches)
}

// Renderer returns the headless renderer.
func (t *PanelTester) Renderer() *headless.Renderer {
	return t.renderer
}

// Resources returns the resource provider. It is nil until the manager
// is built.
func (t *PanelTester) Resources() *resource.Provider {
	return t.resources
}

// Prefs returns the in-memory preferences handed to panels.
func (t *PanelTester) Prefs() *prefs.Store {
	return t.prefs
}

// Errors returns the recorder capturing reported UI errors.
func (t *PanelTester) Errors() *uierrors.Recorder {
	return t.errors
}

// Transitions returns every state change observed so far.
func (t *PanelTester) Transitions() []panel.Transition {
	return t.transitions
}

// Find evaluates a finder against every layer root.
func (t *PanelTester) Find(finder Finder) FinderResult {
	var nodes []*headless.Node
	for _, root := range t.renderer.Roots() {
		nodes = append(nodes, finder.Evaluate(root)...)
	}
	return FinderResult{nodes: nodes, finder: finder}
}

// Tap activates the first button matched by finder.
func (t *PanelTester) Tap(finder Finder) error {
	n, err := t.first(finder)
	if err != nil {
		return err
	}
	switch w := n.Widget().(type) {
	case *headless.Button:
		w.Tap()
	case *headless.Toggle:
		w.Click()
	default:
		return fmt.Errorf("tap %s: %w", n.Path(), ErrUnsupportedGesture)
	}
	return nil
}

// Type replaces the text of the first input matched by finder.
func (t *PanelTester) Type(finder Finder, text string) error {
	n, err := t.first(finder)
	if err != nil {
		return err
	}
	in, ok := n.Widget().(*headless.Input)
	if !ok {
		return fmt.Errorf("type into %s: %w", n.Path(), ErrUnsupportedGesture)
	}
	in.Type(text)
	return nil
}

// Submit commits the first input matched by finder.
func (t *PanelTester) Submit(finder Finder) error {
	n, err := t.first(finder)
	if err != nil {
		return err
	}
	in, ok := n.Widget().(*headless.Input)
	if !ok {
		return fmt.Errorf("submit %s: %w", n.Path(), ErrUnsupportedGesture)
	}
	in.Commit()
	return nil
}

// Select picks option i of the first dropdown matched by finder.
func (t *PanelTester) Select(finder Finder, i int) error {
	n, err := t.first(finder)
	if err != nil {
		return err
	}
	d, ok := n.Widget().(*headless.Dropdown)
	if !ok {
		return fmt.Errorf("select on %s: %w", n.Path(), ErrUnsupportedGesture)
	}
	d.Select(i)
	return nil
}

func (t *PanelTester) first(finder Finder) (*headless.Node, error) {
	n := t.Find(finder).FirstOrNil()
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, finder.Description())
	}
	return n, nil
}
