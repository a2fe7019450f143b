package panel

import (
	"context"
	"errors"
	"fmt"
	"slices"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
	"github.com/go-drift/panelkit/pkg/events"
	"github.com/go-drift/panelkit/pkg/host"
	"github.com/go-drift/panelkit/pkg/pool"
	"github.com/go-drift/panelkit/pkg/signal"
)

var (
	// ErrNotRegistered is returned when no descriptor matches a name.
	ErrNotRegistered = errors.New("panel: no descriptor registered")
	// ErrNotOpen is returned when closing a panel that is not open.
	ErrNotOpen = errors.New("panel: not open")
	// ErrLayerRoots is returned when the number of layer roots does not
	// match the number of layers.
	ErrLayerRoots = errors.New("panel: layer root count does not match layers")
	// ErrNoRenderer is returned when a manager is built without a renderer.
	ErrNoRenderer = errors.New("panel: renderer is required")
	// ErrInitialize wraps the failure of a panel's Initialize hook.
	ErrInitialize = errors.New("panel: initialize failed")
)

// LayerSortStep separates the sort orders of adjacent layer roots.
const LayerSortStep = 100

// Options configures a Manager.
type Options struct {
	Registry  *Registry
	Renderer  host.Renderer
	Resources host.ResourceProvider
	// Roots are the layer roots, one per registry layer. When nil the
	// manager creates them with the renderer.
	Roots []host.Node
	// MaskTemplate is loaded for mask overlays. Without it masks are empty
	// nodes.
	MaskTemplate string
	// Services shared with panels. Events and Signals are created when nil.
	Services *Services
	// OnTransition observes every state change.
	OnTransition func(Transition)
}

// Manager opens, caches and destroys panels. It is not safe for concurrent
// use; call it from the UI thread.
type Manager struct {
	registry     *Registry
	renderer     host.Renderer
	resources    host.ResourceProvider
	services     *Services
	roots        []host.Node
	maskTemplate string
	onTransition func(Transition)

	types map[string]Factory
	pools *pool.Registry[*Instance]
	open  map[string]*Instance
	order []string
	masks map[string]host.Node
}

// NewManager validates opts and returns a manager. Layer roots get sort
// order layer*LayerSortStep.
func NewManager(opts Options) (*Manager, error) {
	if opts.Registry == nil {
		return nil, configError("panel.NewManager", "", fmt.Errorf("%w: nil registry", ErrInvalidDescriptor))
	}
	if opts.Renderer == nil {
		return nil, configError("panel.NewManager", "", ErrNoRenderer)
	}

	layers := opts.Registry.Layers()
	roots := opts.Roots
	if roots == nil {
		for _, name := range layers {
			roots = append(roots, opts.Renderer.NewNode(name, nil))
		}
	}
	if len(roots) != len(layers) {
		return nil, configError("panel.NewManager", "",
			fmt.Errorf("%w: %d roots for %d layers", ErrLayerRoots, len(roots), len(layers)))
	}
	for i, root := range roots {
		if root == nil {
			return nil, configError("panel.NewManager", "", fmt.Errorf("%w: root %d is nil", ErrLayerRoots, i))
		}
		root.SetSortOrder(i * LayerSortStep)
	}

	services := opts.Services
	if services == nil {
		services = &Services{}
	}
	if services.Events == nil {
		services.Events = events.NewBus()
	}
	if services.Signals == nil {
		services.Signals = signal.NewRegistry()
	}
	if services.Resources == nil {
		services.Resources = opts.Resources
	}

	m := &Manager{
		registry:     opts.Registry,
		renderer:     opts.Renderer,
		resources:    opts.Resources,
		services:     services,
		roots:        slices.Clone(roots),
		maskTemplate: opts.MaskTemplate,
		onTransition: opts.OnTransition,
		types:        make(map[string]Factory),
		pools:        pool.NewRegistry[*Instance](),
		open:         make(map[string]*Instance),
		masks:        make(map[string]host.Node),
	}
	services.Panels = m
	return m, nil
}

// RegisterType binds a panel behavior to name. The name is matched against
// descriptor names first and template behavior names second.
func (m *Manager) RegisterType(name string, f Factory) {
	if name == "" || f == nil {
		uierrors.Report(&uierrors.UIError{
			Op:   "panel.RegisterType",
			Kind: uierrors.KindConfiguration,
			Err:  errors.New("type name and factory are required"),
		})
		return
	}
	if _, dup := m.types[name]; dup {
		uierrors.Report(&uierrors.UIError{
			Op:    "panel.RegisterType",
			Kind:  uierrors.KindMisuse,
			Panel: name,
			Err:   errors.New("type registered twice, keeping the latest"),
		})
	}
	m.types[name] = f
}

// Registry returns the descriptor registry.
func (m *Manager) Registry() *Registry { return m.registry }

// Services returns the services shared with panels.
func (m *Manager) Services() *Services { return m.services }

// Root returns the root node of layer i.
func (m *Manager) Root(layer int) host.Node {
	if layer < 0 || layer >= len(m.roots) {
		return nil
	}
	return m.roots[layer]
}

// Open shows the panel name. An open panel is refreshed, a cached one is
// reactivated, and otherwise a new instance is loaded and initialized.
func (m *Manager) Open(name string, args ...any) (*Instance, error) {
	return m.OpenWith(name, nil, args...)
}

// OpenWith is Open with a callback that runs once the panel is open.
func (m *Manager) OpenWith(name string, onOpened func(*Instance), args ...any) (*Instance, error) {
	if inst, ok := m.open[name]; ok {
		m.hook(inst, "Refresh", func() { inst.panel.Refresh(args...) })
		if m.open[name] == inst {
			m.opened(inst, onOpened)
		}
		return inst, nil
	}

	desc, ok := m.registry.Lookup(name)
	if !ok {
		return nil, configError("panel.Open", name, ErrNotRegistered)
	}

	p := m.poolFor(desc)
	inst, err := p.Get()
	if err != nil {
		kind := uierrors.KindResource
		if errors.Is(err, ErrInitialize) {
			kind = uierrors.KindCallback
		}
		uierrors.Report(&uierrors.UIError{Op: "panel.Open", Kind: kind, Panel: name, Err: err})
		return nil, err
	}

	m.open[name] = inst
	m.order = append(m.order, name)
	inst.ctx.activate()
	m.hook(inst, "Open", func() { inst.panel.Open(args...) })
	if m.open[name] != inst {
		// The hook closed its own panel; close already settled the state.
		return inst, nil
	}
	m.transition(inst, StateOpen)
	m.opened(inst, onOpened)

	if desc.ShowMask {
		m.showMask(name, desc.Layer)
	}
	return inst, nil
}

// OpenAsync loads the panel template without blocking and opens the panel
// once it arrives. done receives the instance, or nil and the error. The
// open is abandoned, and done never called, if ctx ends first.
func (m *Manager) OpenAsync(ctx context.Context, name string, done func(*Instance, error), args ...any) {
	if done == nil {
		done = func(*Instance, error) {}
	}
	if m.IsOpen(name) || m.State(name) == StateCached || m.resources == nil {
		done(m.Open(name, args...))
		return
	}
	desc, ok := m.registry.Lookup(name)
	if !ok {
		done(nil, configError("panel.OpenAsync", name, ErrNotRegistered))
		return
	}
	m.resources.LoadAsync(ctx, host.KindTemplate, desc.Template, func(_ any, err error) {
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			uierrors.Report(&uierrors.UIError{Op: "panel.OpenAsync", Kind: uierrors.KindResource, Panel: name, Err: err})
			done(nil, err)
			return
		}
		// The provider caches the template, so Open does not load again.
		done(m.Open(name, args...))
	})
}

// Close hides the panel name. Cacheable panels move to the cache, others
// are destroyed. Closing a panel that is not open is reported and ignored.
func (m *Manager) Close(name string) error {
	return m.close(name, false)
}

// Destroy closes the panel name without caching it. A cached instance is
// destroyed as well.
func (m *Manager) Destroy(name string) error {
	if _, ok := m.open[name]; ok {
		return m.close(name, true)
	}
	if p, ok := m.pools.Lookup(name); ok && p.CountInactive() > 0 {
		p.Trim()
		return nil
	}
	uierrors.Report(&uierrors.UIError{Op: "panel.Destroy", Kind: uierrors.KindMisuse, Panel: name, Err: ErrNotOpen})
	return ErrNotOpen
}

// CloseAll closes every open panel, in the order they were opened.
func (m *Manager) CloseAll(destroy bool) {
	for _, name := range slices.Clone(m.order) {
		m.close(name, destroy)
	}
}

// IsOpen reports whether name is open.
func (m *Manager) IsOpen(name string) bool {
	_, ok := m.open[name]
	return ok
}

// Get returns the open instance of name, or nil.
func (m *Manager) Get(name string) *Instance {
	return m.open[name]
}

// OpenNames returns the open panels in the order they were opened.
func (m *Manager) OpenNames() []string {
	return slices.Clone(m.order)
}

// State returns the lifecycle state of name.
func (m *Manager) State(name string) State {
	if _, ok := m.open[name]; ok {
		return StateOpen
	}
	if p, ok := m.pools.Lookup(name); ok && p.CountInactive() > 0 {
		return StateCached
	}
	return StateUninitialized
}

// Cached returns the number of cached instances.
func (m *Manager) Cached() int {
	n := 0
	for _, name := range m.pools.Names() {
		if p, ok := m.pools.Lookup(name); ok {
			n += p.CountInactive()
		}
	}
	return n
}

// ClearCache destroys every cached instance.
func (m *Manager) ClearCache() {
	for _, name := range m.pools.Names() {
		if p, ok := m.pools.Lookup(name); ok {
			p.Trim()
		}
	}
}

// Shutdown destroys every open and cached instance.
func (m *Manager) Shutdown() {
	m.CloseAll(true)
	m.ClearCache()
}

func (m *Manager) close(name string, destroy bool) error {
	inst, ok := m.open[name]
	if !ok {
		uierrors.Report(&uierrors.UIError{Op: "panel.Close", Kind: uierrors.KindMisuse, Panel: name, Err: ErrNotOpen})
		return ErrNotOpen
	}

	m.hook(inst, "Close", inst.panel.Close)
	inst.ctx.deactivate()
	delete(m.open, name)
	if i := slices.Index(m.order, name); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}

	p, _ := m.pools.Lookup(name)
	if destroy {
		p.Discard(inst)
	} else {
		p.Release(inst)
	}

	m.hideMask(name)
	return nil
}

// poolFor returns the pool caching instances of desc, creating it on first
// use.
func (m *Manager) poolFor(desc Descriptor) *pool.Pool[*Instance] {
	if p, ok := m.pools.Lookup(desc.Name); ok {
		return p
	}
	maxSize := pool.NoRetain
	if desc.CacheOnClose {
		maxSize = 1
	}
	p, _ := m.pools.Create(desc.Name, pool.Config[*Instance]{
		New:       func() (*Instance, error) { return m.create(desc) },
		OnGet:     m.reactivate,
		OnRelease: m.cache,
		OnDestroy: m.destroy,
		MaxSize:   maxSize,
		Capacity:  1,
	}, 0)
	return p
}

// create loads, instantiates and initializes a new instance. On failure
// nothing is left behind.
func (m *Manager) create(desc Descriptor) (*Instance, error) {
	if m.resources == nil {
		return nil, fmt.Errorf("panel: no resource provider to load %s", desc.Template)
	}
	tmpl, err := m.resources.Load(host.KindTemplate, desc.Template)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", desc.Template, err)
	}
	if tmpl == nil {
		return nil, fmt.Errorf("load template %s: empty asset", desc.Template)
	}

	node, err := m.renderer.Instantiate(tmpl, m.roots[desc.Layer], desc.Name)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", desc.Template, err)
	}

	inst := &Instance{
		desc:  desc,
		node:  node,
		panel: m.behavior(desc, tmpl),
		state: StateUninitialized,
	}
	inst.ctx = newContext(desc.Name, desc.Layer, node, m.services)
	if b, ok := inst.panel.(contextBinder); ok {
		b.bindContext(inst.ctx)
	}

	var initErr error
	if !uierrors.Call("panel.Initialize("+desc.Name+")", func() { initErr = inst.panel.Initialize(inst.ctx) }) {
		initErr = errors.New("initialize panicked")
	}
	if initErr != nil {
		inst.ctx.release()
		m.renderer.Destroy(node)
		return nil, fmt.Errorf("%w: %s: %w", ErrInitialize, desc.Name, initErr)
	}
	return inst, nil
}

// behavior picks the Panel for a new instance: a type registered under the
// descriptor name, then one registered under the template's behavior name,
// then Base.
func (m *Manager) behavior(desc Descriptor, tmpl any) Panel {
	if f, ok := m.types[desc.Name]; ok {
		if p := f(); p != nil {
			return p
		}
	}
	if b, ok := tmpl.(interface{ BehaviorName() string }); ok {
		if f, ok := m.types[b.BehaviorName()]; ok {
			if p := f(); p != nil {
				return p
			}
		}
	}
	return &Base{}
}

func (m *Manager) reactivate(inst *Instance) {
	inst.node.SetActive(true)
}

func (m *Manager) cache(inst *Instance) {
	inst.node.SetActive(false)
	m.transition(inst, StateCached)
}

func (m *Manager) destroy(inst *Instance) {
	if d, ok := inst.panel.(Destroyer); ok {
		m.hook(inst, "Destroy", d.Destroy)
	}
	inst.ctx.release()
	m.renderer.Destroy(inst.node)
	m.transition(inst, StateDestroyed)
}

func (m *Manager) showMask(name string, layer int) {
	if mask, ok := m.masks[name]; ok {
		mask.SetActive(true)
		return
	}
	root := m.roots[layer]
	maskName := name + "_Mask"

	var mask host.Node
	if m.maskTemplate != "" && m.resources != nil {
		tmpl, err := m.resources.Load(host.KindTemplate, m.maskTemplate)
		if err == nil {
			mask, err = m.renderer.Instantiate(tmpl, root, maskName)
		}
		if err != nil {
			uierrors.Report(&uierrors.UIError{Op: "panel.showMask", Kind: uierrors.KindResource, Panel: name, Err: err})
		}
	}
	if mask == nil {
		mask = m.renderer.NewNode(maskName, root)
	}
	mask.SetAsFirstSibling()
	m.masks[name] = mask
}

func (m *Manager) hideMask(name string) {
	if mask, ok := m.masks[name]; ok {
		m.renderer.Destroy(mask)
		delete(m.masks, name)
	}
}

func (m *Manager) opened(inst *Instance, onOpened func(*Instance)) {
	if onOpened != nil {
		uierrors.Call("panel.OnOpened("+inst.desc.Name+")", func() { onOpened(inst) })
	}
}

func (m *Manager) hook(inst *Instance, method string, fn func()) {
	uierrors.Call("panel."+method+"("+inst.desc.Name+")", fn)
}

func (m *Manager) transition(inst *Instance, to State) {
	from := inst.state
	inst.state = to
	if m.onTransition != nil && from != to {
		m.onTransition(Transition{Name: inst.desc.Name, From: from, To: to})
	}
}

func configError(op, name string, err error) error {
	uierrors.Report(&uierrors.UIError{Op: op, Kind: uierrors.KindConfiguration, Panel: name, Err: err})
	return err
}
