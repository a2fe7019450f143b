package panel

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"testing/fstest"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
	"github.com/go-drift/panelkit/pkg/headless"
	"github.com/go-drift/panelkit/pkg/host"
	"github.com/go-drift/panelkit/pkg/resource"
)

var layers = []string{"bottom", "normal", "top", "system"}

var assets = fstest.MapFS{
	"ui/login.yaml":   {Data: []byte("nodes:\n  - name: UsernameInput\n    widget: input\n  - name: LoginButton\n    widget: button\n")},
	"ui/message.yaml": {Data: []byte("behavior: MessageView\nnodes:\n  - name: Body\n    widget: text\n")},
	"ui/mask.yaml":    {Data: []byte("nodes:\n  - name: Shade\n    widget: image\n")},
}

// recorder counts lifecycle hook calls.
type recorder struct {
	Base
	initErr  error
	inits    int
	opens    [][]any
	closes   int
	refresh  [][]any
	destroys int
}

func (r *recorder) Initialize(ctx *Context) error {
	r.inits++
	return r.initErr
}

func (r *recorder) Open(args ...any)    { r.opens = append(r.opens, args) }
func (r *recorder) Close()              { r.closes++ }
func (r *recorder) Refresh(args ...any) { r.refresh = append(r.refresh, args) }
func (r *recorder) Destroy()            { r.destroys++ }

type fixture struct {
	m           *Manager
	renderer    *headless.Renderer
	resources   *resource.Provider
	transitions []Transition
	created     []*recorder
}

func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()
	reg, err := NewRegistry(layers,
		Descriptor{Name: "Login", Template: "ui/login", Layer: 1, CacheOnClose: true, ShowMask: true},
		Descriptor{Name: "Message", Template: "ui/message", Layer: 2},
		Descriptor{Name: "Broken", Template: "ui/missing", Layer: 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{renderer: headless.NewRenderer(), resources: resource.New(assets)}
	o := Options{
		Registry:     reg,
		Renderer:     f.renderer,
		Resources:    f.resources,
		MaskTemplate: "ui/mask",
		OnTransition: func(tr Transition) { f.transitions = append(f.transitions, tr) },
	}
	for _, opt := range opts {
		opt(&o)
	}
	f.m, err = NewManager(o)
	if err != nil {
		t.Fatal(err)
	}
	newRecorder := func() Panel {
		r := &recorder{}
		f.created = append(f.created, r)
		return r
	}
	f.m.RegisterType("Login", newRecorder)
	f.m.RegisterType("Message", newRecorder)
	return f
}

func TestLoginCacheScenario(t *testing.T) {
	f := newFixture(t)

	first, err := f.m.Open("Login")
	if err != nil {
		t.Fatal(err)
	}
	if got := f.m.State("Login"); got != StateOpen {
		t.Errorf("State after open = %s, want open", got)
	}

	if err := f.m.Close("Login"); err != nil {
		t.Fatal(err)
	}
	if got := f.m.State("Login"); got != StateCached {
		t.Errorf("State after close = %s, want cached", got)
	}
	if first.Node().Active() {
		t.Error("cached panel should be inactive")
	}

	second, err := f.m.Open("Login", "again")
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Error("reopening a cached panel should return the same instance")
	}
	if got := f.m.State("Login"); got != StateOpen {
		t.Errorf("State after reopen = %s, want open", got)
	}
	if !second.Node().Active() {
		t.Error("reopened panel should be active")
	}

	r := first.Panel().(*recorder)
	if r.inits != 1 {
		t.Errorf("inits = %d, want 1", r.inits)
	}
	if len(r.opens) != 2 || r.closes != 1 {
		t.Errorf("opens = %d, closes = %d, want 2 and 1", len(r.opens), r.closes)
	}
	if len(f.created) != 1 {
		t.Errorf("behaviors created = %d, want 1", len(f.created))
	}
}

func TestOpenTwiceRefreshes(t *testing.T) {
	f := newFixture(t)
	a, _ := f.m.Open("Login", 1)
	b, _ := f.m.Open("Login", 2)

	if a != b {
		t.Error("second open should return the open instance")
	}
	r := a.Panel().(*recorder)
	if r.inits != 1 || len(r.opens) != 1 {
		t.Errorf("inits = %d, opens = %d, want 1 and 1", r.inits, len(r.opens))
	}
	if want := [][]any{{2}}; !reflect.DeepEqual(r.refresh, want) {
		t.Errorf("refresh args = %v, want %v", r.refresh, want)
	}
}

func TestNonCacheableCloseDestroys(t *testing.T) {
	f := newFixture(t)
	before := f.renderer.Live()

	first, _ := f.m.Open("Message")
	f.m.Close("Message")

	if f.m.State("Message") != StateUninitialized {
		t.Errorf("State = %s, want uninitialized", f.m.State("Message"))
	}
	if first.State() != StateDestroyed {
		t.Errorf("instance state = %s, want destroyed", first.State())
	}
	if f.renderer.Live() != before {
		t.Errorf("Live() = %d, want %d", f.renderer.Live(), before)
	}
	if r := first.Panel().(*recorder); r.destroys != 1 {
		t.Errorf("destroys = %d, want 1", r.destroys)
	}

	second, _ := f.m.Open("Message")
	if second == first {
		t.Error("reopening a destroyed panel should build a new instance")
	}
	if r := second.Panel().(*recorder); r.inits != 1 {
		t.Errorf("new instance inits = %d, want 1", r.inits)
	}
	if len(f.created) != 2 {
		t.Errorf("behaviors created = %d, want 2", len(f.created))
	}
}

func TestOpenUnknownPanel(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	f := newFixture(t)
	inst, err := f.m.Open("Nope")
	if inst != nil || !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Open = %v, %v, want nil, ErrNotRegistered", inst, err)
	}
	if rec.Count(uierrors.KindConfiguration) != 1 {
		t.Error("expected a configuration report")
	}
}

func TestLoadFailureLeavesNothing(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	f := newFixture(t)
	before := f.renderer.Live()

	inst, err := f.m.Open("Broken")
	if inst != nil || err == nil {
		t.Fatalf("Open = %v, %v, want failure", inst, err)
	}
	if !errors.Is(err, resource.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if f.m.IsOpen("Broken") || f.m.State("Broken") != StateUninitialized {
		t.Error("failed open should leave nothing registered")
	}
	if f.renderer.Live() != before {
		t.Error("failed open should create no nodes")
	}
	if rec.Count(uierrors.KindResource) == 0 {
		t.Error("expected a resource report")
	}
}

func TestInitializeErrorDestroysNode(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	f := newFixture(t)
	noServer := errors.New("no server")
	f.m.RegisterType("Login", func() Panel { return &recorder{initErr: noServer} })
	before := f.renderer.Live()

	inst, err := f.m.Open("Login")
	if inst != nil || err == nil {
		t.Fatalf("Open = %v, %v, want failure", inst, err)
	}
	if !errors.Is(err, ErrInitialize) || !errors.Is(err, noServer) {
		t.Errorf("err = %v, want ErrInitialize wrapping the hook error", err)
	}
	if rec.Count(uierrors.KindCallback) != 1 || rec.Count(uierrors.KindResource) != 0 {
		t.Errorf("callback reports = %d, resource reports = %d, want 1 and 0",
			rec.Count(uierrors.KindCallback), rec.Count(uierrors.KindResource))
	}
	if f.renderer.Live() != before {
		t.Errorf("Live() = %d, want %d", f.renderer.Live(), before)
	}
	if f.m.IsOpen("Login") {
		t.Error("failed initialize should not register the panel")
	}
}

func TestCloseNotOpen(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	f := newFixture(t)
	if err := f.m.Close("Login"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Close error = %v, want ErrNotOpen", err)
	}
	errs := rec.Errors()
	if len(errs) != 1 || errs[0].Kind.Severity() != uierrors.SeverityWarning {
		t.Errorf("reports = %v, want one warning", errs)
	}
}

func TestCloseAll(t *testing.T) {
	f := newFixture(t)
	f.m.Open("Login")
	f.m.Open("Message")

	f.m.CloseAll(false)

	if len(f.m.OpenNames()) != 0 {
		t.Errorf("OpenNames() = %v, want none", f.m.OpenNames())
	}
	if f.m.State("Login") != StateCached {
		t.Errorf("Login = %s, want cached", f.m.State("Login"))
	}
	if f.m.State("Message") != StateUninitialized {
		t.Errorf("Message = %s, want uninitialized", f.m.State("Message"))
	}
}

func TestCloseAllDestroy(t *testing.T) {
	f := newFixture(t)
	f.m.Open("Login")
	f.m.CloseAll(true)
	if f.m.State("Login") != StateUninitialized || f.m.Cached() != 0 {
		t.Error("CloseAll(true) should not cache")
	}
}

func TestDestroyCached(t *testing.T) {
	f := newFixture(t)
	inst, _ := f.m.Open("Login")
	f.m.Close("Login")

	if err := f.m.Destroy("Login"); err != nil {
		t.Fatal(err)
	}
	if inst.State() != StateDestroyed || f.m.Cached() != 0 {
		t.Errorf("state = %s, cached = %d", inst.State(), f.m.Cached())
	}
}

func TestClearCache(t *testing.T) {
	f := newFixture(t)
	inst, _ := f.m.Open("Login")
	f.m.Close("Login")

	f.m.ClearCache()

	if inst.State() != StateDestroyed {
		t.Errorf("state = %s, want destroyed", inst.State())
	}
	again, _ := f.m.Open("Login")
	if again == inst {
		t.Error("open after ClearCache should build a new instance")
	}
}

func TestMaskLifecycle(t *testing.T) {
	f := newFixture(t)
	inst, _ := f.m.Open("Login")

	root := f.m.Root(1).(*headless.Node)
	children := root.Children()
	if len(children) != 2 || children[0].Name() != "Login_Mask" {
		t.Fatalf("layer children = %v, want mask first", names(children))
	}
	if _, ok := children[0].Find("Shade"); !ok {
		t.Error("mask should be built from the mask template")
	}

	f.m.Close("Login")
	if root.Child("Login_Mask") != nil {
		t.Error("closing should destroy the mask")
	}
	if root.Child("Login") != inst.Node() {
		t.Error("cached panel node should stay under its layer")
	}

	f.m.Open("Login")
	if root.Child("Login_Mask") == nil {
		t.Error("reopening a cached panel should show its mask")
	}
}

func TestMaskReused(t *testing.T) {
	f := newFixture(t)
	f.m.showMask("Login", 1)
	mask := f.m.masks["Login"]
	mask.SetActive(false)
	f.m.showMask("Login", 1)

	if f.m.masks["Login"] != mask {
		t.Error("second show should reuse the mask")
	}
	if !mask.Active() {
		t.Error("reused mask should be reactivated")
	}
}

func TestLayerRoots(t *testing.T) {
	f := newFixture(t)
	for i := range layers {
		if got := f.m.Root(i).(*headless.Node).SortOrder(); got != i*LayerSortStep {
			t.Errorf("root %d sort order = %d, want %d", i, got, i*LayerSortStep)
		}
	}

	_, restore := uierrors.Capture()
	defer restore()
	reg, _ := NewRegistry(layers)
	r := headless.NewRenderer()
	_, err := NewManager(Options{Registry: reg, Renderer: r, Roots: []host.Node{r.NewNode("only", nil)}})
	if !errors.Is(err, ErrLayerRoots) {
		t.Errorf("NewManager error = %v, want ErrLayerRoots", err)
	}
}

func TestTransitions(t *testing.T) {
	f := newFixture(t)
	f.m.Open("Login")
	f.m.Close("Login")
	f.m.Open("Login")
	f.m.Destroy("Login")

	want := []Transition{
		{"Login", StateUninitialized, StateOpen},
		{"Login", StateOpen, StateCached},
		{"Login", StateCached, StateOpen},
		{"Login", StateOpen, StateDestroyed},
	}
	if !reflect.DeepEqual(f.transitions, want) {
		t.Errorf("transitions = %v, want %v", f.transitions, want)
	}
}

func TestBehaviorFromTemplate(t *testing.T) {
	f := newFixture(t)
	f.m.types = map[string]Factory{}
	msg := &recorder{}
	f.m.RegisterType("MessageView", func() Panel { return msg })

	inst, err := f.m.Open("Message")
	if err != nil {
		t.Fatal(err)
	}
	if inst.Panel() != msg {
		t.Error("template behavior name should select the panel type")
	}

	login, _ := f.m.Open("Login")
	if _, ok := login.Panel().(*Base); !ok {
		t.Errorf("unregistered panel = %T, want *Base", login.Panel())
	}
}

func TestOpenWithCallback(t *testing.T) {
	f := newFixture(t)
	var got []*Instance
	inst, _ := f.m.OpenWith("Login", func(i *Instance) { got = append(got, i) })
	f.m.OpenWith("Login", func(i *Instance) { got = append(got, i) })
	if len(got) != 2 || got[0] != inst || got[1] != inst {
		t.Errorf("callbacks = %v", got)
	}
}

// dismisser closes its own panel as soon as it opens.
type dismisser struct {
	Base
	m     *Manager
	name  string
	opens int
}

func (d *dismisser) Open(...any) {
	d.opens++
	d.m.Close(d.name)
}

func TestOpenHookClosesOwnPanel(t *testing.T) {
	f := newFixture(t)
	d := &dismisser{m: f.m, name: "Login"}
	f.m.RegisterType("Login", func() Panel { return d })

	called := false
	inst, err := f.m.OpenWith("Login", func(*Instance) { called = true })
	if err != nil {
		t.Fatal(err)
	}

	if f.m.IsOpen("Login") {
		t.Error("panel closed by its Open hook should not be open")
	}
	if got := f.m.State("Login"); got != StateCached {
		t.Errorf("manager state = %s, want cached", got)
	}
	if got := inst.State(); got != StateCached {
		t.Errorf("instance state = %s, want cached", got)
	}
	if len(f.m.masks) != 0 {
		t.Errorf("masks = %d, want 0", len(f.m.masks))
	}
	if root := f.m.Root(1).(*headless.Node); root.Child("Login_Mask") != nil {
		t.Error("no mask should be left under the layer")
	}
	if called {
		t.Error("onOpened should not run for a panel that is no longer open")
	}
	want := []Transition{{"Login", StateUninitialized, StateCached}}
	if !reflect.DeepEqual(f.transitions, want) {
		t.Errorf("transitions = %v, want %v", f.transitions, want)
	}
}

func TestEventListenersRemovedOnClose(t *testing.T) {
	f := newFixture(t)
	inst, _ := f.m.Open("Login")
	bus := f.m.Services().Events

	hits := 0
	inst.Context().Events.Listen("score", func(any) { hits++ })
	bus.Trigger("score", nil)
	f.m.Close("Login")
	bus.Trigger("score", nil)

	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
}

func TestPanickingHookIsolated(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	f := newFixture(t)
	f.m.RegisterType("Message", func() Panel { return &panicky{} })
	if _, err := f.m.Open("Message"); err != nil {
		t.Fatal(err)
	}
	if !f.m.IsOpen("Message") {
		t.Error("a panicking Open hook should not stop the panel opening")
	}
	if len(rec.Panics()) != 1 {
		t.Errorf("panics = %d, want 1", len(rec.Panics()))
	}
}

type panicky struct{ Base }

func (*panicky) Open(...any) { panic("open failed") }

func TestOpenAsync(t *testing.T) {
	queue := make(chan func(), 4)
	f := newFixture(t)
	f.resources = resource.New(assets, resource.WithDispatcher(func(fn func()) { queue <- fn }))
	f.m.resources = f.resources

	var got *Instance
	f.m.OpenAsync(context.Background(), "Login", func(i *Instance, err error) {
		if err != nil {
			t.Error(err)
		}
		got = i
	}, "async")
	if f.m.IsOpen("Login") {
		t.Fatal("OpenAsync should not open before the template arrives")
	}

	(<-queue)()

	if got == nil || !f.m.IsOpen("Login") {
		t.Fatal("panel should be open after the load completes")
	}
	if r := got.Panel().(*recorder); !reflect.DeepEqual(r.opens, [][]any{{"async"}}) {
		t.Errorf("open args = %v", r.opens)
	}
}

func TestOpenAsyncCancelled(t *testing.T) {
	queue := make(chan func(), 4)
	f := newFixture(t)
	f.resources = resource.New(assets, resource.WithDispatcher(func(fn func()) { queue <- fn }))
	f.m.resources = f.resources

	ctx, cancel := context.WithCancel(context.Background())
	called := false
	f.m.OpenAsync(ctx, "Login", func(*Instance, error) { called = true })
	cancel()
	(<-queue)()

	if called || f.m.IsOpen("Login") {
		t.Error("a cancelled OpenAsync should be abandoned")
	}
}

func TestLoadAsyncDroppedAfterClose(t *testing.T) {
	queue := make(chan func(), 4)
	f := newFixture(t)
	inst, _ := f.m.Open("Login")
	f.m.services.Resources = resource.New(assets, resource.WithDispatcher(func(fn func()) { queue <- fn }))

	called := false
	inst.Context().LoadAsync(host.KindTemplate, "ui/mask", func(any, error) { called = true })
	f.m.Close("Login")
	(<-queue)()

	if called {
		t.Error("completion after close should be dropped")
	}

	f.m.Open("Login")
	inst.Context().LoadAsync(host.KindTemplate, "ui/mask", func(any, error) { called = true })
	(<-queue)()
	if !called {
		t.Error("completion for a reopened panel should run")
	}
}

func TestFind(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	f := newFixture(t)
	inst, _ := f.m.Open("Login")
	ctx := inst.Context()

	input, ok := Find[*headless.Input](ctx, "UsernameInput")
	if !ok || input == nil {
		t.Fatal("UsernameInput not found")
	}
	again, _ := Find[*headless.Input](ctx, "UsernameInput")
	if again != input {
		t.Error("Find should return the cached element")
	}

	if _, ok := Find[*headless.Input](ctx, "Missing"); ok {
		t.Error("missing element should not resolve")
	}
	if _, ok := Find[*headless.Text](ctx, "LoginButton"); ok {
		t.Error("wrong type should not resolve")
	}
	if rec.Count(uierrors.KindConfiguration) != 2 {
		t.Errorf("configuration reports = %d, want 2", rec.Count(uierrors.KindConfiguration))
	}
}

func TestRegistryFromDescriptors(t *testing.T) {
	tests := []struct {
		name  string
		descs []Descriptor
	}{
		{"empty name", []Descriptor{{Template: "t"}}},
		{"duplicate", []Descriptor{{Name: "A", Template: "t"}, {Name: "A", Template: "t"}}},
		{"layer range", []Descriptor{{Name: "A", Template: "t", Layer: 9}}},
		{"no template", []Descriptor{{Name: "A"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(layers, tt.descs...); !errors.Is(err, ErrInvalidDescriptor) {
				t.Errorf("err = %v, want ErrInvalidDescriptor", err)
			}
		})
	}
}

func names(nodes []*headless.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}
