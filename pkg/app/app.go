// Package app wires a panelkit application together.
//
// New resolves the configuration in a project directory, then builds the
// shared services every panel sees: the event bus, the signal registry,
// the binding engine, the resource provider, the preference store and the
// panel manager. The App also owns the UI-thread dispatch queue that
// resource loads complete through.
//
//	a, err := app.New(app.Options{Dir: "."})
//	if err != nil {
//		log.Fatal(err)
//	}
//	a.Register("Login", NewLoginPanel)
//	a.Manager.Open("Login")
//	a.Run(ctx)
package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-drift/panelkit/pkg/binding"
	"github.com/go-drift/panelkit/pkg/config"
	uierrors "github.com/go-drift/panelkit/pkg/errors"
	"github.com/go-drift/panelkit/pkg/events"
	"github.com/go-drift/panelkit/pkg/headless"
	"github.com/go-drift/panelkit/pkg/host"
	"github.com/go-drift/panelkit/pkg/panel"
	"github.com/go-drift/panelkit/pkg/prefs"
	"github.com/go-drift/panelkit/pkg/resource"
	"github.com/go-drift/panelkit/pkg/signal"
)

// Options configures New. Zero values select the defaults.
type Options struct {
	// Dir is the project directory holding ui.yaml. Empty means ".".
	Dir string
	// Config skips loading from Dir when set.
	Config *config.Resolved
	// Assets is the asset tree. Defaults to PANELKIT_ASSETS, or Dir.
	Assets fs.FS
	// Renderer creates nodes. Defaults to the headless renderer.
	Renderer host.Renderer
	// Prefs persists settings. Defaults to PANELKIT_PREFS, or memory.
	Prefs host.KeyValueStore
	// ErrorHandler receives reported UI errors. Defaults to a LogHandler,
	// verbose when PANELKIT_VERBOSE is set. Pass one explicitly to keep
	// the handler already installed.
	ErrorHandler uierrors.ErrorHandler
	// OnTransition observes panel state changes.
	OnTransition func(panel.Transition)
}

// App holds the services shared by every panel.
type App struct {
	Config    *config.Resolved
	Events    *events.Bus
	Signals   *signal.Registry
	Bindings  *binding.Engine
	Resources *resource.Provider
	Prefs     host.KeyValueStore
	Renderer  host.Renderer
	Manager   *panel.Manager

	dispatchMu    sync.Mutex
	dispatchQueue []func()
	wake          chan struct{}
}

// New resolves configuration and builds the application services.
func New(opts Options) (*App, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Resolve(dir); err != nil {
			return nil, err
		}
	}

	handler := opts.ErrorHandler
	if handler == nil {
		handler = &uierrors.LogHandler{Verbose: cfg.Env.Verbose}
	}
	uierrors.SetHandler(handler)

	a := &App{
		Config:   cfg,
		Events:   events.NewBus(),
		Signals:  signal.NewRegistry(),
		Renderer: opts.Renderer,
		Prefs:    opts.Prefs,
		wake:     make(chan struct{}, 1),
	}
	a.Bindings = binding.NewEngine(a.Signals)

	assets := opts.Assets
	if assets == nil {
		root := dir
		if cfg.Env.Assets != "" {
			root = cfg.Env.Assets
		}
		assets = os.DirFS(root)
	}
	a.Resources = resource.New(assets, resource.WithDispatcher(a.Dispatch))

	if a.Renderer == nil {
		a.Renderer = headless.NewRenderer()
	}
	if a.Prefs == nil {
		store, err := openPrefs(dir, cfg.Env.Prefs)
		if err != nil {
			return nil, err
		}
		a.Prefs = store
	}

	reg, err := panel.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	a.Manager, err = panel.NewManager(panel.Options{
		Registry:     reg,
		Renderer:     a.Renderer,
		Resources:    a.Resources,
		MaskTemplate: cfg.MaskTemplate,
		OnTransition: opts.OnTransition,
		Services: &panel.Services{
			Events:    a.Events,
			Signals:   a.Signals,
			Bindings:  a.Bindings,
			Resources: a.Resources,
			Prefs:     a.Prefs,
		},
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func openPrefs(dir, path string) (*prefs.Store, error) {
	if path == "" {
		return prefs.NewMemory(), nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	store, err := prefs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prefs: %w", err)
	}
	return store, nil
}

// Register binds a panel behavior to a configured panel name.
func (a *App) Register(name string, f panel.Factory) {
	a.Manager.RegisterType(name, f)
}

// Dispatch schedules a callback to run on the UI thread during the next
// Step and is safe to call from any goroutine.
func (a *App) Dispatch(callback func()) {
	if callback == nil {
		return
	}
	a.dispatchMu.Lock()
	a.dispatchQueue = append(a.dispatchQueue, callback)
	a.dispatchMu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *App) drainDispatchQueue() []func() {
	a.dispatchMu.Lock()
	callbacks := a.dispatchQueue
	a.dispatchQueue = nil
	a.dispatchMu.Unlock()
	return callbacks
}

// Step runs the callbacks queued so far on the calling goroutine, which
// becomes the UI thread for their duration. It returns how many ran.
func (a *App) Step() int {
	callbacks := a.drainDispatchQueue()
	for _, callback := range callbacks {
		uierrors.Call("app.Dispatch", callback)
	}
	return len(callbacks)
}

// Run steps whenever callbacks are queued until ctx ends.
func (a *App) Run(ctx context.Context) error {
	for {
		a.Step()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.wake:
		}
	}
}

// Shutdown destroys every panel, clears the buses and saves preferences.
func (a *App) Shutdown() error {
	a.Manager.Shutdown()
	a.Signals.ClearAll()
	a.Events.ClearAll()
	a.Resources.ClearCache()
	return a.Prefs.Save()
}
