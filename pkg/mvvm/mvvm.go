// Package mvvm joins panels, view models and bindings.
//
// A view model embeds *viewmodel.Store and exposes typed accessors. A
// panel embeds *Panel, which creates the view model and applies the
// panel's static binding list once, on Initialize:
//
//	type LoginPanel struct {
//		*mvvm.Panel[*LoginViewModel]
//	}
//
//	func NewLoginPanel() panel.Panel {
//		return &LoginPanel{mvvm.NewPanel(NewLoginViewModel, loginBindings)}
//	}
//
// The bindings and the view model live as long as the panel instance:
// both are released when the instance is destroyed, not when it is cached.
package mvvm

import (
	"github.com/go-drift/panelkit/pkg/binding"
	"github.com/go-drift/panelkit/pkg/panel"
	"github.com/go-drift/panelkit/pkg/viewmodel"
)

// ViewModel is anything backed by a property store.
type ViewModel interface {
	Properties() *viewmodel.Store
}

// Updater is implemented by view models that take the arguments passed to
// every Open.
type Updater interface {
	Update(args ...any)
}

// Panel is a panel.Panel driven by a view model.
type Panel[VM ViewModel] struct {
	panel.Base

	// ViewModel is set during Initialize.
	ViewModel VM

	newViewModel func(ctx *panel.Context) VM
	bindings     []binding.Declaration
	set          *binding.Set
	strict       bool
}

// NewPanel returns a panel that builds its view model with newViewModel and
// applies bindings on Initialize.
func NewPanel[VM ViewModel](newViewModel func(ctx *panel.Context) VM, bindings []binding.Declaration) *Panel[VM] {
	return &Panel[VM]{newViewModel: newViewModel, bindings: bindings}
}

// Strict makes Initialize fail, and so the open, when any declaration
// cannot be bound.
func (p *Panel[VM]) Strict() *Panel[VM] {
	p.strict = true
	return p
}

// Initialize creates the view model and binds it to the panel's elements.
// Bad declarations are reported and skipped unless the panel is Strict.
func (p *Panel[VM]) Initialize(ctx *panel.Context) error {
	p.ViewModel = p.newViewModel(ctx)
	store := p.ViewModel.Properties()
	if store.Name == "" {
		store.Name = ctx.Name
	}

	engine := ctx.Services.Bindings
	if engine == nil {
		engine = binding.NewEngine(ctx.Services.Signals)
	}
	set, err := engine.Bind(store, ctx.Resolver(), p.bindings)
	if err != nil && p.strict {
		set.Unbind()
		store.Dispose()
		return err
	}
	// Bind has reported every skipped declaration.
	p.set = set
	return nil
}

// Open hands args to the view model if it is an Updater.
func (p *Panel[VM]) Open(args ...any) {
	if u, ok := any(p.ViewModel).(Updater); ok {
		u.Update(args...)
	}
}

// Refresh behaves like Open.
func (p *Panel[VM]) Refresh(args ...any) {
	p.Open(args...)
}

// Bound returns the number of declarations that were bound.
func (p *Panel[VM]) Bound() int {
	if p.set == nil {
		return 0
	}
	return p.set.Len()
}

// Destroy unbinds everything and disposes the view model.
func (p *Panel[VM]) Destroy() {
	if p.set == nil {
		return
	}
	p.set.Unbind()
	p.set = nil
	p.ViewModel.Properties().Dispose()
}
