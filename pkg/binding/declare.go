// Package binding wires view elements to a viewmodel.Store.
//
// Each panel type declares its bindings once, as a static list built with
// [Declare]:
//
//	var loginBindings = binding.Declare().
//		TwoWay("UsernameInput", "Username").
//		Selection("ServerDropdown", "Server").
//		Command("LoginButton", "LoginCommand", binding.EnabledBy("LoginCommandEnabled")).
//		OneWay("ErrorText", "ErrorMessage").
//		Signal("CloseButton", "ui.close").
//		Build()
//
// An [Engine] consumes that list when the panel is initialized.
package binding

import "slices"

// Mode selects how an element is wired.
type Mode int

const (
	// OneWay pushes property values into the element.
	OneWay Mode = iota
	// TwoWay is OneWay plus writing user edits back to the property.
	TwoWay
	// Command runs a viewmodel.Command held in the property on activation.
	Command
	// Signal emits a named zero-argument signal on activation.
	Signal
	// Selection binds a selectable element's index to an int property.
	Selection
)

func (m Mode) String() string {
	switch m {
	case OneWay:
		return "one-way"
	case TwoWay:
		return "two-way"
	case Command:
		return "command"
	case Signal:
		return "signal"
	case Selection:
		return "selection"
	default:
		return "unknown"
	}
}

// Declaration is one entry of a panel's binding list.
type Declaration struct {
	// Element is the path of the widget below the panel node.
	Element string
	// Property is the store key. Unused for Signal bindings.
	Property string
	Mode     Mode
	// EnabledProperty optionally drives the element's interactable flag
	// from a bool property. Command bindings only.
	EnabledProperty string
	// Signal is the signal name for Signal bindings.
	Signal string
	// OnCommit makes a TwoWay binding write back when editing ends rather
	// than on every change.
	OnCommit bool
}

// Option adjusts a declaration.
type Option func(*Declaration)

// EnabledBy binds the element's interactable state to a bool property.
func EnabledBy(property string) Option {
	return func(d *Declaration) { d.EnabledProperty = property }
}

// Committed defers a TwoWay write-back until the element commits its edit.
func Committed() Option {
	return func(d *Declaration) { d.OnCommit = true }
}

// Builder accumulates declarations.
type Builder struct {
	decls []Declaration
}

// Declare starts a declaration list.
func Declare() *Builder {
	return &Builder{}
}

// OneWay binds element's display to property.
func (b *Builder) OneWay(element, property string, opts ...Option) *Builder {
	return b.add(Declaration{Element: element, Property: property, Mode: OneWay}, opts)
}

// TwoWay binds element's display to property and writes edits back.
func (b *Builder) TwoWay(element, property string, opts ...Option) *Builder {
	return b.add(Declaration{Element: element, Property: property, Mode: TwoWay}, opts)
}

// Command runs the command stored in property when element is activated.
func (b *Builder) Command(element, property string, opts ...Option) *Builder {
	return b.add(Declaration{Element: element, Property: property, Mode: Command}, opts)
}

// Selection keeps property equal to element's selected index and pushes
// int values of property back into the element.
func (b *Builder) Selection(element, property string, opts ...Option) *Builder {
	return b.add(Declaration{Element: element, Property: property, Mode: Selection}, opts)
}

// Signal emits the named signal when element is activated.
func (b *Builder) Signal(element, signal string, opts ...Option) *Builder {
	return b.add(Declaration{Element: element, Mode: Signal, Signal: signal}, opts)
}

// Build returns the accumulated list. The builder may keep being used;
// later additions do not affect lists already built.
func (b *Builder) Build() []Declaration {
	return slices.Clone(b.decls)
}

func (b *Builder) add(d Declaration, opts []Option) *Builder {
	for _, opt := range opts {
		opt(&d)
	}
	b.decls = append(b.decls, d)
	return b
}
