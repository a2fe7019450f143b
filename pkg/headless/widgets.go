package headless

import (
	"fmt"

	"github.com/go-drift/panelkit/pkg/events"
	"github.com/go-drift/panelkit/pkg/host"
)

// Native widget event names.
const (
	EventActivate         = "activate"
	EventValueChanged     = "value-changed"
	EventValueCommitted   = "value-committed"
	EventSelectionChanged = "selection-changed"
)

// widgetEvents gives a widget its native events. Listeners run through an
// events.Bus, so they may detach themselves while firing.
type widgetEvents struct {
	bus events.Bus
}

func (w *widgetEvents) on(name string, fn func(any)) func() {
	l := events.Func(fn)
	if w.bus.AddListener(name, l) != nil {
		return func() {}
	}
	return func() { w.bus.RemoveListener(name, l) }
}

func (w *widgetEvents) fire(name string, data any) {
	w.bus.Trigger(name, data)
}

// ListenerCount returns the number of listeners for a native event.
func (w *widgetEvents) ListenerCount(event string) int {
	return w.bus.ListenerCount(event)
}

// interactable holds the enabled flag shared by input widgets.
type interactable struct {
	disabled bool
}

func (i *interactable) SetInteractable(enabled bool) { i.disabled = !enabled }

func (i *interactable) Interactable() bool { return !i.disabled }

// Text displays a string.
type Text struct {
	value string
}

// SetValue shows v, formatting non-strings with fmt. Nil shows "".
func (t *Text) SetValue(v any) { t.value = format(v) }

// Value returns the displayed text.
func (t *Text) Value() string { return t.value }

// Image displays a sprite.
type Image struct {
	sprite any
}

// SetValue shows the sprite v.
func (i *Image) SetValue(v any) { i.sprite = v }

// Sprite returns the displayed sprite.
func (i *Image) Sprite() any { return i.sprite }

// Input is an editable text field.
type Input struct {
	widgetEvents
	interactable
	value string
}

// SetValue replaces the text without raising events.
func (in *Input) SetValue(v any) { in.value = format(v) }

// Value returns the current text.
func (in *Input) Value() string { return in.value }

// OnValueChanged registers fn for user edits.
func (in *Input) OnValueChanged(fn func(v any)) func() {
	return in.on(EventValueChanged, fn)
}

// OnValueCommitted registers fn for the end of an edit.
func (in *Input) OnValueCommitted(fn func(v any)) func() {
	return in.on(EventValueCommitted, fn)
}

// Type simulates the user replacing the text. It is ignored while the
// input is not interactable.
func (in *Input) Type(text string) {
	if in.disabled || text == in.value {
		return
	}
	in.value = text
	in.fire(EventValueChanged, text)
}

// Commit simulates the user finishing an edit.
func (in *Input) Commit() {
	if in.disabled {
		return
	}
	in.fire(EventValueCommitted, in.value)
}

// Toggle is a checkbox.
type Toggle struct {
	widgetEvents
	interactable
	checked bool
}

// SetValue sets the checked state without raising events. Non-bool values
// uncheck the toggle.
func (t *Toggle) SetValue(v any) {
	b, _ := v.(bool)
	t.checked = b
}

// IsOn reports whether the toggle is checked.
func (t *Toggle) IsOn() bool { return t.checked }

// OnValueChanged registers fn for user clicks.
func (t *Toggle) OnValueChanged(fn func(v any)) func() {
	return t.on(EventValueChanged, fn)
}

// Click simulates the user flipping the toggle.
func (t *Toggle) Click() {
	if t.disabled {
		return
	}
	t.checked = !t.checked
	t.fire(EventValueChanged, t.checked)
}

// Button can be pressed.
type Button struct {
	widgetEvents
	interactable
	label string
}

// SetValue sets the button label.
func (b *Button) SetValue(v any) { b.label = format(v) }

// Label returns the button label.
func (b *Button) Label() string { return b.label }

// OnActivate registers fn for presses.
func (b *Button) OnActivate(fn func()) func() {
	return b.on(EventActivate, func(any) { fn() })
}

// Tap simulates a press. It is ignored while the button is not
// interactable.
func (b *Button) Tap() {
	if b.disabled {
		return
	}
	b.fire(EventActivate, nil)
}

// Dropdown selects one of several options.
type Dropdown struct {
	widgetEvents
	interactable
	options  []string
	selected int
}

// SetValue sets the options from a []string or a decoded YAML list, or
// the selection from an int.
func (d *Dropdown) SetValue(v any) {
	switch v := v.(type) {
	case []string:
		d.setOptions(v)
	case []any:
		opts := make([]string, len(v))
		for i, o := range v {
			opts[i] = format(o)
		}
		d.setOptions(opts)
	case int:
		if v >= 0 && v < len(d.options) {
			d.selected = v
		}
	}
}

func (d *Dropdown) setOptions(opts []string) {
	d.options = append([]string(nil), opts...)
	if d.selected >= len(d.options) {
		d.selected = 0
	}
}

// Selected returns the selected index.
func (d *Dropdown) Selected() int { return d.selected }

// Options returns the option labels.
func (d *Dropdown) Options() []string { return append([]string(nil), d.options...) }

// OnSelectionChanged registers fn for user selections.
func (d *Dropdown) OnSelectionChanged(fn func(index int)) func() {
	return d.on(EventSelectionChanged, func(v any) { fn(v.(int)) })
}

// OnValueChanged registers fn for user selections, reporting the index.
func (d *Dropdown) OnValueChanged(fn func(v any)) func() {
	return d.on(EventSelectionChanged, fn)
}

// Select simulates the user picking option i.
func (d *Dropdown) Select(i int) {
	if d.disabled || i < 0 || i >= len(d.options) || i == d.selected {
		return
	}
	d.selected = i
	d.fire(EventSelectionChanged, i)
}

var (
	_ host.Display      = (*Text)(nil)
	_ host.Display      = (*Image)(nil)
	_ host.Editable     = (*Input)(nil)
	_ host.Committable  = (*Input)(nil)
	_ host.Interactable = (*Input)(nil)
	_ host.Editable     = (*Toggle)(nil)
	_ host.Interactable = (*Toggle)(nil)
	_ host.Activatable  = (*Button)(nil)
	_ host.Interactable = (*Button)(nil)
	_ host.Display      = (*Button)(nil)
	_ host.Selectable   = (*Dropdown)(nil)
	_ host.Editable     = (*Dropdown)(nil)
)

// newWidget builds the widget for a template kind.
func newWidget(kind string) (any, error) {
	switch kind {
	case "":
		return nil, nil
	case "text":
		return &Text{}, nil
	case "image":
		return &Image{}, nil
	case "input":
		return &Input{}, nil
	case "toggle":
		return &Toggle{}, nil
	case "button":
		return &Button{}, nil
	case "dropdown":
		return &Dropdown{}, nil
	default:
		return nil, fmt.Errorf("headless: unknown widget %q", kind)
	}
}

func widgetKind(w any) string {
	switch w.(type) {
	case *Text:
		return "text"
	case *Image:
		return "image"
	case *Input:
		return "input"
	case *Toggle:
		return "toggle"
	case *Button:
		return "button"
	case *Dropdown:
		return "dropdown"
	default:
		return fmt.Sprintf("%T", w)
	}
}

func format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
