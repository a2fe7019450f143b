package events

import (
	"errors"
	"reflect"
	"testing"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
)

type sliceListener []int

func (sliceListener) HandleEvent(any) {}

func TestTriggerOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.AddListener("E", Func(func(any) { got = append(got, "a") }))
	b.AddListener("E", Func(func(any) { got = append(got, "b") }))
	b.AddListener("E", Func(func(any) { got = append(got, "c") }))

	b.Trigger("E", nil)

	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTriggerPassesPayload(t *testing.T) {
	b := NewBus()
	var got any
	b.AddListener("E", Func(func(data any) { got = data }))
	b.Trigger("E", 42)
	if got != 42 {
		t.Errorf("payload = %v, want 42", got)
	}
}

func TestAddListenerDedup(t *testing.T) {
	b := NewBus()
	count := 0
	l := Func(func(any) { count++ })
	b.AddListener("E", l)
	b.AddListener("E", l)

	if b.ListenerCount("E") != 1 {
		t.Errorf("ListenerCount = %d, want 1", b.ListenerCount("E"))
	}
	b.Trigger("E", nil)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestTriggerWithoutListeners(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	b := NewBus()
	b.Trigger("nobody", nil)

	if len(rec.Errors()) != 0 || len(rec.Panics()) != 0 {
		t.Error("triggering an event without listeners should report nothing")
	}
	if b.Dispatching() {
		t.Error("bus should not be dispatching")
	}
}

func TestRemoveDuringDispatch(t *testing.T) {
	b := NewBus()
	var got []string
	var a, c *FuncListener
	a = Func(func(any) {
		got = append(got, "a")
		b.RemoveListener("E", c)
	})
	bl := Func(func(any) { got = append(got, "b") })
	c = Func(func(any) { got = append(got, "c") })
	b.AddListener("E", a)
	b.AddListener("E", bl)
	b.AddListener("E", c)

	b.Trigger("E", nil)

	// c was in the snapshot, so it still runs once.
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("first dispatch = %v, want %v", got, want)
	}
	if b.ListenerCount("E") != 2 {
		t.Errorf("ListenerCount after dispatch = %d, want 2", b.ListenerCount("E"))
	}

	got = nil
	b.Trigger("E", nil)
	if want := []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("second dispatch = %v, want %v", got, want)
	}
}

func TestRemoveSelfDuringDispatch(t *testing.T) {
	b := NewBus()
	count := 0
	var once *FuncListener
	once = Func(func(any) {
		count++
		b.RemoveListener("E", once)
	})
	b.AddListener("E", once)

	b.Trigger("E", nil)
	b.Trigger("E", nil)

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if b.HasListeners("E") {
		t.Error("listener list should be empty")
	}
}

func TestAddDuringDispatchNotCalled(t *testing.T) {
	b := NewBus()
	late := 0
	b.AddListener("E", Func(func(any) {
		b.AddListener("E", Func(func(any) { late++ }))
	}))

	b.Trigger("E", nil)
	if late != 0 {
		t.Errorf("listener added during dispatch ran %d times", late)
	}
	if b.ListenerCount("E") != 2 {
		t.Errorf("ListenerCount = %d, want 2", b.ListenerCount("E"))
	}
}

func TestNestedTriggerDefersRemovalToOutermost(t *testing.T) {
	b := NewBus()
	inner := Func(func(any) {})
	b.AddListener("inner", inner)
	b.AddListener("outer", Func(func(any) {
		b.Trigger("inner", nil)
		b.RemoveListener("inner", inner)
		if b.ListenerCount("inner") != 1 {
			t.Error("removal should wait for the outermost dispatch")
		}
	}))

	b.Trigger("outer", nil)

	if b.HasListeners("inner") {
		t.Error("removal should apply after the outermost dispatch")
	}
}

func TestPanickingListenerIsolated(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	b := NewBus()
	var got []string
	b.AddListener("E", Func(func(any) { got = append(got, "a") }))
	b.AddListener("E", Func(func(any) { panic("boom") }))
	b.AddListener("E", Func(func(any) { got = append(got, "c") }))

	b.Trigger("E", nil)

	if want := []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	panics := rec.Panics()
	if len(panics) != 1 {
		t.Fatalf("panics = %d, want 1", len(panics))
	}
	if panics[0].Op != "events.Trigger(E)" {
		t.Errorf("Op = %q", panics[0].Op)
	}
	if b.Dispatching() {
		t.Error("bus should leave dispatching state after a panic")
	}
}

func TestInvalidListeners(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	b := NewBus()
	tests := []struct {
		name  string
		event string
		l     Listener
		want  error
	}{
		{"empty name", "", Func(func(any) {}), ErrEmptyName},
		{"nil listener", "E", nil, ErrNilListener},
		{"uncomparable", "E", sliceListener{1}, ErrNoIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := b.AddListener(tt.event, tt.l); !errors.Is(err, tt.want) {
				t.Errorf("AddListener error = %v, want %v", err, tt.want)
			}
		})
	}
	if rec.Count(uierrors.KindConfiguration) != len(tests) {
		t.Errorf("configuration reports = %d, want %d", rec.Count(uierrors.KindConfiguration), len(tests))
	}
	if b.HasListeners("E") {
		t.Error("invalid listeners should not be registered")
	}

	// Removing an uncomparable listener must not panic.
	b.RemoveListener("E", sliceListener{1})
}

func TestClearAll(t *testing.T) {
	b := NewBus()
	b.AddListener("A", Func(func(any) {}))
	b.AddListener("B", Func(func(any) {}))

	b.ClearAll()

	if b.HasListeners("A") || b.HasListeners("B") {
		t.Error("ClearAll should drop every listener")
	}
}

func TestClearAllDuringDispatch(t *testing.T) {
	b := NewBus()
	b.AddListener("reset", Func(func(any) { b.ClearAll() }))

	b.Trigger("reset", nil)

	if b.Dispatching() {
		t.Fatal("Dispatching() = true after Trigger returned")
	}

	var countDuring int
	var seen bool
	l2 := Func(func(any) { seen = true })
	l1 := Func(func(any) {
		b.RemoveListener("y", l2)
		countDuring = b.ListenerCount("y")
	})
	b.AddListener("y", l1)
	b.AddListener("y", l2)

	b.Trigger("y", nil)

	if countDuring != 2 {
		t.Errorf("ListenerCount during dispatch = %d, want 2", countDuring)
	}
	if !seen {
		t.Error("listener removed mid-dispatch should still be called")
	}
	if got := b.ListenerCount("y"); got != 1 {
		t.Errorf("ListenerCount after dispatch = %d, want 1", got)
	}
}

func TestZeroBus(t *testing.T) {
	var b Bus
	called := false
	if err := b.AddListener("E", Func(func(any) { called = true })); err != nil {
		t.Fatal(err)
	}
	b.Trigger("E", nil)
	if !called {
		t.Error("zero Bus should be usable")
	}
}
