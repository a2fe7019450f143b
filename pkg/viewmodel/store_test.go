package viewmodel

import (
	"errors"
	"reflect"
	"testing"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
	"github.com/go-drift/panelkit/pkg/rx"
)

func TestSetNotifiesOnChange(t *testing.T) {
	s := NewStore("login")
	var got []string
	s.Subscribe(func(name string) { got = append(got, name) })

	if !s.Set("Username", "admin") {
		t.Error("first Set should report a change")
	}
	if s.Set("Username", "admin") {
		t.Error("Set with an equal value should report no change")
	}

	if want := []string{"Username"}; !reflect.DeepEqual(got, want) {
		t.Errorf("notifications = %v, want %v", got, want)
	}
	if v := s.Get("Username"); v != "admin" {
		t.Errorf("Get = %v, want admin", v)
	}
}

func TestSetAbsentComparesWithZero(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"empty string", "", false},
		{"zero int", 0, false},
		{"false", false, false},
		{"nil", nil, false},
		{"non-zero", "x", true},
		{"empty slice", []string{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore("")
			notified := 0
			s.Subscribe(func(string) { notified++ })
			if got := s.Set("P", tt.value); got != tt.want {
				t.Errorf("Set(%#v) = %v, want %v", tt.value, got, tt.want)
			}
			if want := map[bool]int{true: 1, false: 0}[tt.want]; notified != want {
				t.Errorf("notifications = %d, want %d", notified, want)
			}
		})
	}
}

func TestSetUncomparableValues(t *testing.T) {
	s := NewStore("")
	count := 0
	s.Subscribe(func(string) { count++ })

	s.Set("Items", []string{"a", "b"})
	s.Set("Items", []string{"a", "b"})
	s.Set("Items", []string{"a"})

	if count != 2 {
		t.Errorf("notifications = %d, want 2", count)
	}
}

func TestSetDifferentTypeIsChange(t *testing.T) {
	s := NewStore("")
	s.Set("P", 1)
	if !s.Set("P", int64(1)) {
		t.Error("a value of another type should count as a change")
	}
}

func TestSubscriberOrder(t *testing.T) {
	s := NewStore("")
	var got []int
	for i := range 3 {
		s.Subscribe(func(string) { got = append(got, i) })
	}
	s.Set("P", true)
	if want := []int{0, 1, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestUnsubscribeDuringNotification(t *testing.T) {
	s := NewStore("")
	var got []string
	var second rx.Subscription
	s.Subscribe(func(string) {
		got = append(got, "first")
		second.Dispose()
	})
	second = s.Subscribe(func(string) { got = append(got, "second") })
	s.Subscribe(func(string) { got = append(got, "third") })

	s.Set("P", 1)

	if want := []string{"first", "third"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPanickingSubscriber(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	s := NewStore("login")
	ran := false
	s.Subscribe(func(string) { panic("bad binding") })
	s.Subscribe(func(string) { ran = true })

	if !s.Set("P", 1) {
		t.Error("Set should still report a change")
	}
	if !ran {
		t.Error("later subscribers should still run")
	}
	if len(rec.Panics()) != 1 {
		t.Errorf("panics = %d, want 1", len(rec.Panics()))
	}
}

func TestDispose(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	s := NewStore("")
	count := 0
	s.Subscribe(func(string) { count++ })
	s.Set("P", 1)
	s.Dispose()

	if s.Set("P", 2) {
		t.Error("Set after Dispose should report no change")
	}
	if s.Has("P") || s.Get("P") != nil {
		t.Error("Dispose should clear values")
	}
	if count != 1 {
		t.Errorf("notifications = %d, want 1", count)
	}
	if sub := s.Subscribe(func(string) {}); sub != rx.Nop {
		t.Error("Subscribe after Dispose should return rx.Nop")
	}
	if rec.Count(uierrors.KindMisuse) != 1 {
		t.Errorf("misuse reports = %d, want 1", rec.Count(uierrors.KindMisuse))
	}
}

func TestEmptyName(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	s := NewStore("")
	if s.Set("", 1) {
		t.Error("Set with empty name should fail")
	}
	if rec.Count(uierrors.KindConfiguration) != 1 {
		t.Error("expected a configuration report")
	}
}

func TestTypedAccessors(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	s := NewStore("")
	if Set(s, "Remember", false) {
		t.Error("Set[bool](false) on an absent property should be unchanged")
	}
	if !Set(s, "Remember", true) {
		t.Error("Set[bool](true) should change")
	}
	if !Get[bool](s, "Remember") {
		t.Error("Get[bool] = false, want true")
	}
	if got := Get[string](s, "Missing"); got != "" {
		t.Errorf("Get[string] of missing = %q", got)
	}
	if got := Get[string](s, "Remember"); got != "" {
		t.Errorf("Get[string] of a bool = %q, want zero", got)
	}
	errs := rec.Errors()
	if len(errs) != 1 || !errors.Is(errs[0], ErrWrongType) {
		t.Errorf("reports = %v, want one ErrWrongType", errs)
	}
}

func TestTypedNilInterface(t *testing.T) {
	s := NewStore("")
	if Set[Command](s, "Cmd", nil) {
		t.Error("storing a nil command on an absent property should be unchanged")
	}
	cmd := NewRelayCommand(func(any) {}, nil)
	if !Set[Command](s, "Cmd", cmd) {
		t.Error("storing a command should change")
	}
	if Get[Command](s, "Cmd") != cmd {
		t.Error("Get[Command] should return the stored command")
	}
}

func TestKeysAndNotify(t *testing.T) {
	s := NewStore("")
	s.Set("b", 1)
	s.Set("a", 1)
	if got, want := s.Keys(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	var got []string
	s.Subscribe(func(name string) { got = append(got, name) })
	s.Notify("derived")
	if want := []string{"derived"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Notify delivered %v, want %v", got, want)
	}
}

func TestZeroStore(t *testing.T) {
	var s Store
	count := 0
	s.Subscribe(func(string) { count++ })
	s.Set("P", "v")
	if count != 1 || s.Get("P") != "v" {
		t.Error("zero Store should be usable")
	}
}
