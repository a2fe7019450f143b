package events

// Scope tracks the listeners one owner added to a bus so they can all be
// removed together, typically when a panel closes.
type Scope struct {
	bus     *Bus
	entries []pendingRemoval
}

// NewScope returns a scope that adds to and removes from bus.
func NewScope(bus *Bus) *Scope {
	return &Scope{bus: bus}
}

// Listen registers fn for name and returns the listener so the caller can
// remove it individually.
func (s *Scope) Listen(name string, fn func(data any)) *FuncListener {
	l := Func(fn)
	if s.Add(name, l) != nil {
		return nil
	}
	return l
}

// Add registers l for name on the underlying bus.
func (s *Scope) Add(name string, l Listener) error {
	if err := s.bus.AddListener(name, l); err != nil {
		return err
	}
	s.entries = append(s.entries, pendingRemoval{name: name, listener: l})
	return nil
}

// Remove detaches l from name and forgets it.
func (s *Scope) Remove(name string, l Listener) {
	s.bus.RemoveListener(name, l)
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.name == name && e.listener == l {
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
}

// RemoveAll detaches every listener added through the scope.
func (s *Scope) RemoveAll() {
	entries := s.entries
	s.entries = nil
	for _, e := range entries {
		s.bus.RemoveListener(e.name, e.listener)
	}
}

// Send triggers name on the underlying bus.
func (s *Scope) Send(name string, data any) {
	s.bus.Trigger(name, data)
}

// Len returns the number of tracked listeners.
func (s *Scope) Len() int { return len(s.entries) }
