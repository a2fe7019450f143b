package pool

import (
	"errors"
	"math/rand"
	"testing"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
)

type item struct {
	id       int
	active   bool
	released int
	gotten   int
}

type tracker struct {
	created   []*item
	destroyed []*item
}

func newTestPool(t *testing.T, maxSize int) (*Pool[*item], *tracker) {
	t.Helper()
	tr := &tracker{}
	p, err := New(Config[*item]{
		Name: "test",
		New: func() (*item, error) {
			it := &item{id: len(tr.created) + 1}
			tr.created = append(tr.created, it)
			return it, nil
		},
		OnGet:     func(it *item) { it.active = true; it.gotten++ },
		OnRelease: func(it *item) { it.active = false; it.released++ },
		OnDestroy: func(it *item) { tr.destroyed = append(tr.destroyed, it) },
		MaxSize:   maxSize,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p, tr
}

func TestNewRequiresFactory(t *testing.T) {
	if _, err := New(Config[*item]{}); !errors.Is(err, ErrNoFactory) {
		t.Errorf("New() error = %v, want ErrNoFactory", err)
	}
}

func TestMaxSizeDefaults(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultMaxSize},
		{NoRetain, 0},
		{-5, 0},
		{3, 3},
	}
	for _, tt := range tests {
		p, _ := newTestPool(t, tt.in)
		if got := p.MaxSize(); got != tt.want {
			t.Errorf("MaxSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGetCreatesThenReuses(t *testing.T) {
	p, tr := newTestPool(t, 5)

	a, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.created) != 1 || !a.active {
		t.Fatalf("expected one active created item, got created=%d active=%v", len(tr.created), a.active)
	}
	if err := p.Release(a); err != nil {
		t.Fatal(err)
	}
	if a.active {
		t.Error("release hook should have run")
	}

	b, _ := p.Get()
	if b != a {
		t.Error("expected Get to recycle the released item")
	}
	if len(tr.created) != 1 {
		t.Errorf("created = %d, want 1", len(tr.created))
	}
}

func TestInactiveIsLIFO(t *testing.T) {
	p, _ := newTestPool(t, 5)
	a, _ := p.Get()
	b, _ := p.Get()
	p.Release(a)
	p.Release(b)

	if got, _ := p.Get(); got != b {
		t.Errorf("first reuse = item %d, want item %d", got.id, b.id)
	}
	if got, _ := p.Get(); got != a {
		t.Errorf("second reuse = item %d, want item %d", got.id, a.id)
	}
}

func TestFactoryErrorLeavesPoolUnchanged(t *testing.T) {
	boom := errors.New("boom")
	p, _ := New(Config[*item]{New: func() (*item, error) { return nil, boom }})

	if _, err := p.Get(); !errors.Is(err, boom) {
		t.Errorf("Get() error = %v, want %v", err, boom)
	}
	if p.CountAll() != 0 {
		t.Errorf("CountAll() = %d, want 0", p.CountAll())
	}
}

// maxSize=2; get x3; release all three: two land in inactive and the third
// is destroyed.
func TestReleaseBeyondMaxSizeDestroys(t *testing.T) {
	p, tr := newTestPool(t, 2)

	items := make([]*item, 3)
	for i := range items {
		items[i], _ = p.Get()
	}
	if p.CountActive() != 3 || len(tr.created) != 3 {
		t.Fatalf("active=%d created=%d, want 3 and 3", p.CountActive(), len(tr.created))
	}

	for _, it := range items {
		if err := p.Release(it); err != nil {
			t.Fatal(err)
		}
	}

	if p.CountInactive() != 2 {
		t.Errorf("CountInactive() = %d, want 2", p.CountInactive())
	}
	if p.CountActive() != 0 {
		t.Errorf("CountActive() = %d, want 0", p.CountActive())
	}
	if len(tr.destroyed) != 1 || tr.destroyed[0] != items[2] {
		t.Errorf("destroyed = %v, want only the third item", tr.destroyed)
	}
	if items[2].released != 0 {
		t.Error("destroyed item should not run the release hook")
	}
}

func TestNoRetainAlwaysDestroys(t *testing.T) {
	p, tr := newTestPool(t, NoRetain)
	a, _ := p.Get()
	p.Release(a)

	if p.CountInactive() != 0 || len(tr.destroyed) != 1 {
		t.Errorf("inactive=%d destroyed=%d, want 0 and 1", p.CountInactive(), len(tr.destroyed))
	}
	b, _ := p.Get()
	if b == a {
		t.Error("expected a fresh item after NoRetain release")
	}
}

func TestReleaseUnownedIsNoop(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	p, _ := newTestPool(t, 5)
	owned, _ := p.Get()
	stranger := &item{id: 99}

	if err := p.Release(stranger); !errors.Is(err, ErrNotActive) {
		t.Errorf("Release(stranger) error = %v, want ErrNotActive", err)
	}
	if p.CountActive() != 1 || p.CountInactive() != 0 {
		t.Errorf("counts changed: active=%d inactive=%d", p.CountActive(), p.CountInactive())
	}

	p.Release(owned)
	if err := p.Release(owned); !errors.Is(err, ErrNotActive) {
		t.Errorf("double Release error = %v, want ErrNotActive", err)
	}
	if p.CountInactive() != 1 {
		t.Errorf("CountInactive() = %d, want 1", p.CountInactive())
	}
	if got := rec.Count(uierrors.KindMisuse); got != 2 {
		t.Errorf("misuse reports = %d, want 2", got)
	}
}

func TestReleaseAll(t *testing.T) {
	p, tr := newTestPool(t, 3)
	for i := 0; i < 4; i++ {
		p.Get()
	}
	p.ReleaseAll()

	if p.CountActive() != 0 {
		t.Errorf("CountActive() = %d, want 0", p.CountActive())
	}
	if p.CountInactive() != 3 {
		t.Errorf("CountInactive() = %d, want 3", p.CountInactive())
	}
	if len(tr.destroyed) != 1 {
		t.Errorf("destroyed = %d, want 1", len(tr.destroyed))
	}
}

func TestClearDestroysEverything(t *testing.T) {
	p, tr := newTestPool(t, 5)
	a, _ := p.Get()
	b, _ := p.Get()
	p.Release(a)

	p.Clear()

	if p.CountAll() != 0 {
		t.Errorf("CountAll() = %d, want 0", p.CountAll())
	}
	if len(tr.destroyed) != 2 {
		t.Errorf("destroyed = %d, want 2", len(tr.destroyed))
	}
	if p.IsActive(b) {
		t.Error("cleared item should not be active")
	}
}

func TestDiscard(t *testing.T) {
	rec, restore := uierrors.Capture()
	defer restore()

	p, tr := newTestPool(t, 5)
	a, _ := p.Get()

	if err := p.Discard(a); err != nil {
		t.Fatal(err)
	}
	if p.CountAll() != 0 || len(tr.destroyed) != 1 {
		t.Errorf("CountAll() = %d, destroyed = %d, want 0 and 1", p.CountAll(), len(tr.destroyed))
	}
	if err := p.Discard(a); !errors.Is(err, ErrNotActive) {
		t.Errorf("second Discard error = %v, want ErrNotActive", err)
	}
	if rec.Count(uierrors.KindMisuse) != 1 {
		t.Error("expected a misuse report")
	}
}

func TestTrimKeepsActive(t *testing.T) {
	p, tr := newTestPool(t, 5)
	a, _ := p.Get()
	b, _ := p.Get()
	p.Release(a)

	p.Trim()

	if p.CountInactive() != 0 || !p.IsActive(b) {
		t.Errorf("inactive = %d, b active = %v", p.CountInactive(), p.IsActive(b))
	}
	if len(tr.destroyed) != 1 || tr.destroyed[0] != a {
		t.Errorf("destroyed = %v, want [a]", tr.destroyed)
	}
}

func TestPreload(t *testing.T) {
	p, tr := newTestPool(t, 3)

	if err := p.Preload(2); err != nil {
		t.Fatal(err)
	}
	if p.CountInactive() != 2 {
		t.Fatalf("CountInactive() = %d, want 2", p.CountInactive())
	}
	for _, it := range tr.created {
		if it.released != 1 || it.gotten != 0 {
			t.Errorf("item %d: released=%d gotten=%d, want 1 and 0", it.id, it.released, it.gotten)
		}
	}

	if err := p.Preload(10); err != nil {
		t.Fatal(err)
	}
	if p.CountInactive() != 3 || len(tr.created) != 3 {
		t.Errorf("inactive=%d created=%d, want 3 and 3", p.CountInactive(), len(tr.created))
	}

	if err := p.Preload(-1); err != nil {
		t.Errorf("Preload(-1) error = %v", err)
	}
}

func TestPeek(t *testing.T) {
	p, _ := newTestPool(t, 2)
	if _, ok := p.Peek(); ok {
		t.Error("Peek on empty pool should report false")
	}
	a, _ := p.Get()
	p.Release(a)
	if got, ok := p.Peek(); !ok || got != a {
		t.Errorf("Peek() = %v, %v; want item %d", got, ok, a.id)
	}
	if p.CountInactive() != 1 {
		t.Error("Peek should not pop")
	}
}

// Property: for any get/release sequence, |inactive| <= maxSize, active and
// inactive are disjoint, and every item from Get was either freshly built or
// previously released.
func TestRandomSequenceInvariants(t *testing.T) {
	_, restore := uierrors.Capture()
	defer restore()

	rng := rand.New(rand.NewSource(42))
	for _, maxSize := range []int{NoRetain, 1, 2, 5} {
		p, tr := newTestPool(t, maxSize)
		released := make(map[*item]bool)
		var held []*item

		for step := 0; step < 500; step++ {
			switch rng.Intn(3) {
			case 0, 1:
				before := len(tr.created)
				it, err := p.Get()
				if err != nil {
					t.Fatal(err)
				}
				fresh := len(tr.created) == before+1 && tr.created[before] == it
				if !fresh && !released[it] {
					t.Fatalf("step %d: Get returned item %d that was neither new nor released", step, it.id)
				}
				delete(released, it)
				held = append(held, it)
			case 2:
				if len(held) == 0 {
					p.Release(&item{id: -1})
					continue
				}
				i := rng.Intn(len(held))
				it := held[i]
				held = append(held[:i], held[i+1:]...)
				p.Release(it)
				released[it] = true
			}

			if p.CountInactive() > p.MaxSize() {
				t.Fatalf("step %d: inactive %d exceeds max %d", step, p.CountInactive(), p.MaxSize())
			}
			for _, it := range p.inactive {
				if p.IsActive(it) {
					t.Fatalf("step %d: item %d is both active and inactive", step, it.id)
				}
			}
		}
	}
}
