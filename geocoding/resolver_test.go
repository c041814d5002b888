package geocoding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taxi-analytics/cache"
	"taxi-analytics/models"
)

// scriptedGeocoder returns the scripted errors in order, then succeeds.
type scriptedGeocoder struct {
	mu      sync.Mutex
	errs    []error
	result  models.Coordinates
	queries []string
}

func (g *scriptedGeocoder) Geocode(_ context.Context, query string) (models.Coordinates, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, query)
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		if err != nil {
			return models.Coordinates{}, err
		}
	}
	return g.result, nil
}

func (g *scriptedGeocoder) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queries)
}

func newTestResolver(g Geocoder, store cache.Store) *Resolver {
	return NewResolver(g, store, Options{Timeout: time.Second, Backoff: time.Millisecond, MaxAttempts: 3})
}

func TestResolveCachesSuccess(t *testing.T) {
	g := &scriptedGeocoder{result: models.Coordinates{Lat: 16.05, Lon: 108.2}}
	store := cache.NewMemoryStore()
	r := newTestResolver(g, store)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		c, ok := r.Resolve(ctx, "Son Tra", "Da Nang")
		if !ok || c.Lat != 16.05 || c.Lon != 108.2 {
			t.Fatalf("call %d: got %+v ok=%v", i, c, ok)
		}
	}
	if g.calls() != 1 {
		t.Errorf("external calls: got %d, want 1", g.calls())
	}
	if g.queries[0] != "Son Tra, Da Nang, Vietnam" {
		t.Errorf("query: got %q", g.queries[0])
	}
	if store.Len() != 1 {
		t.Errorf("cache size: got %d, want 1", store.Len())
	}
}

func TestResolveRetriesTimeoutThenSucceeds(t *testing.T) {
	g := &scriptedGeocoder{
		errs:   []error{ErrTimeout, context.DeadlineExceeded},
		result: models.Coordinates{Lat: 1, Lon: 2},
	}
	r := newTestResolver(g, cache.NewMemoryStore())

	c, ok := r.Resolve(context.Background(), "Ben Thanh", "Ho Chi Minh City")
	if !ok || c.Lat != 1 {
		t.Fatalf("got %+v ok=%v, want success on third attempt", c, ok)
	}
	if g.calls() != 3 {
		t.Errorf("calls: got %d, want 3", g.calls())
	}
}

func TestResolveStopsAfterMaxTimeouts(t *testing.T) {
	g := &scriptedGeocoder{errs: []error{ErrTimeout, ErrTimeout, ErrTimeout, ErrTimeout}}
	store := cache.NewMemoryStore()
	r := newTestResolver(g, store)

	_, ok := r.Resolve(context.Background(), "Hoan Kiem", "Hanoi")
	if ok {
		t.Fatal("expected null coordinates after repeated timeouts")
	}
	if g.calls() != 3 {
		t.Errorf("calls: got %d, want 3", g.calls())
	}
	if store.Len() != 0 {
		t.Error("failures must not be cached")
	}
}

func TestResolveDoesNotCacheNotFound(t *testing.T) {
	g := &scriptedGeocoder{errs: []error{ErrNotFound}, result: models.Coordinates{Lat: 5, Lon: 6}}
	r := newTestResolver(g, cache.NewMemoryStore())
	ctx := context.Background()

	if _, ok := r.Resolve(ctx, "Nowhere", "Hue"); ok {
		t.Fatal("first call should miss")
	}
	if g.calls() != 1 {
		t.Errorf("not found must not be retried, calls=%d", g.calls())
	}
	c, ok := r.Resolve(ctx, "Nowhere", "Hue")
	if !ok || c.Lat != 5 {
		t.Fatalf("second call should reach the geocoder again, got %+v ok=%v", c, ok)
	}
}

func TestResolveOtherErrorIsNotRetried(t *testing.T) {
	g := &scriptedGeocoder{errs: []error{errors.New("boom")}}
	r := newTestResolver(g, cache.NewMemoryStore())
	if _, ok := r.Resolve(context.Background(), "A", "B"); ok {
		t.Fatal("expected miss")
	}
	if g.calls() != 1 {
		t.Errorf("calls: got %d, want 1", g.calls())
	}
}

func TestResolveCacheOnly(t *testing.T) {
	store := cache.NewMemoryStore()
	r := NewResolver(nil, store, Options{})
	ctx := context.Background()
	_ = store.Set(ctx, r.Key("Hoan Kiem", "Hanoi"), models.Coordinates{Lat: 21, Lon: 105})

	if c, ok := r.Resolve(ctx, "Hoan Kiem", "Hanoi"); !ok || c.Lat != 21 {
		t.Errorf("cached entry: got %+v ok=%v", c, ok)
	}
	if _, ok := r.Resolve(ctx, "Ba Dinh", "Hanoi"); ok {
		t.Error("uncached entry without geocoder should miss")
	}
}

func TestResolveEmptyAddress(t *testing.T) {
	g := &scriptedGeocoder{}
	r := newTestResolver(g, cache.NewMemoryStore())
	if _, ok := r.Resolve(context.Background(), "  ", "Hanoi"); ok {
		t.Error("blank address should miss")
	}
	if g.calls() != 0 {
		t.Errorf("blank address should not call the geocoder, calls=%d", g.calls())
	}
}

func TestResolveCancelledDuringBackoff(t *testing.T) {
	g := &scriptedGeocoder{errs: []error{ErrTimeout, ErrTimeout, ErrTimeout}}
	r := NewResolver(g, cache.NewMemoryStore(), Options{Timeout: time.Second, Backoff: time.Hour, MaxAttempts: 3})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan bool)
	go func() {
		_, ok := r.Resolve(ctx, "A", "B")
		done <- ok
	}()
	select {
	case ok := <-done:
		if ok {
			t.Error("expected miss")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve did not return after context cancellation")
	}
	if g.calls() != 1 {
		t.Errorf("calls: got %d, want 1", g.calls())
	}
}
