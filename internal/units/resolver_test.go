package units

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeLookup struct {
	mu    sync.Mutex
	calls int
	units map[string]Unit
	err   error
}

func (f *fakeLookup) LookupUnit(_ context.Context, ref string) (Unit, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return Unit{}, f.err
	}
	unit, ok := f.units[ref]
	if !ok {
		return Unit{}, errors.New("unknown unit")
	}
	return unit, nil
}

func TestResolverCachesLookups(t *testing.T) {
	lookup := &fakeLookup{units: map[string]Unit{"u-7": {Name: "°C", Precision: 1}}}
	resolver := NewResolver(lookup)

	for i := 0; i < 5; i++ {
		unit, err := resolver.Resolve(context.Background(), "u-7")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if unit.Name != "°C" || unit.Precision != 1 {
			t.Fatalf("unexpected unit %+v", unit)
		}
	}

	if lookup.calls != 1 {
		t.Fatalf("expected 1 upstream lookup, got %d", lookup.calls)
	}
}

func TestResolverPropagatesFailure(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("upstream down")}
	resolver := NewResolver(lookup)

	if _, err := resolver.Resolve(context.Background(), "u-1"); err == nil {
		t.Fatal("expected error, got nil")
	}

	// Failures are not cached: the next call retries upstream.
	lookup.err = nil
	lookup.units = map[string]Unit{"u-1": {Name: "ppm"}}
	unit, err := resolver.Resolve(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unit.Name != "ppm" {
		t.Fatalf("unexpected unit %+v", unit)
	}
}

func TestResolverSeed(t *testing.T) {
	lookup := &fakeLookup{}
	resolver := NewResolver(lookup)
	resolver.Seed("bool", Unit{Name: "bool"})

	unit, err := resolver.Resolve(context.Background(), "bool")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unit.Name != "bool" || lookup.calls != 0 {
		t.Fatalf("expected seeded unit without lookup, got %+v calls=%d", unit, lookup.calls)
	}
}

func TestMetricName(t *testing.T) {
	cases := []struct {
		id       string
		expected string
	}{
		{"1", "Temperature"},
		{"3", "CO₂"},
		{"3.51.85", "Motion"},
		{"999", "Metric 999"},
	}
	for _, tc := range cases {
		if got := MetricName(tc.id); got != tc.expected {
			t.Fatalf("MetricName(%q) = %q, expected %q", tc.id, got, tc.expected)
		}
	}
}
