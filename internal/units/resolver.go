package units

import (
	"context"
	"fmt"
	"sync"
)

// Unit is a resolved measurement unit with display precision.
type Unit struct {
	Name      string
	Precision int
}

// UnitLookup fetches unit metadata from an upstream API. Implemented by the
// environmental-cloud client; tests substitute fakes.
type UnitLookup interface {
	LookupUnit(ctx context.Context, ref string) (Unit, error)
}

// Resolver resolves provider unit references with a per-process cache. Unit
// lookups are network round-trips and the same reference repeats for every
// reading of a sensor, so each reference is fetched at most once.
type Resolver struct {
	lookup UnitLookup

	mu    sync.Mutex
	cache map[string]Unit
}

// NewResolver returns a resolver with an empty cache.
func NewResolver(lookup UnitLookup) *Resolver {
	return &Resolver{
		lookup: lookup,
		cache:  make(map[string]Unit),
	}
}

// Resolve returns the unit for a provider reference, consulting the cache
// first. Lookup failures propagate: a wrong unit is worse than a visible
// failure, so no default is invented. Failures are not cached.
func (r *Resolver) Resolve(ctx context.Context, ref string) (Unit, error) {
	r.mu.Lock()
	if unit, ok := r.cache[ref]; ok {
		r.mu.Unlock()
		return unit, nil
	}
	r.mu.Unlock()

	unit, err := r.lookup.LookupUnit(ctx, ref)
	if err != nil {
		return Unit{}, fmt.Errorf("units: resolve %q: %w", ref, err)
	}

	r.mu.Lock()
	r.cache[ref] = unit
	r.mu.Unlock()
	return unit, nil
}

// Seed pre-populates the cache, used for well-known units that need no lookup.
func (r *Resolver) Seed(ref string, unit Unit) {
	r.mu.Lock()
	r.cache[ref] = unit
	r.mu.Unlock()
}
