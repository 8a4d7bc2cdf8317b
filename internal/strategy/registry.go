package strategy

import (
	"fmt"
	"sort"
	"sync"

	"market_watcher/internal/domain"

	"github.com/shopspring/decimal"
)

// Params are the tunables handed to a policy factory.
type Params struct {
	BuyAbove  decimal.Decimal
	SellBelow decimal.Decimal
}

// Factory builds a policy from params.
type Factory func(Params) Policy

// Registry maps policy kinds to factories.
//
// The loss_tolerant and no_loss presets are extension points: register a
// factory for them before resolving. An unregistered preset resolves to
// HoldPolicy so the market keeps running without trading.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
}

// NewRegistry returns a registry with the built-in threshold_cross policy.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[Kind]Factory)}
	r.Register(KindThresholdCross, func(p Params) Policy {
		return ThresholdCross{BuyAbove: p.BuyAbove, SellBelow: p.SellBelow}
	})
	return r
}

// Register binds a factory to kind, replacing any previous one.
func (r *Registry) Register(kind Kind, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Has reports whether a factory is registered for kind.
func (r *Registry) Has(kind Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[kind]
	return ok
}

// Resolve builds the policy for kind.
func (r *Registry) Resolve(kind Kind, p Params) (Policy, error) {
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()

	if ok {
		return f(p), nil
	}
	if kind.IsPreset() {
		return HoldPolicy{}, nil
	}
	return nil, fmt.Errorf("resolve %q: %w", kind, domain.ErrUnknownPolicy)
}

// List returns the registered kinds in sorted order.
func (r *Registry) List() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
