// Package strategy defines pluggable signal generators and the registry
// that assigns one to each symbol.
package strategy

import (
	"sync"

	"github.com/Bich992/Trading-BOT/internal/domain"
)

// Signal is a strategy's view on the last bar.
type Signal struct {
	Action     domain.Action
	StopLoss   *float64
	TakeProfit *float64
	Confidence float64
}

// Strategy generates a signal from a candle series. Implementations may
// keep per-symbol state; the registry hands each symbol its own instance.
type Strategy interface {
	Name() string
	GenerateSignal(s domain.Series) Signal
}

// Registry lazily builds one strategy instance per symbol.
type Registry struct {
	mu         sync.Mutex
	strategies map[string]Strategy
	factory    func() Strategy
}

// NewRegistry builds a registry. A nil factory defaults to EMARSIMix.
func NewRegistry(factory func() Strategy) *Registry {
	if factory == nil {
		factory = func() Strategy { return NewEMARSIMix(DefaultEMARSIParams()) }
	}
	return &Registry{
		strategies: make(map[string]Strategy),
		factory:    factory,
	}
}

// Active returns the strategy owned by symbol, creating it on first use.
func (r *Registry) Active(symbol string) Strategy {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.strategies[symbol]
	if !ok {
		st = r.factory()
		r.strategies[symbol] = st
	}
	return st
}
