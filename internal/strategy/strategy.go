// Package strategy provides signal-generating trading strategies.
//
// Strategies are stateless: evaluation is a pure function of the series and
// the bar index, so the same strategy value can serve concurrent runs.
package strategy

import (
	"sort"
	"sync"

	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Strategy is the interface all equity strategies implement.
type Strategy interface {
	// Name returns the strategy identifier.
	Name() string
	// WarmupPeriod returns the number of bars required before the strategy
	// produces anything other than HOLD.
	WarmupPeriod() int
	// Evaluate maps (series, index) to a signal.
	Evaluate(s *types.PriceSeries, i int) types.Signal
}

// OptionsStrategy is the interface options strategies implement. In addition
// to signal generation it selects the contract to trade.
type OptionsStrategy interface {
	Name() string
	WarmupPeriod() int
	Evaluate(s *types.PriceSeries, i int) types.OptionSignal
	// StrikePrice computes the contract strike from current market state.
	StrikePrice(s *types.PriceSeries, i int) decimal.Decimal
	// DaysToExpiry returns the target contract tenor in calendar days.
	DaysToExpiry() int
	// OptionType returns call or put.
	OptionType() types.OptionType
	// Direction returns whether the strategy buys or writes the contract.
	Direction() types.OptionDirection
}

// Registry manages the available strategies.
type Registry struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	equity  map[string]func() Strategy
	options map[string]func() OptionsStrategy
}

// NewRegistry creates a registry with all built-in strategies registered.
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		logger:  logger,
		equity:  make(map[string]func() Strategy),
		options: make(map[string]func() OptionsStrategy),
	}

	r.Register("sma_crossover", func() Strategy { return NewSMACrossover(20, 50) })
	r.Register("rsi", func() Strategy { return NewRSIStrategy(14, 30, 70) })
	r.Register("macd", func() Strategy { return NewMACDStrategy(12, 26, 9) })
	r.Register("bollinger_rsi", func() Strategy { return NewBollingerRSI() })
	r.Register("breakout", func() Strategy { return NewBreakout() })
	r.Register("momentum_confluence", func() Strategy { return NewMomentumConfluence() })
	r.Register("multi_confluence", func() Strategy { return NewMultiConfluence(5) })

	r.RegisterOptions("covered_call", func() OptionsStrategy { return NewCoveredCall() })
	r.RegisterOptions("protective_put", func() OptionsStrategy { return NewProtectivePut() })

	return r
}

// Register registers an equity strategy factory.
func (r *Registry) Register(name string, factory func() Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.equity[name] = factory
}

// RegisterOptions registers an options strategy factory.
func (r *Registry) RegisterOptions(name string, factory func() OptionsStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options[name] = factory
}

// Create creates an equity strategy instance by name.
func (r *Registry) Create(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.equity[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// CreateOptions creates an options strategy instance by name.
func (r *Registry) CreateOptions(name string) (OptionsStrategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.options[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// List returns all equity strategy names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.equity))
	for name := range r.equity {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListOptions returns all options strategy names, sorted.
func (r *Registry) ListOptions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.options))
	for name := range r.options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
