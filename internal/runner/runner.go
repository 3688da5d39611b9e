// Package runner executes backtests, single and multi-strategy, and ranks
// the outcomes.
package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atlas-desktop/quantbt/internal/backtester"
	"github.com/atlas-desktop/quantbt/internal/strategy"
	"github.com/atlas-desktop/quantbt/pkg/types"
)

// DefaultConcurrency bounds how many strategies a comparison runs at once.
const DefaultConcurrency = 4

// Runner owns the strategy registry and metrics and executes runs against
// price series. A Runner is safe for concurrent use.
type Runner struct {
	logger      *zap.Logger
	registry    *strategy.Registry
	metrics     *Metrics
	concurrency int
}

// New creates a runner.
func New(logger *zap.Logger, registry *strategy.Registry, reg prometheus.Registerer) *Runner {
	return &Runner{
		logger:      logger,
		registry:    registry,
		metrics:     NewMetrics(reg),
		concurrency: DefaultConcurrency,
	}
}

// SetConcurrency overrides the comparison concurrency bound.
func (r *Runner) SetConcurrency(n int) {
	if n > 0 {
		r.concurrency = n
	}
}

// Run executes a single equity backtest for the named strategy.
func (r *Runner) Run(ctx context.Context, series *types.PriceSeries, name string, config *types.BacktestConfig, onProgress func(types.RunProgress)) (*backtester.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	strat, ok := r.registry.Create(name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}

	cfg := r.withRunID(config)
	engine := backtester.NewEngine(r.logger.Named("engine"), cfg)
	engine.OnProgress = onProgress

	r.metrics.RunsStarted.Inc()
	start := time.Now()
	result, err := engine.Run(series, strat)
	r.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.metrics.RunsFailed.Inc()
		return nil, err
	}

	r.metrics.RunsCompleted.Inc()
	r.metrics.TradesClosed.Add(float64(len(result.Trades)))
	return result, nil
}

// RunOptions executes a single options backtest for the named strategy.
func (r *Runner) RunOptions(ctx context.Context, series *types.PriceSeries, name string, config *types.BacktestConfig, onProgress func(types.RunProgress)) (*backtester.OptionsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	strat, ok := r.registry.CreateOptions(name)
	if !ok {
		return nil, fmt.Errorf("unknown options strategy %q", name)
	}

	cfg := r.withRunID(config)
	engine := backtester.NewOptionsEngine(r.logger.Named("options-engine"), cfg)
	engine.OnProgress = onProgress

	r.metrics.RunsStarted.Inc()
	start := time.Now()
	result, err := engine.Run(series, strat)
	r.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.metrics.RunsFailed.Inc()
		return nil, err
	}

	r.metrics.RunsCompleted.Inc()
	r.metrics.TradesClosed.Add(float64(len(result.Trades)))
	return result, nil
}

// Compare runs the named equity strategies against the same series, at most
// r.concurrency at a time, and returns entries ranked by total return
// descending. Strategies that fail rank last and carry the error text. The
// series is shared read-only across the concurrent runs.
func (r *Runner) Compare(ctx context.Context, series *types.PriceSeries, names []string, config *types.BacktestConfig) []types.ComparisonEntry {
	if len(names) == 0 {
		names = r.registry.List()
	}

	entries := make([]types.ComparisonEntry, len(names))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				entries[i] = types.ComparisonEntry{Strategy: name, Err: ctx.Err().Error()}
				return
			}

			result, err := r.Run(ctx, series, name, config, nil)
			if err != nil {
				r.logger.Warn("Comparison run failed",
					zap.String("strategy", name), zap.Error(err))
				entries[i] = types.ComparisonEntry{Strategy: name, Err: err.Error()}
				return
			}

			entries[i] = types.ComparisonEntry{
				Strategy:    name,
				TotalReturn: result.TotalReturn(),
				WinRate:     result.WinRate(),
				MaxDrawdown: result.MaxDrawdown(),
				SharpeRatio: result.SharpeRatio(),
				Trades:      len(result.Trades),
			}
		}(i, name)
	}
	wg.Wait()

	rankEntries(entries)
	return entries
}

// rankEntries sorts by total return descending; failed runs sink to the
// bottom, then by name for a stable order.
func rankEntries(entries []types.ComparisonEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if (entries[i].Err == "") != (entries[j].Err == "") {
			return entries[i].Err == ""
		}
		if entries[i].Err != "" {
			return entries[i].Strategy < entries[j].Strategy
		}
		if !entries[i].TotalReturn.Equal(entries[j].TotalReturn) {
			return entries[i].TotalReturn.GreaterThan(entries[j].TotalReturn)
		}
		return entries[i].Strategy < entries[j].Strategy
	})
}

// withRunID copies the config with a fresh run ID so concurrent runs never
// share one.
func (r *Runner) withRunID(config *types.BacktestConfig) *types.BacktestConfig {
	cfg := *config
	cfg.ID = uuid.New().String()
	if cfg.InitialCapital.IsZero() {
		cfg.InitialCapital = decimal.NewFromInt(10000)
	}
	return &cfg
}
