package runner

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atlas-desktop/quantbt/internal/data"
	"github.com/atlas-desktop/quantbt/internal/strategy"
	"github.com/atlas-desktop/quantbt/pkg/types"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	logger := zap.NewNop()
	return New(logger, strategy.NewRegistry(logger), prometheus.NewRegistry())
}

func sampleSeries(t *testing.T, bars int) *types.PriceSeries {
	t.Helper()
	series, err := data.GenerateSampleSeries("RUNNER", bars)
	if err != nil {
		t.Fatalf("generating series: %v", err)
	}
	return series
}

func TestRunUnknownStrategy(t *testing.T) {
	r := newTestRunner(t)
	series := sampleSeries(t, 60)

	if _, err := r.Run(context.Background(), series, "no_such", types.DefaultBacktestConfig("no_such"), nil); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	if _, err := r.RunOptions(context.Background(), series, "sma_crossover", types.DefaultBacktestConfig("sma_crossover"), nil); err == nil {
		t.Fatal("expected error for equity strategy used as options strategy")
	}
}

func TestRunProducesResult(t *testing.T) {
	r := newTestRunner(t)
	series := sampleSeries(t, 200)

	var last types.RunProgress
	result, err := r.Run(context.Background(), series, "sma_crossover",
		types.DefaultBacktestConfig("sma_crossover"),
		func(p types.RunProgress) { last = p })
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.EquityCurve) != series.Len() {
		t.Errorf("equity curve has %d points, want %d", len(result.EquityCurve), series.Len())
	}
	if !result.InitialCapital.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("initial capital = %s, want 10000", result.InitialCapital)
	}
	if !result.FinalCapital.IsPositive() {
		t.Errorf("final capital = %s, want positive", result.FinalCapital)
	}
	if last.BarsSeen != series.Len() {
		t.Errorf("last progress reports %d bars, want %d", last.BarsSeen, series.Len())
	}
}

func TestRunOptionsProducesResult(t *testing.T) {
	r := newTestRunner(t)
	series := sampleSeries(t, 200)

	result, err := r.RunOptions(context.Background(), series, "covered_call",
		types.DefaultBacktestConfig("covered_call"), nil)
	if err != nil {
		t.Fatalf("RunOptions failed: %v", err)
	}
	if len(result.EquityCurve) != series.Len() {
		t.Errorf("equity curve has %d points, want %d", len(result.EquityCurve), series.Len())
	}
}

func TestRunCancelledContext(t *testing.T) {
	r := newTestRunner(t)
	series := sampleSeries(t, 60)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, series, "rsi", types.DefaultBacktestConfig("rsi"), nil); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestRunAssignsFreshRunID(t *testing.T) {
	r := newTestRunner(t)
	series := sampleSeries(t, 120)
	config := types.DefaultBacktestConfig("rsi")
	config.ID = "caller-id"

	if _, err := r.Run(context.Background(), series, "rsi", config, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if config.ID != "caller-id" {
		t.Error("caller config must not be mutated")
	}
}

func TestCompare(t *testing.T) {
	r := newTestRunner(t)
	r.SetConcurrency(2)
	series := sampleSeries(t, 200)

	names := []string{"sma_crossover", "rsi", "bogus"}
	entries := r.Compare(context.Background(), series, names, types.DefaultBacktestConfig(""))

	if len(entries) != len(names) {
		t.Fatalf("got %d entries, want %d", len(entries), len(names))
	}

	last := entries[len(entries)-1]
	if last.Strategy != "bogus" || last.Err == "" {
		t.Errorf("failed run should rank last with an error, got %+v", last)
	}
	for _, e := range entries[:len(entries)-1] {
		if e.Err != "" {
			t.Errorf("strategy %s unexpectedly failed: %s", e.Strategy, e.Err)
		}
	}
	if entries[0].TotalReturn.LessThan(entries[1].TotalReturn) {
		t.Errorf("entries not ranked by return: %s then %s",
			entries[0].TotalReturn, entries[1].TotalReturn)
	}
}

func TestCompareDefaultsToAllStrategies(t *testing.T) {
	r := newTestRunner(t)
	series := sampleSeries(t, 260)

	entries := r.Compare(context.Background(), series, nil, types.DefaultBacktestConfig(""))
	if want := len(strategy.NewRegistry(zap.NewNop()).List()); len(entries) != want {
		t.Fatalf("got %d entries, want %d", len(entries), want)
	}
}

func TestRankEntries(t *testing.T) {
	entries := []types.ComparisonEntry{
		{Strategy: "late_failure", Err: "boom"},
		{Strategy: "mid", TotalReturn: decimal.NewFromInt(5)},
		{Strategy: "best", TotalReturn: decimal.NewFromInt(12)},
		{Strategy: "early_failure", Err: "boom"},
		{Strategy: "worst", TotalReturn: decimal.NewFromInt(-3)},
	}

	rankEntries(entries)

	want := []string{"best", "mid", "worst", "early_failure", "late_failure"}
	for i, name := range want {
		if entries[i].Strategy != name {
			t.Errorf("rank %d = %s, want %s", i, entries[i].Strategy, name)
		}
	}
}
