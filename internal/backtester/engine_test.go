package backtester

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atlas-desktop/quantbt/pkg/types"
)

// scriptStrategy replays a fixed signal per bar index, HOLD beyond the
// script's end.
type scriptStrategy struct {
	signals []types.Signal
}

func (s *scriptStrategy) Name() string      { return "script" }
func (s *scriptStrategy) WarmupPeriod() int { return 0 }

func (s *scriptStrategy) Evaluate(_ *types.PriceSeries, i int) types.Signal {
	if i < len(s.signals) {
		return s.signals[i]
	}
	return types.SignalHold
}

func testSeries(t *testing.T, closes ...float64) *types.PriceSeries {
	t.Helper()

	bars := make([]types.PriceBar, len(closes))
	date := time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = types.PriceBar{
			Date:     date.AddDate(0, 0, i),
			Open:     decimal.NewFromFloat(c),
			High:     decimal.NewFromFloat(c + 1),
			Low:      decimal.NewFromFloat(c - 1),
			Close:    decimal.NewFromFloat(c),
			AdjClose: decimal.NewFromFloat(c),
			Volume:   decimal.NewFromInt(1000),
		}
	}

	s, err := types.NewPriceSeries("TEST", bars)
	if err != nil {
		t.Fatalf("failed to build series: %v", err)
	}
	return s
}

func newTestEngine() *Engine {
	return NewEngine(zap.NewNop(), types.DefaultBacktestConfig("script"))
}

func TestEngineRejectsEmptySeries(t *testing.T) {
	engine := newTestEngine()

	if _, err := engine.Run(nil, &scriptStrategy{}); err == nil {
		t.Fatal("nil series should be rejected")
	}

	empty, _ := types.NewPriceSeries("TEST", nil)
	if _, err := engine.Run(empty, &scriptStrategy{}); err == nil {
		t.Fatal("empty series should be rejected")
	}
}

func TestEngineRejectsNilStrategy(t *testing.T) {
	engine := newTestEngine()
	s := testSeries(t, 10, 11, 12)

	if _, err := engine.Run(s, nil); err == nil {
		t.Fatal("nil strategy should be rejected")
	}
}

func TestEngineHoldOnlyLeavesCapitalUntouched(t *testing.T) {
	engine := newTestEngine()
	s := testSeries(t, 10, 10, 10, 10)

	result, err := engine.Run(s, &scriptStrategy{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(result.Trades))
	}
	if !result.FinalCapital.Equal(result.InitialCapital) {
		t.Fatalf("expected final == initial, got %s", result.FinalCapital)
	}
	if len(result.EquityCurve) != s.Len() {
		t.Fatalf("expected %d equity points, got %d", s.Len(), len(result.EquityCurve))
	}
	for i, equity := range result.EquityCurve {
		if !equity.Equal(result.InitialCapital) {
			t.Fatalf("equity point %d should equal initial capital, got %s", i, equity)
		}
	}
}

func TestEngineRoundTrip(t *testing.T) {
	engine := newTestEngine()
	s := testSeries(t, 10, 10, 20, 20)
	strat := &scriptStrategy{signals: []types.Signal{
		types.SignalBuy, types.SignalHold, types.SignalSell, types.SignalHold,
	}}

	result, err := engine.Run(s, strat)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}

	// floor((10000-1)/10) = 999 shares; (20-10)*999 = 9990 profit.
	trade := result.Trades[0]
	if !trade.Shares.Equal(decimal.NewFromInt(999)) {
		t.Fatalf("expected 999 shares, got %s", trade.Shares)
	}
	if !trade.ProfitLoss.Equal(decimal.NewFromInt(9990)) {
		t.Fatalf("expected pnl 9990, got %s", trade.ProfitLoss)
	}

	// Final capital is initial plus pnl minus entry and exit commission.
	want := decimal.NewFromInt(19988)
	if !result.FinalCapital.Equal(want) {
		t.Fatalf("expected final capital %s, got %s", want, result.FinalCapital)
	}
}

func TestEngineForceClosesAtSeriesEnd(t *testing.T) {
	engine := newTestEngine()
	s := testSeries(t, 10, 10, 15, 20)
	strat := &scriptStrategy{signals: []types.Signal{types.SignalBuy}}

	result, err := engine.Run(s, strat)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(result.Trades))
	}
	trade := result.Trades[0]
	if trade.Status != types.TradeStatusClosed {
		t.Fatalf("force-closed trade should be closed, got %s", trade.Status)
	}
	if !trade.ExitPrice.Equal(s.Close(s.Len() - 1)) {
		t.Fatalf("expected exit at last close, got %s", trade.ExitPrice)
	}

	// Exit commission is still charged on the force close.
	want := decimal.NewFromInt(19988)
	if !result.FinalCapital.Equal(want) {
		t.Fatalf("expected final capital %s, got %s", want, result.FinalCapital)
	}
}

func TestEngineAtMostOnePosition(t *testing.T) {
	engine := newTestEngine()
	s := testSeries(t, 10, 10, 10, 20)
	strat := &scriptStrategy{signals: []types.Signal{
		types.SignalBuy, types.SignalBuy, types.SignalBuy, types.SignalSell,
	}}

	result, err := engine.Run(s, strat)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("repeat BUY signals should not stack positions, got %d trades", len(result.Trades))
	}
}

func TestEngineSellWithoutPositionIsNoOp(t *testing.T) {
	engine := newTestEngine()
	s := testSeries(t, 10, 10, 10)
	strat := &scriptStrategy{signals: []types.Signal{types.SignalSell}}

	result, err := engine.Run(s, strat)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(result.Trades))
	}
	if !result.FinalCapital.Equal(result.InitialCapital) {
		t.Fatalf("expected final == initial, got %s", result.FinalCapital)
	}
}

func TestEngineDeterminism(t *testing.T) {
	s := testSeries(t, 10, 12, 11, 14, 13, 16, 15, 18)
	signals := []types.Signal{
		types.SignalBuy, types.SignalHold, types.SignalSell, types.SignalBuy,
		types.SignalHold, types.SignalSell, types.SignalBuy, types.SignalHold,
	}

	first, err := newTestEngine().Run(s, &scriptStrategy{signals: signals})
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := newTestEngine().Run(s, &scriptStrategy{signals: signals})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if !first.FinalCapital.Equal(second.FinalCapital) {
		t.Fatalf("final capital differs: %s vs %s", first.FinalCapital, second.FinalCapital)
	}
	if len(first.Trades) != len(second.Trades) {
		t.Fatalf("trade count differs: %d vs %d", len(first.Trades), len(second.Trades))
	}
	for i := range first.EquityCurve {
		if !first.EquityCurve[i].Equal(second.EquityCurve[i]) {
			t.Fatalf("equity curve differs at %d", i)
		}
	}
}

func TestEngineReportsProgress(t *testing.T) {
	engine := newTestEngine()
	s := testSeries(t, 10, 10, 10, 10)

	var last types.RunProgress
	calls := 0
	engine.OnProgress = func(p types.RunProgress) {
		last = p
		calls++
	}

	if _, err := engine.Run(s, &scriptStrategy{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if calls == 0 {
		t.Fatal("expected at least one progress report")
	}
	if last.BarsSeen != s.Len() || last.TotalBars != s.Len() {
		t.Fatalf("final progress should cover the whole series, got %+v", last)
	}
}

func TestEngineHigherCommissionNeverPaysMore(t *testing.T) {
	s := testSeries(t, 10, 10, 20, 20)
	strat := &scriptStrategy{signals: []types.Signal{
		types.SignalBuy, types.SignalHold, types.SignalSell,
	}}

	run := func(commission float64) decimal.Decimal {
		config := types.DefaultBacktestConfig("script")
		config.Commission = decimal.NewFromFloat(commission)
		result, err := NewEngine(zap.NewNop(), config).Run(s, strat)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return result.FinalCapital
	}

	cheap := run(1)
	expensive := run(5)
	if expensive.GreaterThan(cheap) {
		t.Fatalf("final capital %s at commission 5 exceeds %s at commission 1", expensive, cheap)
	}
}
