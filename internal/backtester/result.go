package backtester

import (
	"time"

	"github.com/shopspring/decimal"
)

// Result is the outcome of one equity backtest run. The engine builds it
// incrementally (one AddTrade per closed position, one equity append per
// bar) and finalizes it by setting FinalCapital. All ratio metrics are
// derived on demand from the trade list and equity curve, never stored.
type Result struct {
	StrategyName   string            `json:"strategyName"`
	InitialCapital decimal.Decimal   `json:"initialCapital"`
	FinalCapital   decimal.Decimal   `json:"finalCapital"`
	EquityCurve    []decimal.Decimal `json:"equityCurve"`
	StartDate      time.Time         `json:"startDate"`
	EndDate        time.Time         `json:"endDate"`
	Trades         []*Trade          `json:"trades"`
}

// NewResult creates an empty result for a run.
func NewResult(strategyName string, initialCapital decimal.Decimal, start, end time.Time) *Result {
	return &Result{
		StrategyName:   strategyName,
		InitialCapital: initialCapital,
		StartDate:      start,
		EndDate:        end,
		Trades:         make([]*Trade, 0),
		EquityCurve:    make([]decimal.Decimal, 0),
	}
}

// AddTrade records a closed trade.
func (r *Result) AddTrade(t *Trade) {
	r.Trades = append(r.Trades, t)
}

// AppendEquity records one equity-curve point.
func (r *Result) AppendEquity(equity decimal.Decimal) {
	r.EquityCurve = append(r.EquityCurve, equity)
}

// TotalReturn returns the percentage return over initial capital.
func (r *Result) TotalReturn() decimal.Decimal {
	return totalReturnPct(r.InitialCapital, r.FinalCapital)
}

// WinRate returns the share of profitable trades as a percentage.
func (r *Result) WinRate() decimal.Decimal {
	return winRatePct(r.pnls())
}

// ProfitFactor returns gross profit over gross loss (999.99 when no trade
// lost, 0 when no trade won or none exist).
func (r *Result) ProfitFactor() decimal.Decimal {
	return profitFactor(r.pnls())
}

// AverageWin returns the mean profit of winning trades.
func (r *Result) AverageWin() decimal.Decimal {
	return averageWin(r.pnls())
}

// AverageLoss returns the mean absolute loss of losing trades.
func (r *Result) AverageLoss() decimal.Decimal {
	return averageLoss(r.pnls())
}

// MaxDrawdown returns the largest peak-to-trough equity decline in percent.
func (r *Result) MaxDrawdown() decimal.Decimal {
	return maxDrawdownPct(r.EquityCurve)
}

// SharpeRatio returns the annualized Sharpe ratio of daily equity returns.
func (r *Result) SharpeRatio() decimal.Decimal {
	return sharpeRatio(r.EquityCurve)
}

func (r *Result) pnls() []decimal.Decimal {
	pnls := make([]decimal.Decimal, len(r.Trades))
	for i, t := range r.Trades {
		pnls[i] = t.ProfitLoss
	}
	return pnls
}

// OptionsResult is the outcome of one options backtest run, built the same
// way as Result but over option trades.
type OptionsResult struct {
	StrategyName   string            `json:"strategyName"`
	InitialCapital decimal.Decimal   `json:"initialCapital"`
	FinalCapital   decimal.Decimal   `json:"finalCapital"`
	EquityCurve    []decimal.Decimal `json:"equityCurve"`
	StartDate      time.Time         `json:"startDate"`
	EndDate        time.Time         `json:"endDate"`
	Trades         []*OptionsTrade   `json:"trades"`
}

// NewOptionsResult creates an empty options result for a run.
func NewOptionsResult(strategyName string, initialCapital decimal.Decimal, start, end time.Time) *OptionsResult {
	return &OptionsResult{
		StrategyName:   strategyName,
		InitialCapital: initialCapital,
		StartDate:      start,
		EndDate:        end,
		Trades:         make([]*OptionsTrade, 0),
		EquityCurve:    make([]decimal.Decimal, 0),
	}
}

// AddTrade records a settled option trade.
func (r *OptionsResult) AddTrade(t *OptionsTrade) {
	r.Trades = append(r.Trades, t)
}

// AppendEquity records one equity-curve point.
func (r *OptionsResult) AppendEquity(equity decimal.Decimal) {
	r.EquityCurve = append(r.EquityCurve, equity)
}

// TotalReturn returns the percentage return over initial capital.
func (r *OptionsResult) TotalReturn() decimal.Decimal {
	return totalReturnPct(r.InitialCapital, r.FinalCapital)
}

// WinRate returns the share of profitable trades as a percentage.
func (r *OptionsResult) WinRate() decimal.Decimal {
	return winRatePct(r.pnls())
}

// ProfitFactor returns gross profit over gross loss.
func (r *OptionsResult) ProfitFactor() decimal.Decimal {
	return profitFactor(r.pnls())
}

// AverageWin returns the mean profit of winning trades.
func (r *OptionsResult) AverageWin() decimal.Decimal {
	return averageWin(r.pnls())
}

// AverageLoss returns the mean absolute loss of losing trades.
func (r *OptionsResult) AverageLoss() decimal.Decimal {
	return averageLoss(r.pnls())
}

// MaxDrawdown returns the largest peak-to-trough equity decline in percent.
func (r *OptionsResult) MaxDrawdown() decimal.Decimal {
	return maxDrawdownPct(r.EquityCurve)
}

// SharpeRatio returns the annualized Sharpe ratio of daily equity returns.
func (r *OptionsResult) SharpeRatio() decimal.Decimal {
	return sharpeRatio(r.EquityCurve)
}

func (r *OptionsResult) pnls() []decimal.Decimal {
	pnls := make([]decimal.Decimal, len(r.Trades))
	for i, t := range r.Trades {
		pnls[i] = t.ProfitLoss
	}
	return pnls
}
