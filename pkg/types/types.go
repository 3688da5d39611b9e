// Package types provides shared type definitions for the backtesting core.
package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Signal represents an equity trading signal
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// OptionSignal represents an options trading signal
type OptionSignal string

const (
	OptionSignalOpen  OptionSignal = "open"
	OptionSignalClose OptionSignal = "close"
	OptionSignalHold  OptionSignal = "hold"
)

// TradeDirection represents long or short
type TradeDirection string

const (
	DirectionLong  TradeDirection = "long"
	DirectionShort TradeDirection = "short"
)

// OptionType represents call or put
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// OptionDirection represents buying or writing an option
type OptionDirection string

const (
	OptionBuy  OptionDirection = "buy"
	OptionSell OptionDirection = "sell"
)

// TradeStatus represents the lifecycle state of a position
type TradeStatus string

const (
	TradeStatusOpen    TradeStatus = "open"
	TradeStatusClosed  TradeStatus = "closed"
	TradeStatusExpired TradeStatus = "expired"
)

// PriceBar represents a single OHLCV bar. Bars are created once by the data
// loader and never mutated afterwards.
type PriceBar struct {
	Date     time.Time       `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adjClose"`
	Volume   decimal.Decimal `json:"volume"`
}

// Validate checks the OHLC invariants for a single bar.
func (b PriceBar) Validate() error {
	if b.Date.IsZero() {
		return fmt.Errorf("bar has zero date")
	}
	if b.Low.GreaterThan(b.Open) || b.Low.GreaterThan(b.Close) {
		return fmt.Errorf("bar %s: low above open/close", b.Date.Format("2006-01-02"))
	}
	if b.High.LessThan(b.Open) || b.High.LessThan(b.Close) {
		return fmt.Errorf("bar %s: high below open/close", b.Date.Format("2006-01-02"))
	}
	if b.Volume.IsNegative() {
		return fmt.Errorf("bar %s: negative volume", b.Date.Format("2006-01-02"))
	}
	return nil
}

// PriceSeries is an ordered, read-only sequence of price bars. One series is
// safe to share (aliased) across concurrent backtest runs.
type PriceSeries struct {
	symbol string
	bars   []PriceBar
}

// NewPriceSeries builds a series from bars sorted ascending by date.
func NewPriceSeries(symbol string, bars []PriceBar) (*PriceSeries, error) {
	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			return nil, err
		}
		if i > 0 && !bars[i-1].Date.Before(bar.Date) {
			return nil, fmt.Errorf("bars out of order at index %d (%s)", i, bar.Date.Format("2006-01-02"))
		}
	}
	return &PriceSeries{symbol: symbol, bars: bars}, nil
}

// Symbol returns the instrument symbol.
func (s *PriceSeries) Symbol() string { return s.symbol }

// Len returns the number of bars.
func (s *PriceSeries) Len() int { return len(s.bars) }

// Bar returns the bar at index i.
func (s *PriceSeries) Bar(i int) PriceBar { return s.bars[i] }

// Close returns the closing price at index i.
func (s *PriceSeries) Close(i int) decimal.Decimal { return s.bars[i].Close }

// Closes returns closing prices for the half-open index range [from, to).
func (s *PriceSeries) Closes(from, to int) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, s.bars[i].Close)
	}
	return out
}

// ComparisonEntry is one ranked row of a multi-strategy comparison.
type ComparisonEntry struct {
	Strategy    string          `json:"strategy"`
	TotalReturn decimal.Decimal `json:"totalReturn"`
	WinRate     decimal.Decimal `json:"winRate"`
	MaxDrawdown decimal.Decimal `json:"maxDrawdown"`
	SharpeRatio decimal.Decimal `json:"sharpeRatio"`
	Trades      int             `json:"trades"`
	Err         string          `json:"error,omitempty"`
}

// RunProgress reports how far a backtest run has advanced.
type RunProgress struct {
	ID           string          `json:"id"`
	Strategy     string          `json:"strategy"`
	Status       string          `json:"status"`   // "running", "completed", "failed"
	Progress     float64         `json:"progress"` // 0-100
	BarsSeen     int             `json:"barsSeen"`
	TotalBars    int             `json:"totalBars"`
	CurrentDate  time.Time       `json:"currentDate"`
	TradesClosed int             `json:"tradesClosed"`
	Equity       decimal.Decimal `json:"equity"`
}
