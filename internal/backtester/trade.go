// Package backtester provides the simulation engines, the trade lifecycle
// state machine and derived performance results.
package backtester

import (
	"fmt"
	"time"

	"github.com/atlas-desktop/quantbt/pkg/types"
	"github.com/atlas-desktop/quantbt/pkg/utils"
	"github.com/shopspring/decimal"
)

var contractMultiplier = decimal.NewFromInt(100)

// Trade is a single equity position lifecycle record. It is created OPEN by
// the engine and mutated exactly once, by Close.
type Trade struct {
	ID         string                `json:"id"`
	Direction  types.TradeDirection  `json:"direction"`
	EntryDate  time.Time             `json:"entryDate"`
	EntryPrice decimal.Decimal       `json:"entryPrice"`
	Shares     decimal.Decimal       `json:"shares"`
	Status     types.TradeStatus     `json:"status"`
	ExitDate   time.Time             `json:"exitDate,omitempty"`
	ExitPrice  decimal.Decimal       `json:"exitPrice,omitempty"`
	ProfitLoss decimal.Decimal       `json:"profitLoss"`
	ReturnPct  decimal.Decimal       `json:"returnPct"`
}

// NewTrade opens a position. Shares must be positive; a non-positive size is
// a caller bug, not a market condition.
func NewTrade(direction types.TradeDirection, entryDate time.Time, entryPrice, shares decimal.Decimal) (*Trade, error) {
	if !shares.IsPositive() {
		return nil, fmt.Errorf("trade size must be positive, got %s", shares)
	}
	return &Trade{
		ID:         utils.GenerateTradeID(),
		Direction:  direction,
		EntryDate:  entryDate,
		EntryPrice: entryPrice,
		Shares:     shares,
		Status:     types.TradeStatusOpen,
	}, nil
}

// Close transitions the trade OPEN -> CLOSED and computes profit/loss.
// Closing an already-closed trade is a precondition violation.
func (t *Trade) Close(exitDate time.Time, exitPrice decimal.Decimal) error {
	if t.Status != types.TradeStatusOpen {
		return fmt.Errorf("trade %s already %s", t.ID, t.Status)
	}

	t.Status = types.TradeStatusClosed
	t.ExitDate = exitDate
	t.ExitPrice = exitPrice

	pnl := exitPrice.Sub(t.EntryPrice).Mul(t.Shares)
	if t.Direction == types.DirectionShort {
		pnl = pnl.Neg()
	}
	t.ProfitLoss = pnl

	cost := t.EntryPrice.Mul(t.Shares)
	if !cost.IsZero() {
		t.ReturnPct = pnl.Div(cost).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return nil
}

// OptionsTrade is a single option position lifecycle record. It transitions
// OPEN -> CLOSED via Close or OPEN -> EXPIRED via Expire; the transitions
// are terminal and mutually exclusive.
type OptionsTrade struct {
	ID             string                `json:"id"`
	OptionType     types.OptionType      `json:"optionType"`
	Direction      types.OptionDirection `json:"direction"`
	Strike         decimal.Decimal       `json:"strike"`
	ExpirationDate time.Time             `json:"expirationDate"`
	EntryDate      time.Time             `json:"entryDate"`
	EntryPremium   decimal.Decimal       `json:"entryPremium"`
	Contracts      int                   `json:"contracts"`
	EntryVolume    decimal.Decimal       `json:"entryVolume"`
	Status         types.TradeStatus     `json:"status"`
	ExitDate       time.Time             `json:"exitDate,omitempty"`
	ExitPremium    decimal.Decimal       `json:"exitPremium,omitempty"`
	ProfitLoss     decimal.Decimal       `json:"profitLoss"`
	ReturnPct      decimal.Decimal       `json:"returnPct"`
}

// NewOptionsTrade opens an option position; contracts must be positive.
func NewOptionsTrade(
	optType types.OptionType,
	direction types.OptionDirection,
	strike decimal.Decimal,
	expiration, entryDate time.Time,
	entryPremium decimal.Decimal,
	contracts int,
	entryVolume decimal.Decimal,
) (*OptionsTrade, error) {
	if contracts <= 0 {
		return nil, fmt.Errorf("contracts must be positive, got %d", contracts)
	}
	return &OptionsTrade{
		ID:             utils.GenerateTradeID(),
		OptionType:     optType,
		Direction:      direction,
		Strike:         strike,
		ExpirationDate: expiration,
		EntryDate:      entryDate,
		EntryPremium:   entryPremium,
		Contracts:      contracts,
		EntryVolume:    entryVolume,
		Status:         types.TradeStatusOpen,
	}, nil
}

// Close transitions the trade OPEN -> CLOSED at the given exit premium.
func (t *OptionsTrade) Close(exitDate time.Time, exitPremium decimal.Decimal) error {
	return t.settle(types.TradeStatusClosed, exitDate, exitPremium)
}

// Expire transitions the trade OPEN -> EXPIRED at the settlement premium
// (the option's intrinsic value at expiry).
func (t *OptionsTrade) Expire(exitDate time.Time, settlementPremium decimal.Decimal) error {
	return t.settle(types.TradeStatusExpired, exitDate, settlementPremium)
}

func (t *OptionsTrade) settle(status types.TradeStatus, exitDate time.Time, premium decimal.Decimal) error {
	if t.Status != types.TradeStatusOpen {
		return fmt.Errorf("options trade %s already %s", t.ID, t.Status)
	}

	t.Status = status
	t.ExitDate = exitDate
	t.ExitPremium = premium

	pnl := premium.Sub(t.EntryPremium).Mul(decimal.NewFromInt(int64(t.Contracts))).Mul(contractMultiplier)
	if t.Direction == types.OptionSell {
		pnl = pnl.Neg()
	}
	t.ProfitLoss = pnl

	cost := t.EntryPremium.Mul(decimal.NewFromInt(int64(t.Contracts))).Mul(contractMultiplier)
	if !cost.IsZero() {
		t.ReturnPct = pnl.Div(cost).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return nil
}

// EntryCost returns the absolute premium paid or collected at entry.
func (t *OptionsTrade) EntryCost() decimal.Decimal {
	return t.EntryPremium.Mul(decimal.NewFromInt(int64(t.Contracts))).Mul(contractMultiplier)
}

// MarkValue returns what the position is worth at the given premium.
func (t *OptionsTrade) MarkValue(premium decimal.Decimal) decimal.Decimal {
	return premium.Mul(decimal.NewFromInt(int64(t.Contracts))).Mul(contractMultiplier)
}
