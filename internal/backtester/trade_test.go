package backtester

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-desktop/quantbt/pkg/types"
)

var testDay = time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)

func TestTradeLifecycle(t *testing.T) {
	trade, err := NewTrade(types.DirectionLong, testDay, decimal.NewFromInt(10), decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trade.Status != types.TradeStatusOpen {
		t.Fatalf("new trade should be open, got %s", trade.Status)
	}
	if trade.ID == "" {
		t.Fatal("trade should have an ID")
	}

	if err := trade.Close(testDay.AddDate(0, 0, 5), decimal.NewFromInt(12)); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if trade.Status != types.TradeStatusClosed {
		t.Fatalf("expected closed, got %s", trade.Status)
	}
	// (12-10) * 100 = 200 on a 1000 cost basis.
	if !trade.ProfitLoss.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected pnl 200, got %s", trade.ProfitLoss)
	}
	if !trade.ReturnPct.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected return 20%%, got %s", trade.ReturnPct)
	}
}

func TestTradeCloseTwiceFails(t *testing.T) {
	trade, _ := NewTrade(types.DirectionLong, testDay, decimal.NewFromInt(10), decimal.NewFromInt(100))
	if err := trade.Close(testDay, decimal.NewFromInt(11)); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := trade.Close(testDay, decimal.NewFromInt(12)); err == nil {
		t.Fatal("second close should fail")
	}
}

func TestTradeShortProfitLoss(t *testing.T) {
	trade, _ := NewTrade(types.DirectionShort, testDay, decimal.NewFromInt(10), decimal.NewFromInt(100))
	if err := trade.Close(testDay, decimal.NewFromInt(12)); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	// A short loses when price rises.
	if !trade.ProfitLoss.Equal(decimal.NewFromInt(-200)) {
		t.Fatalf("expected pnl -200, got %s", trade.ProfitLoss)
	}
}

func TestTradeRejectsNonPositiveShares(t *testing.T) {
	if _, err := NewTrade(types.DirectionLong, testDay, decimal.NewFromInt(10), decimal.Zero); err == nil {
		t.Fatal("zero shares should be rejected")
	}
	if _, err := NewTrade(types.DirectionLong, testDay, decimal.NewFromInt(10), decimal.NewFromInt(-5)); err == nil {
		t.Fatal("negative shares should be rejected")
	}
}

func TestOptionsTradeBuyerLifecycle(t *testing.T) {
	trade, err := NewOptionsTrade(types.OptionCall, types.OptionBuy,
		decimal.NewFromInt(105), testDay.AddDate(0, 1, 0), testDay,
		decimal.NewFromInt(2), 3, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 3 contracts * 100 multiplier * $2 premium.
	if !trade.EntryCost().Equal(decimal.NewFromInt(600)) {
		t.Fatalf("expected entry cost 600, got %s", trade.EntryCost())
	}

	if err := trade.Close(testDay.AddDate(0, 0, 10), decimal.NewFromInt(5)); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	// (5-2) * 3 * 100 = 900 for the buyer.
	if !trade.ProfitLoss.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected pnl 900, got %s", trade.ProfitLoss)
	}
	if !trade.ReturnPct.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected return 150%%, got %s", trade.ReturnPct)
	}
}

func TestOptionsTradeWriterProfitSign(t *testing.T) {
	trade, _ := NewOptionsTrade(types.OptionCall, types.OptionSell,
		decimal.NewFromInt(105), testDay.AddDate(0, 1, 0), testDay,
		decimal.NewFromInt(2), 1, decimal.NewFromInt(1000))

	// Premium fell from 2 to 1: the writer keeps the difference.
	if err := trade.Close(testDay.AddDate(0, 0, 10), decimal.NewFromInt(1)); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !trade.ProfitLoss.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected pnl 100, got %s", trade.ProfitLoss)
	}
}

func TestOptionsTradeExpire(t *testing.T) {
	expiry := testDay.AddDate(0, 1, 0)
	trade, _ := NewOptionsTrade(types.OptionPut, types.OptionBuy,
		decimal.NewFromInt(95), expiry, testDay,
		decimal.NewFromInt(3), 2, decimal.NewFromInt(1000))

	if err := trade.Expire(expiry, decimal.Zero); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if trade.Status != types.TradeStatusExpired {
		t.Fatalf("expected expired, got %s", trade.Status)
	}
	// Paid 3 * 2 * 100 and settled worthless.
	if !trade.ProfitLoss.Equal(decimal.NewFromInt(-600)) {
		t.Fatalf("expected pnl -600, got %s", trade.ProfitLoss)
	}

	if err := trade.Close(expiry, decimal.NewFromInt(1)); err == nil {
		t.Fatal("closing an expired trade should fail")
	}
}

func TestOptionsTradeRejectsNonPositiveContracts(t *testing.T) {
	if _, err := NewOptionsTrade(types.OptionCall, types.OptionBuy,
		decimal.NewFromInt(100), testDay.AddDate(0, 1, 0), testDay,
		decimal.NewFromInt(2), 0, decimal.Zero); err == nil {
		t.Fatal("zero contracts should be rejected")
	}
}
