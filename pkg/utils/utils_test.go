package utils

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID("run")
	if !strings.HasPrefix(id, "run_") {
		t.Errorf("id %q missing prefix", id)
	}
	if GenerateID("") == GenerateID("") {
		t.Error("ids should be unique")
	}
	if !strings.HasPrefix(GenerateTradeID(), "trd_") {
		t.Error("trade ids carry the trd prefix")
	}
}

func TestSqrtDecimal(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{-4, 0},
		{4, 2},
		{2, 1.4142135},
		{10000, 100},
	}
	for _, tc := range cases {
		got := SqrtDecimal(decimal.NewFromFloat(tc.in))
		diff := got.Sub(decimal.NewFromFloat(tc.want)).Abs()
		if diff.GreaterThan(decimal.NewFromFloat(0.000001)) {
			t.Errorf("SqrtDecimal(%v) = %s, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRoundToDecimalPlaces(t *testing.T) {
	got := RoundToDecimalPlaces(decimal.NewFromFloat(3.14159), 2)
	if !got.Equal(decimal.NewFromFloat(3.14)) {
		t.Errorf("got %s, want 3.14", got)
	}
}

func TestCalculatePercentageChange(t *testing.T) {
	got := CalculatePercentageChange(decimal.NewFromInt(100), decimal.NewFromInt(150))
	if !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("got %s, want 50", got)
	}
	if !CalculatePercentageChange(decimal.Zero, decimal.NewFromInt(5)).IsZero() {
		t.Error("zero base should yield zero change")
	}
}

func TestCalculateReturns(t *testing.T) {
	prices := []decimal.Decimal{
		decimal.NewFromInt(100),
		decimal.NewFromInt(110),
		decimal.NewFromInt(99),
	}
	returns := CalculateReturns(prices)
	if len(returns) != 2 {
		t.Fatalf("got %d returns, want 2", len(returns))
	}
	if !returns[0].Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("first return = %s, want 0.1", returns[0])
	}
	if !returns[1].Equal(decimal.NewFromFloat(-0.1)) {
		t.Errorf("second return = %s, want -0.1", returns[1])
	}

	if CalculateReturns(prices[:1]) != nil {
		t.Error("single price has no returns")
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(0, 1, 10); got != 1 {
		t.Errorf("clamp low = %d", got)
	}
	if got := ClampInt(99, 1, 10); got != 10 {
		t.Errorf("clamp high = %d", got)
	}
	if got := ClampInt(5, 1, 10); got != 5 {
		t.Errorf("clamp mid = %d", got)
	}
}
