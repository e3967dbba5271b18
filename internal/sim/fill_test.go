package sim

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bitloop-dev/triarb/internal/domain"
)

func levels(pairs ...[2]float64) []domain.PriceLevel {
	out := make([]domain.PriceLevel, len(pairs))
	for i, p := range pairs {
		out[i] = domain.PriceLevel{
			Price: decimal.NewFromFloat(p[0]),
			Qty:   decimal.NewFromFloat(p[1]),
		}
	}
	return out
}

func TestFillBuyWithQuote(t *testing.T) {
	tests := []struct {
		name     string
		asks     []domain.PriceLevel
		notional float64
		want     string
	}{
		{
			name:     "partial fill of first level",
			asks:     levels([2]float64{100, 2}, [2]float64{101, 3}),
			notional: 150,
			want:     "1.5", // 150/100
		},
		{
			name:     "whole first level plus partial second",
			asks:     levels([2]float64{100, 2}, [2]float64{101, 3}),
			notional: 301,
			want:     "3", // 2 + 101/101
		},
		{
			name:     "notional exceeds total depth",
			asks:     levels([2]float64{100, 1}, [2]float64{101, 1}),
			notional: 1000,
			want:     "2",
		},
		{
			name:     "exact level boundary",
			asks:     levels([2]float64{100, 2}),
			notional: 200,
			want:     "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fill(tt.asks, decimal.NewFromFloat(tt.notional), BuyWithQuote)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestFillSellForQuote(t *testing.T) {
	tests := []struct {
		name string
		bids []domain.PriceLevel
		qty  float64
		want string
	}{
		{
			name: "spans two levels",
			bids: levels([2]float64{100, 2}, [2]float64{99, 5}),
			qty:  4,
			want: "398", // 100*2 + 99*2
		},
		{
			name: "side exhausted first",
			bids: levels([2]float64{100, 1}),
			qty:  5,
			want: "100",
		},
		{
			name: "single level partial",
			bids: levels([2]float64{100, 10}),
			qty:  3,
			want: "300",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fill(tt.bids, decimal.NewFromFloat(tt.qty), SellForQuote)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestFillDegenerateInputs(t *testing.T) {
	asks := levels([2]float64{100, 1})

	assert.True(t, Fill(nil, decimal.NewFromInt(100), BuyWithQuote).IsZero())
	assert.True(t, Fill(asks, decimal.Zero, BuyWithQuote).IsZero())
	assert.True(t, Fill(asks, decimal.NewFromInt(-5), SellForQuote).IsZero())

	zeroPrice := []domain.PriceLevel{{Price: decimal.Zero, Qty: decimal.NewFromInt(1)}}
	assert.True(t, Fill(zeroPrice, decimal.NewFromInt(100), BuyWithQuote).IsZero())
}
