// Package sim computes depth-aware simulated fills: the realistically
// achievable converted amount when walking a book side level by level,
// including a partial fill at the last level touched.
package sim

import (
	"github.com/shopspring/decimal"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// Direction selects which conversion a fill simulates.
type Direction int

const (
	// BuyWithQuote spends a quote-currency notional against ascending asks
	// and returns the base quantity acquired.
	BuyWithQuote Direction = iota
	// SellForQuote sells a base quantity into descending bids and returns
	// the quote-currency proceeds.
	SellForQuote
)

// Fill walks the given side and returns the converted amount. The side must
// already be sorted for its direction (asks ascending for BuyWithQuote,
// bids descending for SellForQuote), which is what the book store serves.
//
// Insufficient depth is not an error: the caller receives whatever was
// filled, possibly zero. A zero return therefore conflates "no liquidity"
// with "nothing could be converted"; callers treat both as a reason to skip
// the enclosing evaluation.
func Fill(side []domain.PriceLevel, amount decimal.Decimal, dir Direction) decimal.Decimal {
	if len(side) == 0 || side[0].Price.Sign() <= 0 || amount.Sign() <= 0 {
		return decimal.Zero
	}

	switch dir {
	case BuyWithQuote:
		return buyWithQuote(side, amount)
	case SellForQuote:
		return sellForQuote(side, amount)
	}
	return decimal.Zero
}

// buyWithQuote consumes asks by notional. Whole levels are swallowed while
// the remaining notional covers them; the final level is filled partially
// with remaining/price.
func buyWithQuote(asks []domain.PriceLevel, notional decimal.Decimal) decimal.Decimal {
	remaining := notional
	acquired := decimal.Zero

	for _, lvl := range asks {
		levelNotional := lvl.Price.Mul(lvl.Qty)
		if remaining.GreaterThanOrEqual(levelNotional) {
			acquired = acquired.Add(lvl.Qty)
			remaining = remaining.Sub(levelNotional)
			continue
		}
		acquired = acquired.Add(remaining.Div(lvl.Price))
		remaining = decimal.Zero
		break
	}
	return acquired
}

// sellForQuote consumes bids by base quantity, accumulating price*consumed
// proceeds per level. Stops early when the side is exhausted.
func sellForQuote(bids []domain.PriceLevel, qty decimal.Decimal) decimal.Decimal {
	remaining := qty
	proceeds := decimal.Zero

	for _, lvl := range bids {
		if remaining.Sign() <= 0 {
			break
		}
		consumed := decimal.Min(remaining, lvl.Qty)
		proceeds = proceeds.Add(lvl.Price.Mul(consumed))
		remaining = remaining.Sub(consumed)
	}
	return proceeds
}
