// Package domain holds the core value types shared by every component:
// order book levels and updates, conversion triangles, and arbitrage
// opportunities. Types here are plain data; behavior lives in the packages
// that own it (book, sim, catalog, arb).
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceLevel is a single price+quantity entry on one side of an order book.
// A level with Qty <= 0 never appears inside a book; on the wire it signals
// deletion of that price.
type PriceLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// UpdateType discriminates the two kinds of book messages the venue emits.
type UpdateType string

const (
	// UpdateSnapshot replaces both sides of the book wholesale.
	UpdateSnapshot UpdateType = "snapshot"
	// UpdateDelta applies per-level upserts and removals.
	UpdateDelta UpdateType = "delta"
)

// BookUpdate is a parsed book message for one symbol. Bids and Asks carry
// the venue's wire representation: [price, quantity] string pairs, with a
// zero quantity meaning "remove this level". Seq is the venue's
// monotonically increasing per-symbol sequence number.
type BookUpdate struct {
	Type   UpdateType
	Symbol string
	Bids   [][]string
	Asks   [][]string
	Seq    int64
}

// BookSnapshot is an isolated, read-only copy of one symbol's book as
// served by the store. Bids are sorted descending by price, asks ascending,
// and every level has a positive quantity.
type BookSnapshot struct {
	Symbol string
	Bids   []PriceLevel
	Asks   []PriceLevel
	Seq    int64
	Time   time.Time
}

// BestBid returns the highest bid price, or zero if the side is empty.
func (s BookSnapshot) BestBid() decimal.Decimal {
	if len(s.Bids) == 0 {
		return decimal.Zero
	}
	return s.Bids[0].Price
}

// BestAsk returns the lowest ask price, or zero if the side is empty.
func (s BookSnapshot) BestAsk() decimal.Decimal {
	if len(s.Asks) == 0 {
		return decimal.Zero
	}
	return s.Asks[0].Price
}
