// Package book maintains consistent in-memory order books, one per symbol,
// reconciled from the venue's mix of full snapshots and incremental deltas.
// The Store is the only shared mutable state in the process: feed
// connections write through Apply, the evaluator reads through Snapshot.
package book

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// orderBook is the mutable per-symbol state. It is never handed out;
// readers get defensive copies via snapshot(). All access goes through the
// owning entry's lock in the Store.
type orderBook struct {
	symbol   string
	bids     []domain.PriceLevel // descending by price
	asks     []domain.PriceLevel // ascending by price
	seq      int64
	synced   bool // a snapshot has been applied and no gap seen since
	updated  time.Time
	maxDepth int
}

func newOrderBook(symbol string, maxDepth int) *orderBook {
	return &orderBook{symbol: symbol, maxDepth: maxDepth}
}

// apply reconciles one update into the book. Updates whose sequence is not
// newer than the book's current sequence are silently ignored; losing a
// duplicate or out-of-order message is the correct outcome, not an error.
// A sequence gap means frames were missed: the book is cleared and deltas
// are ignored until the next snapshot re-establishes a baseline.
func (b *orderBook) apply(u domain.BookUpdate) bool {
	switch u.Type {
	case domain.UpdateSnapshot:
		bids, err := parseLevels(u.Bids)
		if err != nil {
			return false
		}
		asks, err := parseLevels(u.Asks)
		if err != nil {
			return false
		}
		b.bids = sortLevels(bids, true)
		b.asks = sortLevels(asks, false)
		b.truncate()
		b.seq = u.Seq
		b.synced = true
		b.updated = time.Now()
		return true

	case domain.UpdateDelta:
		if !b.synced {
			return false
		}
		if u.Seq <= b.seq {
			return false
		}
		if u.Seq > b.seq+1 {
			b.desync()
			return false
		}

		// Parse both sides before touching the book so a malformed
		// message never leaves it half-applied.
		bids, err := parseWire(u.Bids)
		if err != nil {
			return false
		}
		asks, err := parseWire(u.Asks)
		if err != nil {
			return false
		}
		b.bids = mergeSide(b.bids, bids, true)
		b.asks = mergeSide(b.asks, asks, false)
		b.truncate()
		b.seq = u.Seq
		b.updated = time.Now()
		return true
	}
	return false
}

// desync discards accumulated state after a sequence gap. The book stays
// empty until the next snapshot.
func (b *orderBook) desync() {
	b.bids = nil
	b.asks = nil
	b.seq = 0
	b.synced = false
	b.updated = time.Now()
}

// mergeSide upserts or removes each delta level on one side and restores
// the side's sort order.
func mergeSide(side, levels []domain.PriceLevel, descending bool) []domain.PriceLevel {
	out := side
	for _, lvl := range levels {
		idx := -1
		for i := range out {
			if out[i].Price.Equal(lvl.Price) {
				idx = i
				break
			}
		}
		switch {
		case lvl.Qty.Sign() <= 0:
			if idx >= 0 {
				out = append(out[:idx], out[idx+1:]...)
			}
		case idx >= 0:
			out[idx].Qty = lvl.Qty
		default:
			out = append(out, lvl)
		}
	}
	return sortLevels(out, descending)
}

// truncate evicts the lowest-ranked levels beyond the configured depth cap.
func (b *orderBook) truncate() {
	if b.maxDepth <= 0 {
		return
	}
	if len(b.bids) > b.maxDepth {
		b.bids = b.bids[:b.maxDepth]
	}
	if len(b.asks) > b.maxDepth {
		b.asks = b.asks[:b.maxDepth]
	}
}

// snapshot returns an isolated copy of the book.
func (b *orderBook) snapshot() domain.BookSnapshot {
	snap := domain.BookSnapshot{
		Symbol: b.symbol,
		Bids:   make([]domain.PriceLevel, len(b.bids)),
		Asks:   make([]domain.PriceLevel, len(b.asks)),
		Seq:    b.seq,
		Time:   b.updated,
	}
	copy(snap.Bids, b.bids)
	copy(snap.Asks, b.asks)
	return snap
}

// parseLevels decodes wire levels for a snapshot, filtering out zero
// quantities.
func parseLevels(wire [][]string) ([]domain.PriceLevel, error) {
	levels, err := parseWire(wire)
	if err != nil {
		return nil, err
	}
	out := levels[:0]
	for _, lvl := range levels {
		if lvl.Qty.Sign() > 0 {
			out = append(out, lvl)
		}
	}
	return out, nil
}

func parseWire(wire [][]string) ([]domain.PriceLevel, error) {
	out := make([]domain.PriceLevel, 0, len(wire))
	for _, pair := range wire {
		if len(pair) < 2 {
			continue
		}
		price, err := decimal.NewFromString(pair[0])
		if err != nil {
			return nil, err
		}
		qty, err := decimal.NewFromString(pair[1])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.PriceLevel{Price: price, Qty: qty})
	}
	return out, nil
}

func sortLevels(levels []domain.PriceLevel, descending bool) []domain.PriceLevel {
	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price.GreaterThan(levels[j].Price)
		}
		return levels[i].Price.LessThan(levels[j].Price)
	})
	return levels
}
