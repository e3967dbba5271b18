// Package arbitrage evaluates every cataloged triangle against the live
// order books on a timer, simulating depth-aware fills across the three
// legs and emitting the conversions whose round-trip profit lands inside
// the configured window.
package arbitrage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bitloop-dev/triarb/internal/book"
	"github.com/bitloop-dev/triarb/internal/catalog"
	"github.com/bitloop-dev/triarb/internal/domain"
	"github.com/bitloop-dev/triarb/internal/sim"
	"github.com/bitloop-dev/triarb/internal/sink"
)

// Config holds the evaluator's trade and trigger parameters.
type Config struct {
	// TradeAmount is the quote-currency notional each cycle starts with.
	TradeAmount decimal.Decimal

	// MinProfit and MaxProfit bound the accepted profit window in percent.
	// Bounding both sides filters trivial noise below and stale/thin-book
	// outliers above.
	MinProfit decimal.Decimal
	MaxProfit decimal.Decimal

	// Interval is the fixed evaluation period.
	Interval time.Duration

	// UpdateThreshold triggers an early pass once this many book updates
	// have accumulated since the last one. Zero disables the trigger.
	UpdateThreshold int64
}

// Evaluator periodically snapshots the books referenced by the catalog and
// runs the fill simulator across each triangle's legs. Every pass produces
// one Report for the sinks. Triangle evaluations are pure functions of the
// pass's snapshots and independent of each other.
type Evaluator struct {
	cfg       Config
	store     *book.Store
	triangles []domain.Triangle
	symbols   []string
	out       sink.Sink
	logger    *slog.Logger
}

// New creates an evaluator over the given triangle catalog.
func New(cfg Config, store *book.Store, triangles []domain.Triangle, out sink.Sink, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		cfg:       cfg,
		store:     store,
		triangles: triangles,
		symbols:   catalog.UniqueSymbols(triangles),
		out:       out,
		logger:    logger.With(slog.String("component", "evaluator")),
	}
}

// Run evaluates on every interval tick, or earlier when the update-count
// trigger fires. It blocks until ctx is cancelled.
func (e *Evaluator) Run(ctx context.Context) error {
	e.logger.Info("evaluator started",
		slog.Int("triangles", len(e.triangles)),
		slog.Int("symbols", len(e.symbols)),
		slog.Duration("interval", e.cfg.Interval),
	)
	defer e.logger.Info("evaluator stopped")

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	lastCount := e.store.UpdateCount()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			lastCount = e.pass(ctx)

		case <-e.store.Changed():
			if e.cfg.UpdateThreshold <= 0 {
				continue
			}
			if e.store.UpdateCount()-lastCount < e.cfg.UpdateThreshold {
				continue
			}
			lastCount = e.pass(ctx)
			ticker.Reset(e.cfg.Interval)
		}
	}
}

// pass runs one full evaluation and hands the report to the sinks. Returns
// the store's update count at snapshot time so the caller can re-arm the
// update trigger.
func (e *Evaluator) pass(ctx context.Context) int64 {
	count := e.store.UpdateCount()
	report := e.Evaluate(time.Now().UTC())

	if err := e.out.Publish(ctx, report); err != nil {
		e.logger.Warn("report delivery incomplete", slog.String("error", err.Error()))
	}

	if len(report.Results) > 0 {
		e.logger.Info("opportunities found",
			slog.Int("count", len(report.Results)),
			slog.Int("processed", report.Processed),
			slog.Int("skipped", report.Skipped),
		)
	}
	return count
}

// Evaluate performs one pass over the catalog against the current books.
// Exposed for tests and for one-shot evaluation.
func (e *Evaluator) Evaluate(now time.Time) domain.Report {
	// One consistent snapshot per referenced symbol; every triangle in the
	// pass sees the same books.
	books := make(map[string]domain.BookSnapshot, len(e.symbols))
	for _, symb := range e.symbols {
		books[symb] = e.store.Snapshot(symb)
	}

	report := domain.Report{
		Timestamp:   now,
		TradeAmount: e.cfg.TradeAmount,
		Results:     make(map[string]domain.Opportunity),
	}

	for _, tri := range e.triangles {
		opp, ok := e.evaluateTriangle(tri, books, now)
		if !ok {
			report.Skipped++
			continue
		}
		report.Processed++

		if opp.ProfitPercent.GreaterThanOrEqual(e.cfg.MinProfit) &&
			opp.ProfitPercent.LessThanOrEqual(e.cfg.MaxProfit) {
			report.Results[tri.Key()] = opp
		}
	}
	return report
}

// evaluateTriangle simulates the three conversions:
//
//	quote --asks pairA--> token1 --bids pairB--> token2 --bids pairC--> quote
//
// Any leg filling to zero (no book, no liquidity, nothing convertible)
// skips the triangle for this pass; the simulator deliberately does not
// distinguish those cases.
func (e *Evaluator) evaluateTriangle(tri domain.Triangle, books map[string]domain.BookSnapshot, now time.Time) (domain.Opportunity, bool) {
	leg1 := sim.Fill(books[tri.PairA].Asks, e.cfg.TradeAmount, sim.BuyWithQuote)
	if leg1.Sign() <= 0 {
		return domain.Opportunity{}, false
	}

	leg2 := sim.Fill(books[tri.PairB].Bids, leg1, sim.SellForQuote)
	if leg2.Sign() <= 0 {
		return domain.Opportunity{}, false
	}

	leg3 := sim.Fill(books[tri.PairC].Bids, leg2, sim.SellForQuote)
	if leg3.Sign() <= 0 {
		return domain.Opportunity{}, false
	}

	profit := leg3.Sub(e.cfg.TradeAmount)
	percent := profit.Div(e.cfg.TradeAmount).Mul(decimal.NewFromInt(100))

	return domain.Opportunity{
		ID:            uuid.NewString(),
		Pairs:         tri.Symbols(),
		InitialAmount: e.cfg.TradeAmount,
		FinalAmount:   leg3,
		ProfitAmount:  profit,
		ProfitPercent: percent,
		DetectedAt:    now,
	}, true
}
