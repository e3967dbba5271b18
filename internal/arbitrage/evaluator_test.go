package arbitrage

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitloop-dev/triarb/internal/book"
	"github.com/bitloop-dev/triarb/internal/catalog"
	"github.com/bitloop-dev/triarb/internal/domain"
)

type captureSink struct {
	mu      sync.Mutex
	reports []domain.Report
}

func (c *captureSink) Publish(_ context.Context, r domain.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
	return nil
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reports)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func feedSnapshot(t *testing.T, s *book.Store, symbol string, bids, asks [][]string) {
	t.Helper()
	require.True(t, s.Apply(domain.BookUpdate{
		Type:   domain.UpdateSnapshot,
		Symbol: symbol,
		Bids:   bids,
		Asks:   asks,
		Seq:    1,
	}))
}

func testConfig() Config {
	return Config{
		TradeAmount: decimal.NewFromInt(1000),
		MinProfit:   decimal.NewFromFloat(0.5),
		MaxProfit:   decimal.NewFromInt(2),
		Interval:    time.Second,
	}
}

// Depth-1 books priced so 1000 USDT -> 0.5 ETH -> 0.025 BTC -> 1008 USDT,
// a 0.8% round trip inside the [0.5, 2] window.
func profitableBooks(t *testing.T, s *book.Store) {
	feedSnapshot(t, s, "ETHUSDT", nil, [][]string{{"2000", "1"}})
	feedSnapshot(t, s, "ETHBTC", [][]string{{"0.05", "10"}}, nil)
	feedSnapshot(t, s, "BTCUSDT", [][]string{{"40320", "1"}}, nil)
}

func TestEvaluateEmitsProfitableTriangle(t *testing.T) {
	store := book.NewStore(50)
	profitableBooks(t, store)

	triangles := catalog.Build([]string{"BTCUSDT", "ETHBTC", "ETHUSDT"}, "USDT")
	require.Len(t, triangles, 1)

	ev := New(testConfig(), store, triangles, &captureSink{}, discardLogger())
	report := ev.Evaluate(time.Now())

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Results, 1)

	opp, ok := report.Results["ETHUSDT-ETHBTC-BTCUSDT"]
	require.True(t, ok)
	assert.Equal(t, [3]string{"ETHUSDT", "ETHBTC", "BTCUSDT"}, opp.Pairs)
	assert.True(t, opp.FinalAmount.Equal(decimal.NewFromInt(1008)), "final %s", opp.FinalAmount)
	assert.True(t, opp.ProfitPercent.Equal(decimal.RequireFromString("0.8")), "profit %s", opp.ProfitPercent)
	assert.NotEmpty(t, opp.ID)
}

func TestEvaluateOutOfWindow(t *testing.T) {
	store := book.NewStore(50)
	feedSnapshot(t, store, "ETHUSDT", nil, [][]string{{"2000", "1"}})
	feedSnapshot(t, store, "ETHBTC", [][]string{{"0.05", "10"}}, nil)
	// 0.025 BTC * 48000 = 1200 USDT: a 20% "profit", the signature of a
	// stale book rather than a real opportunity.
	feedSnapshot(t, store, "BTCUSDT", [][]string{{"48000", "1"}}, nil)

	triangles := catalog.Build([]string{"BTCUSDT", "ETHBTC", "ETHUSDT"}, "USDT")
	ev := New(testConfig(), store, triangles, &captureSink{}, discardLogger())

	report := ev.Evaluate(time.Now())
	assert.Equal(t, 1, report.Processed)
	assert.Empty(t, report.Results)
}

func TestEvaluateSkipsMissingBook(t *testing.T) {
	store := book.NewStore(50)
	feedSnapshot(t, store, "ETHUSDT", nil, [][]string{{"2000", "1"}})
	// ETHBTC and BTCUSDT never receive updates.

	triangles := catalog.Build([]string{"BTCUSDT", "ETHBTC", "ETHUSDT"}, "USDT")
	ev := New(testConfig(), store, triangles, &captureSink{}, discardLogger())

	report := ev.Evaluate(time.Now())
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, report.Results)
}

func TestEvaluateSkipsExhaustedLeg(t *testing.T) {
	store := book.NewStore(50)
	feedSnapshot(t, store, "ETHUSDT", nil, [][]string{{"2000", "1"}})
	feedSnapshot(t, store, "ETHBTC", [][]string{}, [][]string{{"0.06", "1"}})
	feedSnapshot(t, store, "BTCUSDT", [][]string{{"40320", "1"}}, nil)

	triangles := catalog.Build([]string{"BTCUSDT", "ETHBTC", "ETHUSDT"}, "USDT")
	ev := New(testConfig(), store, triangles, &captureSink{}, discardLogger())

	// Empty ETHBTC bid side: leg 2 fills to zero, triangle is skipped,
	// no error surfaces.
	report := ev.Evaluate(time.Now())
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 1, report.Skipped)
}

func TestRunPublishesOnTicker(t *testing.T) {
	store := book.NewStore(50)
	profitableBooks(t, store)

	triangles := catalog.Build([]string{"BTCUSDT", "ETHBTC", "ETHUSDT"}, "USDT")
	capture := &captureSink{}

	cfg := testConfig()
	cfg.Interval = 10 * time.Millisecond
	ev := New(cfg, store, triangles, capture, discardLogger())

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	err := ev.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, capture.count(), 2)
}

func TestRunUpdateCountTrigger(t *testing.T) {
	store := book.NewStore(50)
	triangles := catalog.Build([]string{"BTCUSDT", "ETHBTC", "ETHUSDT"}, "USDT")
	capture := &captureSink{}

	cfg := testConfig()
	cfg.Interval = time.Hour // only the update trigger can fire
	cfg.UpdateThreshold = 3
	ev := New(cfg, store, triangles, capture, discardLogger())

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ev.Run(ctx) }()

	profitableBooks(t, store) // three applied updates

	require.Eventually(t, func() bool { return capture.count() >= 1 },
		2*time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
