package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bitloop-dev/triarb/internal/arbitrage"
	"github.com/bitloop-dev/triarb/internal/book"
	"github.com/bitloop-dev/triarb/internal/catalog"
	"github.com/bitloop-dev/triarb/internal/executor"
	"github.com/bitloop-dev/triarb/internal/feed"
	"github.com/bitloop-dev/triarb/internal/platform/bybit"
	"github.com/bitloop-dev/triarb/internal/sink"
)

// ScanMode runs the order book feed and the triangle evaluator, publishing
// every report to the configured sinks.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	instruments := bybit.NewInstrumentsClient(a.cfg.Bybit.RestURL)
	symbols, err := instruments.SpotSymbols(ctx)
	if err != nil {
		return fmt.Errorf("app: fetch spot symbols: %w", err)
	}
	a.logger.InfoContext(ctx, "instrument universe loaded",
		slog.Int("symbols", len(symbols)),
	)

	triangles := catalog.Build(symbols, a.cfg.Arbitrage.QuoteCurrency)
	if len(triangles) == 0 {
		return fmt.Errorf("app: no triangles found for quote %s", a.cfg.Arbitrage.QuoteCurrency)
	}
	subscribed := catalog.UniqueSymbols(triangles)
	a.logger.InfoContext(ctx, "triangle catalog built",
		slog.Int("triangles", len(triangles)),
		slog.Int("subscribed_symbols", len(subscribed)),
	)

	store := book.NewStore(a.cfg.Feed.MaxBookDepth)

	f, err := feed.New(feed.Config{
		WSURL:             a.cfg.Bybit.WSURL,
		Depth:             a.cfg.Feed.Depth,
		MaxSymbolsPerConn: a.cfg.Feed.MaxSymbolsPerConn,
	}, subscribed, store, a.logger)
	if err != nil {
		return fmt.Errorf("app: build feed: %w", err)
	}

	eval := arbitrage.New(arbitrage.Config{
		TradeAmount:     decimal.NewFromFloat(a.cfg.Arbitrage.TradeAmount),
		MinProfit:       decimal.NewFromFloat(a.cfg.Arbitrage.MinProfit),
		MaxProfit:       decimal.NewFromFloat(a.cfg.Arbitrage.MaxProfit),
		Interval:        a.cfg.Arbitrage.Interval.Duration,
		UpdateThreshold: a.cfg.Arbitrage.UpdateThreshold,
	}, store, triangles, sink.NewMulti(a.logger, deps.Sinks...), a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return f.Run(ctx) })
	g.Go(func() error { return eval.Run(ctx) })
	return g.Wait()
}

// ExecuteMode consumes reports from the result bus and hands the best
// opportunity of each to the trade executor.
func (a *App) ExecuteMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting execute mode")

	if deps.Bus == nil {
		return fmt.Errorf("app: execute mode requires the redis result bus")
	}

	consumer := executor.NewConsumer(deps.Bus, executor.NewLogExecutor(a.logger), a.logger)
	return consumer.Run(ctx)
}

// FullMode runs the scanner and the executor in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.ScanMode(ctx, deps) })
	g.Go(func() error { return a.ExecuteMode(ctx, deps) })
	return g.Wait()
}
