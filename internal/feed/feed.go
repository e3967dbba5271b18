// Package feed owns the market-data ingestion side: it partitions the
// subscribed symbol universe across a fixed number of venue connections and
// routes every parsed book update into the order book store. Connections
// communicate with the rest of the process only through the store.
package feed

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bitloop-dev/triarb/internal/book"
	"github.com/bitloop-dev/triarb/internal/domain"
	"github.com/bitloop-dev/triarb/internal/partition"
	"github.com/bitloop-dev/triarb/internal/platform/bybit"
)

// Config holds the feed's venue and partitioning parameters.
type Config struct {
	// WSURL is the public-stream endpoint.
	WSURL string
	// Depth is the order book depth for subscription topics.
	Depth int
	// MaxSymbolsPerConn is the venue's per-connection subscription cap.
	MaxSymbolsPerConn int
}

// Feed supervises one Conn per symbol partition.
type Feed struct {
	conns  []*bybit.Conn
	logger *slog.Logger
}

// New partitions symbols and builds the per-partition connections, each
// writing through to store. Returns a wrapped domain.ErrInvalidConfig when
// the partitioning parameters are unusable.
func New(cfg Config, symbols []string, store *book.Store, logger *slog.Logger) (*Feed, error) {
	parts, err := partition.Split(symbols, cfg.MaxSymbolsPerConn)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}

	log := logger.With(slog.String("component", "feed"))

	conns := make([]*bybit.Conn, len(parts))
	for i, part := range parts {
		handler := func(u domain.BookUpdate) {
			store.Apply(u)
		}
		conns[i] = bybit.NewConn(i+1, cfg.WSURL, part, cfg.Depth, handler, logger)
	}

	log.Info("feed partitioned",
		slog.Int("symbols", len(symbols)),
		slog.Int("connections", len(conns)),
	)
	return &Feed{conns: conns, logger: log}, nil
}

// Connections returns the number of feed connections.
func (f *Feed) Connections() int {
	return len(f.conns)
}

// Run starts every connection and blocks until ctx is cancelled. Each
// connection reconnects independently; Run only returns once all of them
// have observed cancellation.
func (f *Feed) Run(ctx context.Context) error {
	f.logger.Info("feed starting")
	defer f.logger.Info("feed stopped")

	g, ctx := errgroup.WithContext(ctx)
	for _, conn := range f.conns {
		g.Go(func() error {
			defer conn.Close()
			return conn.Run(ctx)
		})
	}
	return g.Wait()
}
