package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/bitloop-dev/triarb/internal/domain"
)

const (
	// ReportChannel is the Pub/Sub channel that evaluation reports are
	// broadcast on.
	ReportChannel = "triarb:reports"

	// ReportStream is the capped stream that keeps recent reports for
	// consumers that were not connected at publish time.
	ReportStream = "triarb:reports:stream"

	// streamMaxLen caps the stream length with approximate trimming.
	streamMaxLen = 1000
)

// ResultBus publishes evaluation reports over Redis and lets consumers
// subscribe to them.
type ResultBus struct {
	client *Client
	logger *slog.Logger
}

// NewResultBus creates a ResultBus on top of an existing Client.
func NewResultBus(client *Client, logger *slog.Logger) *ResultBus {
	return &ResultBus{
		client: client,
		logger: logger.With("component", "result_bus"),
	}
}

// Publish broadcasts the report on the Pub/Sub channel and appends it to the
// capped stream.
func (b *ResultBus) Publish(ctx context.Context, report domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("redis: marshal report: %w", err)
	}

	rdb := b.client.Underlying()
	if err := rdb.Publish(ctx, ReportChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish report: %w", err)
	}

	err = rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: ReportStream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{"report": payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis: append report stream: %w", err)
	}

	b.logger.Debug("report published",
		"results", len(report.Results),
		"processed", report.Processed)
	return nil
}

// Name identifies the bus among the configured report outputs.
func (b *ResultBus) Name() string { return "redis" }

// Subscribe listens on the report channel and delivers decoded reports until
// ctx is cancelled. Malformed payloads are logged and dropped.
func (b *ResultBus) Subscribe(ctx context.Context) (<-chan domain.Report, error) {
	sub := b.client.Underlying().Subscribe(ctx, ReportChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", ReportChannel, err)
	}

	out := make(chan domain.Report, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var report domain.Report
				if err := json.Unmarshal([]byte(msg.Payload), &report); err != nil {
					b.logger.Warn("dropping malformed report", "error", err)
					continue
				}
				select {
				case out <- report:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
