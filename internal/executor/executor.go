// Package executor consumes evaluation reports from the result bus and hands
// in-window opportunities to a trade executor. The only executor shipped is
// LogExecutor; live order placement plugs in behind the same interface.
package executor

import (
	"context"
	"log/slog"
	"sort"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// TradeExecutor acts on a detected opportunity.
type TradeExecutor interface {
	Execute(ctx context.Context, opp domain.Opportunity) error
}

// LogExecutor logs opportunities instead of trading them.
type LogExecutor struct {
	logger *slog.Logger
}

// NewLogExecutor creates a LogExecutor.
func NewLogExecutor(logger *slog.Logger) *LogExecutor {
	return &LogExecutor{logger: logger.With("component", "log_executor")}
}

// Execute records the opportunity at info level.
func (e *LogExecutor) Execute(ctx context.Context, opp domain.Opportunity) error {
	e.logger.InfoContext(ctx, "would execute",
		"id", opp.ID,
		"pairs", opp.Pairs,
		"profit_percent", opp.ProfitPercent.String(),
		"initial", opp.InitialAmount.String(),
		"final", opp.FinalAmount.String(),
	)
	return nil
}

// ReportSource delivers evaluation reports, typically from the Redis bus.
type ReportSource interface {
	Subscribe(ctx context.Context) (<-chan domain.Report, error)
}

// Consumer reads reports from a source and executes the most profitable
// opportunity of each report.
type Consumer struct {
	source ReportSource
	exec   TradeExecutor
	logger *slog.Logger
}

// NewConsumer creates a Consumer.
func NewConsumer(source ReportSource, exec TradeExecutor, logger *slog.Logger) *Consumer {
	return &Consumer{
		source: source,
		exec:   exec,
		logger: logger.With("component", "consumer"),
	}
}

// Run subscribes to the source and processes reports until ctx is cancelled
// or the source closes.
func (c *Consumer) Run(ctx context.Context) error {
	reports, err := c.source.Subscribe(ctx)
	if err != nil {
		return err
	}

	c.logger.Info("consuming reports")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case report, ok := <-reports:
			if !ok {
				c.logger.Info("report source closed")
				return nil
			}
			c.handle(ctx, report)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, report domain.Report) {
	best, ok := bestOpportunity(report)
	if !ok {
		return
	}
	if err := c.exec.Execute(ctx, best); err != nil {
		c.logger.ErrorContext(ctx, "execution failed",
			"id", best.ID,
			"error", err,
		)
	}
}

// bestOpportunity picks the highest profit percent entry. Ties break on
// triangle key so the choice is deterministic.
func bestOpportunity(report domain.Report) (domain.Opportunity, bool) {
	if len(report.Results) == 0 {
		return domain.Opportunity{}, false
	}

	keys := make([]string, 0, len(report.Results))
	for k := range report.Results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := report.Results[keys[0]]
	for _, k := range keys[1:] {
		if report.Results[k].ProfitPercent.GreaterThan(best.ProfitPercent) {
			best = report.Results[k]
		}
	}
	return best, true
}
