// Package notify delivers opportunity alerts to operators over Telegram and
// Discord. Alerts are throttled so a persistent opportunity does not flood
// the channel on every evaluation pass.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// AlertSink formats evaluation reports into operator alerts and dispatches
// them to all configured senders. Implements sink.Sink.
type AlertSink struct {
	senders  []Sender
	cooldown time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	lastSent time.Time
}

// NewAlertSink creates an AlertSink. Reports arriving within cooldown of the
// previous alert are dropped silently.
func NewAlertSink(senders []Sender, cooldown time.Duration, logger *slog.Logger) *AlertSink {
	return &AlertSink{
		senders:  senders,
		cooldown: cooldown,
		logger:   logger.With(slog.String("component", "alert_sink")),
	}
}

// Publish sends one alert summarising the report's opportunities, best
// first. Empty reports and reports inside the cooldown window are skipped.
func (a *AlertSink) Publish(ctx context.Context, report domain.Report) error {
	if len(report.Results) == 0 {
		return nil
	}

	a.mu.Lock()
	now := time.Now()
	if a.cooldown > 0 && now.Sub(a.lastSent) < a.cooldown {
		a.mu.Unlock()
		return nil
	}
	a.lastSent = now
	a.mu.Unlock()

	title := fmt.Sprintf("%d arbitrage opportunities", len(report.Results))
	return a.dispatch(ctx, title, formatReport(report))
}

// Name identifies the alert sink among the configured report outputs.
func (a *AlertSink) Name() string { return "notify" }

func (a *AlertSink) dispatch(ctx context.Context, title, message string) error {
	if len(a.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range a.senders {
		if err := s.Send(ctx, title, message); err != nil {
			a.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		a.logger.DebugContext(ctx, "alert sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// formatReport renders the report's opportunities sorted by profit percent,
// most profitable first.
func formatReport(report domain.Report) string {
	opps := make([]domain.Opportunity, 0, len(report.Results))
	for _, o := range report.Results {
		opps = append(opps, o)
	}
	sort.Slice(opps, func(i, j int) bool {
		return opps[i].ProfitPercent.GreaterThan(opps[j].ProfitPercent)
	})

	var b strings.Builder
	for _, o := range opps {
		fmt.Fprintf(&b, "%s -> %s -> %s: %s%% (%s -> %s)\n",
			o.Pairs[0], o.Pairs[1], o.Pairs[2],
			o.ProfitPercent.StringFixed(4),
			o.InitialAmount.String(),
			o.FinalAmount.StringFixed(4),
		)
	}
	fmt.Fprintf(&b, "processed %d, skipped %d", report.Processed, report.Skipped)
	return b.String()
}
