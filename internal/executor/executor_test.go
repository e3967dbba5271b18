package executor

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitloop-dev/triarb/internal/domain"
)

type stubSource struct {
	ch chan domain.Report
}

func (s *stubSource) Subscribe(ctx context.Context) (<-chan domain.Report, error) {
	return s.ch, nil
}

type recordingExecutor struct {
	ids chan string
}

func (r *recordingExecutor) Execute(ctx context.Context, opp domain.Opportunity) error {
	r.ids <- opp.ID
	return nil
}

func opp(id, pct string) domain.Opportunity {
	return domain.Opportunity{
		ID:            id,
		ProfitPercent: decimal.RequireFromString(pct),
	}
}

func TestBestOpportunityPicksHighestProfit(t *testing.T) {
	report := domain.Report{
		Results: map[string]domain.Opportunity{
			"A-B-C": opp("low", "0.6"),
			"D-E-F": opp("high", "1.4"),
			"G-H-I": opp("mid", "0.9"),
		},
	}

	best, ok := bestOpportunity(report)
	require.True(t, ok)
	assert.Equal(t, "high", best.ID)
}

func TestBestOpportunityEmptyReport(t *testing.T) {
	_, ok := bestOpportunity(domain.Report{})
	assert.False(t, ok)
}

func TestConsumerExecutesBestPerReport(t *testing.T) {
	src := &stubSource{ch: make(chan domain.Report, 2)}
	exec := &recordingExecutor{ids: make(chan string, 2)}
	c := NewConsumer(src, exec, slog.New(slog.DiscardHandler))

	src.ch <- domain.Report{
		Results: map[string]domain.Opportunity{
			"A-B-C": opp("first", "1.0"),
		},
	}
	src.ch <- domain.Report{
		Results: map[string]domain.Opportunity{
			"A-B-C": opp("worse", "0.7"),
			"D-E-F": opp("second", "1.9"),
		},
	}
	close(src.ch)

	err := c.Run(t.Context())
	require.NoError(t, err)

	select {
	case id := <-exec.ids:
		assert.Equal(t, "first", id)
	case <-time.After(time.Second):
		t.Fatal("no execution for first report")
	}
	select {
	case id := <-exec.ids:
		assert.Equal(t, "second", id)
	case <-time.After(time.Second):
		t.Fatal("no execution for second report")
	}
}
