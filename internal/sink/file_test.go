package sink

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitloop-dev/triarb/internal/domain"
)

func sampleReport() domain.Report {
	return domain.Report{
		Timestamp:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		TradeAmount: decimal.RequireFromString("1000"),
		Processed:   12,
		Skipped:     3,
		Results: map[string]domain.Opportunity{
			"ETHUSDT-ETHBTC-BTCUSDT": {
				ID:            "op-1",
				Pairs:         [3]string{"ETHUSDT", "ETHBTC", "BTCUSDT"},
				InitialAmount: decimal.RequireFromString("1000"),
				FinalAmount:   decimal.RequireFromString("1008"),
				ProfitAmount:  decimal.RequireFromString("8"),
				ProfitPercent: decimal.RequireFromString("0.8"),
				DetectedAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			},
		},
	}
}

func TestFileSinkWritesReportDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	s := NewFileSink(path)

	require.NoError(t, s.Publish(context.Background(), sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "timestamp")
	assert.Contains(t, doc, "trade_amount")
	assert.Contains(t, doc, "triangles_processed")
	assert.Contains(t, doc, "triangles_skipped")
	assert.Contains(t, doc, "results")

	var results map[string]domain.Opportunity
	require.NoError(t, json.Unmarshal(doc["results"], &results))
	opp, ok := results["ETHUSDT-ETHBTC-BTCUSDT"]
	require.True(t, ok)
	assert.Equal(t, [3]string{"ETHUSDT", "ETHBTC", "BTCUSDT"}, opp.Pairs)
	assert.True(t, opp.ProfitPercent.Equal(decimal.RequireFromString("0.8")))
}

func TestFileSinkOverwritesPreviousReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	s := NewFileSink(path)

	first := sampleReport()
	require.NoError(t, s.Publish(context.Background(), first))

	second := sampleReport()
	second.Processed = 99
	second.Results = map[string]domain.Opportunity{}
	require.NoError(t, s.Publish(context.Background(), second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got domain.Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 99, got.Processed)
	assert.Empty(t, got.Results)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

type failingSink struct{}

func (failingSink) Publish(context.Context, domain.Report) error { return errors.New("boom") }
func (failingSink) Name() string                                 { return "failing" }

type countingSink struct{ calls int }

func (c *countingSink) Publish(context.Context, domain.Report) error {
	c.calls++
	return nil
}
func (c *countingSink) Name() string { return "counting" }

func TestMultiDeliversPastFailures(t *testing.T) {
	counter := &countingSink{}
	m := NewMulti(slog.New(slog.DiscardHandler), failingSink{}, counter)

	err := m.Publish(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.Equal(t, 1, counter.calls)
}
