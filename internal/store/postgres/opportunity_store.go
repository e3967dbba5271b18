package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// OpportunityStore records detected opportunities in opportunity_history.
type OpportunityStore struct {
	client *Client
	logger *slog.Logger
}

// NewOpportunityStore creates an OpportunityStore backed by the given client.
func NewOpportunityStore(client *Client, logger *slog.Logger) *OpportunityStore {
	return &OpportunityStore{
		client: client,
		logger: logger.With("component", "opportunity_store"),
	}
}

// Insert persists a single opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	const q = `
		INSERT INTO opportunity_history (
			id, pair_a, pair_b, pair_c,
			initial_amount, final_amount, profit_amount, profit_percent,
			detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.client.Pool().Exec(ctx, q,
		opp.ID, opp.Pairs[0], opp.Pairs[1], opp.Pairs[2],
		opp.InitialAmount, opp.FinalAmount, opp.ProfitAmount, opp.ProfitPercent,
		opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns the most recent opportunities, newest first.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	if limit <= 0 {
		limit = 100
	}

	const q = `
		SELECT id, pair_a, pair_b, pair_c,
		       initial_amount, final_amount, profit_amount, profit_percent,
		       detected_at
		FROM opportunity_history
		ORDER BY detected_at DESC
		LIMIT $1`

	rows, err := s.client.Pool().Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	var out []domain.Opportunity
	for rows.Next() {
		var (
			opp        domain.Opportunity
			initial    decimal.Decimal
			final      decimal.Decimal
			profit     decimal.Decimal
			pct        decimal.Decimal
			detectedAt time.Time
		)
		err := rows.Scan(
			&opp.ID, &opp.Pairs[0], &opp.Pairs[1], &opp.Pairs[2],
			&initial, &final, &profit, &pct, &detectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opp.InitialAmount = initial
		opp.FinalAmount = final
		opp.ProfitAmount = profit
		opp.ProfitPercent = pct
		opp.DetectedAt = detectedAt
		out = append(out, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunities: %w", err)
	}
	return out, nil
}

// Publish stores every opportunity in the report. Implements sink.Sink.
func (s *OpportunityStore) Publish(ctx context.Context, report domain.Report) error {
	for _, opp := range report.Results {
		if err := s.Insert(ctx, opp); err != nil {
			return err
		}
	}
	if len(report.Results) > 0 {
		s.logger.Debug("opportunities persisted", "count", len(report.Results))
	}
	return nil
}

// Name identifies the store among the configured report outputs.
func (s *OpportunityStore) Name() string { return "postgres" }
