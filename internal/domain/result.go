package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is one in-window triangle evaluation: the simulated round
// trip of InitialAmount quote currency through the triangle's three legs.
// Produced fresh every evaluation pass and handed to the sinks; the core
// never retains it.
type Opportunity struct {
	ID            string          `json:"id"`
	Pairs         [3]string       `json:"pairs"`
	InitialAmount decimal.Decimal `json:"initial_amount"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	ProfitAmount  decimal.Decimal `json:"profit_amount"`
	ProfitPercent decimal.Decimal `json:"profit_percent"`
	DetectedAt    time.Time       `json:"timestamp"`
}

// Report is the output of one full evaluation pass: every in-window
// opportunity keyed by triangle, plus accounting for the triangles that
// could not be evaluated (missing book, exhausted depth).
type Report struct {
	Timestamp   time.Time              `json:"timestamp"`
	TradeAmount decimal.Decimal        `json:"trade_amount"`
	Processed   int                    `json:"triangles_processed"`
	Skipped     int                    `json:"triangles_skipped"`
	Results     map[string]Opportunity `json:"results"`
}
