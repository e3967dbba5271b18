// Package sink defines where evaluation reports go once produced: files,
// the result bus, the opportunity store, object storage, or notifications.
// The evaluator fans every report out through a Multi sink and never learns
// what is behind it.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// Sink consumes one evaluation report. Implementations must be safe for
// sequential reuse; they are called once per evaluation pass.
type Sink interface {
	// Publish delivers the report. Failures are the sink's own problem to
	// report; the evaluator logs and moves on.
	Publish(ctx context.Context, report domain.Report) error
	// Name identifies the sink in logs.
	Name() string
}

// Multi fans a report out to every registered sink. One sink failing does
// not prevent delivery to the rest.
type Multi struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewMulti builds a fan-out over the given sinks.
func NewMulti(logger *slog.Logger, sinks ...Sink) *Multi {
	return &Multi{
		sinks:  sinks,
		logger: logger.With(slog.String("component", "sink")),
	}
}

// Publish delivers the report to every sink, collecting failures into a
// single combined error.
func (m *Multi) Publish(ctx context.Context, report domain.Report) error {
	var errs []string
	for _, s := range m.sinks {
		if err := s.Publish(ctx, report); err != nil {
			m.logger.Error("sink failed",
				slog.String("sink", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("sink: %d sink(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// Name implements Sink.
func (m *Multi) Name() string { return "multi" }
