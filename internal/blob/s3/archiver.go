package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// Archiver uploads evaluation reports as JSON objects under a date-based
// prefix. Implements sink.Sink.
type Archiver struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
	logger   *slog.Logger
}

// NewArchiver creates an Archiver writing under the given key prefix
// ("reports" when empty).
func NewArchiver(c *Client, prefix string, logger *slog.Logger) *Archiver {
	if prefix == "" {
		prefix = "reports"
	}
	return &Archiver{
		uploader: manager.NewUploader(c.S3()),
		bucket:   c.Bucket(),
		prefix:   prefix,
		logger:   logger.With("component", "s3_archiver"),
	}
}

// Publish uploads the report to <prefix>/<yyyy-mm-dd>/<hhmmss.mmm>.json.
func (a *Archiver) Publish(ctx context.Context, report domain.Report) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal report: %w", err)
	}

	ts := report.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	key := fmt.Sprintf("%s/%s/%s.json",
		a.prefix,
		ts.UTC().Format("2006-01-02"),
		ts.UTC().Format("150405.000"),
	)

	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3blob: upload report %s: %w", key, err)
	}

	a.logger.Debug("report archived", "key", key, "bytes", len(payload))
	return nil
}

// Name identifies the archiver among the configured report outputs.
func (a *Archiver) Name() string { return "s3" }
