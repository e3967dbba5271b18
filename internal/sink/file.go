package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// FileSink persists the most recent report as a JSON document. Each pass
// overwrites the file via a temp-file rename so consumers polling the path
// never observe a partial write.
type FileSink struct {
	path string
}

// NewFileSink creates a sink writing to path. The parent directory is
// created on first publish if needed.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Publish implements Sink.
func (f *FileSink) Publish(_ context.Context, report domain.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("file sink: marshal report: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file sink: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("file sink: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("file sink: write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file sink: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file sink: rename into place: %w", err)
	}
	return nil
}

// Name implements Sink.
func (f *FileSink) Name() string { return "file" }
