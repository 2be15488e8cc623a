package report

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/harrison/dora/internal/filelock"
	"github.com/harrison/dora/internal/submission"
)

// FileSink writes the HTML report into a directory.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink writing into dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Name implements Sink.
func (f *FileSink) Name() string { return "file" }

// Path returns where the report for doc is written.
func (f *FileSink) Path(doc *Document) string {
	return filepath.Join(f.dir, doc.Filename)
}

// Send implements Sink.
func (f *FileSink) Send(ctx context.Context, doc *Document, _ submission.ReportRequest) error {
	if err := filelock.LockAndWriteContext(ctx, f.Path(doc), doc.HTML); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
