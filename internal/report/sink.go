package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSink writes finished exports under Dir, one subdirectory per export id.
type FileSink struct {
	Dir string
}

// Put creates the destination file for an export. Parent directories are
// created on demand.
func (s FileSink) Put(_ context.Context, exportID, filename string) (io.WriteCloser, error) {
	if s.Dir == "" {
		return nil, fmt.Errorf("export sink directory not configured")
	}
	dir := filepath.Join(s.Dir, exportID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, filepath.Base(filename)))
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}
	return f, nil
}
