package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes one line per statement, truncating the file on Open.
type FileSink struct {
	path string
	f    *os.File
	w    *bufio.Writer
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Open(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("file sink: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("file sink: %w", err)
	}
	s.f = f
	s.w = bufio.NewWriter(f)
	return nil
}

func (s *FileSink) Send(ctx context.Context, stmt string) error {
	if s.w == nil {
		return fmt.Errorf("file sink: not open")
	}
	if _, err := s.w.WriteString(stmt + "\n"); err != nil {
		return fmt.Errorf("file sink: write: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	s.f, s.w = nil, nil
	if flushErr != nil {
		return fmt.Errorf("file sink: flush: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("file sink: close: %w", closeErr)
	}
	return nil
}
