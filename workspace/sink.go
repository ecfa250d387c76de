// Package workspace reads project sources and writes compiled output.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Sink receives compiled output.
type Sink interface {
	// WriteFile writes data to path, creating parent directories.
	WriteFile(path string, data []byte) error
	// CopyFile copies src to dst verbatim, creating parent directories.
	CopyFile(src, dst string) error
}

// FileSink writes to the local filesystem.
type FileSink struct{}

func NewFileSink() *FileSink {
	return &FileSink{}
}

func (s *FileSink) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (s *FileSink) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return nil
}

// RecordingSink keeps output in memory. It backs dry runs.
type RecordingSink struct {
	mu     sync.Mutex
	files  map[string][]byte
	copies map[string]string
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{
		files:  make(map[string][]byte),
		copies: make(map[string]string),
	}
}

func (s *RecordingSink) WriteFile(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), data...)
	return nil
}

func (s *RecordingSink) CopyFile(src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.copies[dst] = src
	return nil
}

// File returns the data written to path.
func (s *RecordingSink) File(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	return data, ok
}

// CopySource returns the source copied to dst.
func (s *RecordingSink) CopySource(dst string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.copies[dst]
	return src, ok
}

// Paths returns every written or copied destination, sorted.
func (s *RecordingSink) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files)+len(s.copies))
	for p := range s.files {
		out = append(out, p)
	}
	for p := range s.copies {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
