package transporters

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"xknowledge/pkg/log"
)

// File appends entries to a file it owns.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewFile opens path for appending and creates missing parent directories.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &File{path: path, f: f}, nil
}

func (t *File) Name() string { return "file:" + t.path }

// Write fails with os.ErrClosed after Close.
func (t *File) Write(entry log.Entry) error {
	line, err := encodeLine(entry)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f == nil {
		return os.ErrClosed
	}
	_, err = t.f.Write(line)
	return err
}

// Close syncs and closes the file. It may be called more than once.
func (t *File) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f == nil {
		return nil
	}
	err := t.f.Sync()
	if cerr := t.f.Close(); err == nil {
		err = cerr
	}
	t.f = nil
	return err
}
