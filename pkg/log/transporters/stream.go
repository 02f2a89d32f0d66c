// Package transporters holds log destinations that write one JSON object
// per line.
package transporters

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"xknowledge/pkg/log"
)

// Stream writes entries to an io.Writer it does not own.
type Stream struct {
	name string
	mu   sync.Mutex
	w    io.Writer
}

func NewStdout() *Stream { return &Stream{name: "stdout", w: os.Stdout} }

// NewStderr is used by the CLI, whose stdout carries command output.
func NewStderr() *Stream { return &Stream{name: "stderr", w: os.Stderr} }

// NewStdoutWithWriter writes to w under the stdout name. Tests use it.
func NewStdoutWithWriter(w io.Writer) *Stream { return &Stream{name: "stdout", w: w} }

func (s *Stream) Name() string { return s.name }

func (s *Stream) Write(entry log.Entry) error {
	line, err := encodeLine(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(line)
	return err
}

// Close does nothing; the writer belongs to the caller.
func (s *Stream) Close() error { return nil }

func encodeLine(entry log.Entry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
