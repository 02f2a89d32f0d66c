package transporters

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"xknowledge/pkg/log"
)

func entry(msg string) log.Entry {
	return log.Entry{
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:     log.Info,
		Message:   msg,
		Fields:    map[string]any{"n": 1},
	}
}

func TestStream_WritesOneJSONLinePerEntry(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	s := NewStdoutWithWriter(&buf)

	// Act
	_ = s.Write(entry("a"))
	_ = s.Write(entry("b"))

	// Assert
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines: got %d, want 2", len(lines))
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &got); err != nil {
		t.Fatalf("line is not json: %v", err)
	}
	if got["msg"] != "b" || got["level"] != "INFO" {
		t.Errorf("entry: got %v", got)
	}
	if s.Name() != "stdout" {
		t.Errorf("name: got %q, want stdout", s.Name())
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestStdStreams_Names(t *testing.T) {
	if NewStdout().Name() != "stdout" || NewStderr().Name() != "stderr" {
		t.Errorf("names: got %q and %q", NewStdout().Name(), NewStderr().Name())
	}
}

func TestFile_AppendsAndCreatesDirs(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "logs", "nested", "app.log")
	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	// Act
	_ = f.Write(entry("first"))
	_ = f.Close()
	again, err := NewFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = again.Write(entry("second"))
	_ = again.Close()

	// Assert
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("lines: got %d, want 2", n)
	}
	if !strings.Contains(string(data), `"msg":"first"`) || !strings.Contains(string(data), `"msg":"second"`) {
		t.Errorf("content: got %s", data)
	}
}

func TestFile_WriteAfterClose(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "app.log"))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	_ = f.Close()

	if err := f.Write(entry("late")); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Write after Close: got %v, want os.ErrClosed", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close: got %v, want nil", err)
	}
}

func TestLogger_EndToEnd(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Debug, NewStdoutWithWriter(&buf))

	logger.Named("store").Debug("opened", "path", "/tmp/x.db")
	logger.Close()

	out := buf.String()
	for _, want := range []string{`"level":"DEBUG"`, `"msg":"opened"`, `"component":"store"`, `"path":"/tmp/x.db"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %s, got %s", want, out)
		}
	}
}
