package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Logger appends timestamped lines to a debug log. A nil *Logger discards
// everything, so callers never need to check whether logging is enabled.
type Logger struct {
	mu     *sync.Mutex
	out    io.Writer
	closer io.Closer
	prefix string
}

// Open creates (or reuses) the log file at path. An empty path returns a nil
// logger.
func Open(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{mu: &sync.Mutex{}, out: f, closer: f}, nil
}

// New writes to w without taking ownership of it.
func New(w io.Writer) *Logger {
	return &Logger{mu: &sync.Mutex{}, out: w}
}

// With returns a logger that tags every line with the given session id.
func (l *Logger) With(sessionID string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{mu: l.mu, out: l.out, prefix: "[" + sessionID + "] "}
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Printf writes a single timestamped line.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	line = strings.TrimRight(line, "\n")
	timestamp := time.Now().Format(time.RFC3339)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %s%s\n", timestamp, l.prefix, line)
}
