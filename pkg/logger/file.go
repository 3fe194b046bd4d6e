package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// NewFile returns a JSON logger appending to path, creating the file and its
// parent directories as needed. The returned closer closes the file. Options
// other than the level and source are ignored.
func NewFile(path string, opts ...Option) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	c := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(c)
	}

	l := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level:     c.level,
		AddSource: c.source,
	}))
	return l, f, nil
}
