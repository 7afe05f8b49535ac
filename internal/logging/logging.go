// Package logging builds the slog logger used across voxnote.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/voxnote/internal/config"
)

// FileName is the log file written under the base directory.
const FileName = "voxnote.log"

// Output selects where log records go.
type Output int

const (
	// OutputStderr is used by one-shot CLI commands and servers.
	OutputStderr Output = iota
	// OutputFile is used by the terminal UI, which owns the screen.
	OutputFile
	// OutputDiscard drops everything.
	OutputDiscard
)

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New returns a logger configured from cfg. The returned closer releases the
// log file, if one was opened.
func New(cfg *config.Config, baseDir string, out Output) (*slog.Logger, io.Closer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	var w io.Writer
	var closer io.Closer = nopCloser{}
	switch out {
	case OutputFile:
		if err := os.MkdirAll(baseDir, 0700); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(baseDir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	case OutputDiscard:
		w = io.Discard
	default:
		w = os.Stderr
	}

	return NewWithWriter(w, cfg.LogLevel, cfg.LogFormat), closer, nil
}

// NewWithWriter returns a logger writing to w in the given format ("text" or "json").
func NewWithWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if shouldRedact(a.Key) {
				a.Value = slog.StringValue("[REDACTED]")
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// shouldRedact reports whether an attribute key may carry a credential.
func shouldRedact(key string) bool {
	k := strings.ToLower(key)
	for _, s := range []string{"api_key", "apikey", "password", "secret", "token", "credential"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
