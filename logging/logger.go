package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// NewLogger returns a JSON logger writing to w at the supplied slog level.
func NewLogger(lvl int, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.Level(lvl),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.Function = ""
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}))
}

// LogFunc adapts l to the level-int log functions taken by the client runtime.
func LogFunc(l *slog.Logger) func(int, string, ...any) {
	return func(level int, msg string, args ...any) {
		switch {
		case level <= int(slog.LevelDebug):
			l.Debug(msg, args...)
		case level < int(slog.LevelWarn):
			l.Info(msg, args...)
		case level < int(slog.LevelError):
			l.Warn(msg, args...)
		default:
			l.Error(msg, args...)
		}
	}
}

// Output returns the log destination: the file at path opened for appending,
// or stderr when path is empty. The returned func closes the file.
func Output(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stderr, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open log file: %w", err)
	}
	return f, f.Close, nil
}
