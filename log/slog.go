package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger adapts a structured logger to Logger.
func NewSlogLogger(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

func (s *slogLogger) logf(level slog.Level, format string, args []any) {
	if !s.l.Enabled(context.Background(), level) {
		return
	}
	s.l.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

func (s *slogLogger) Debugf(format string, args ...any) {
	s.logf(slog.LevelDebug, format, args)
}

func (s *slogLogger) Infof(format string, args ...any) {
	s.logf(slog.LevelInfo, format, args)
}

func (s *slogLogger) Warnf(format string, args ...any) {
	s.logf(slog.LevelWarn, format, args)
}

func (s *slogLogger) Errorf(format string, args ...any) {
	s.logf(slog.LevelError, format, args)
}

// ParseLevel maps a configured level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
