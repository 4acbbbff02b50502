package auth

import (
	"log/slog"
)

// SlogLogger adapts a *slog.Logger to Logger. Arguments are treated as
// key value pairs.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l, a nil logger falls back to slog.Default
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l.With(slog.String("component", "auth"))}
}

func (s *SlogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *SlogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *SlogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *SlogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
