// Package logging builds the slog logger used by the kakadu CLI.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// tabHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<session>\t<message>\t<key=value ...>
type tabHandler struct {
	w       io.Writer
	level   slog.Leveler
	session string
	attrs   []slog.Attr
}

func (h *tabHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *tabHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")

	var b strings.Builder
	fmt.Fprintf(&b, "%s\t%s\t%s\t%s", ts, r.Level.String(), h.session, r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, "\t%s=%v", a.Key, a.Value)
		return true
	})
	b.WriteByte('\n')

	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *tabHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &tabHandler{
		w:       h.w,
		level:   h.level,
		session: h.session,
		attrs:   append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *tabHandler) WithGroup(string) slog.Handler { return h }

// ParseLevel maps a config level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return l, nil
}

// New creates a logger that appends to logDir/kakadu.log. With verbose set
// records are mirrored to stderr. The returned file must be closed by the
// caller.
func New(logDir, session string, level slog.Level, verbose bool) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "kakadu.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	var w io.Writer = f
	if verbose {
		w = io.MultiWriter(f, os.Stderr)
	}
	return slog.New(&tabHandler{w: w, level: level, session: session}), f, nil
}

// Adapter wraps *slog.Logger to satisfy core.Logger.
type Adapter struct {
	l *slog.Logger
}

func NewAdapter(l *slog.Logger) *Adapter { return &Adapter{l: l} }

func (a *Adapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *Adapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *Adapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *Adapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
