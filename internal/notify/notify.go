// Package notify implements gallery notifiers for terminals and logs.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"

	"github.com/hpungsan/stocker/internal/gallery"
)

// Terminal prints notifications as colored lines, green for success and red
// for errors.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	success *color.Color
	failure *color.Color
}

// NewTerminal returns a Terminal writing to w. Color follows the fatih/color
// defaults (off when w is not a terminal or NO_COLOR is set) unless plain is true.
func NewTerminal(w io.Writer, plain bool) *Terminal {
	t := &Terminal{
		w:       w,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
	}
	if plain {
		t.success.DisableColor()
		t.failure.DisableColor()
	}
	return t
}

// Notify implements gallery.Notifier.
func (t *Terminal) Notify(kind gallery.Kind, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch kind {
	case gallery.KindError:
		t.failure.Fprintf(t.w, "✗ %s\n", message)
	default:
		t.success.Fprintf(t.w, "✓ %s\n", message)
	}
}

// Log records notifications through slog.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a Log notifier.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

// Notify implements gallery.Notifier.
func (l *Log) Notify(kind gallery.Kind, message string) {
	if kind == gallery.KindError {
		l.logger.Error(message, "notify", string(kind))
		return
	}
	l.logger.Info(message, "notify", string(kind))
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// Notify implements gallery.Notifier.
func (r *Recorder) Notify(kind gallery.Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, fmt.Sprintf("%s: %s", kind, message))
}

// Messages returns the recorded notifications as "kind: message".
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}
