package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ANSI color codes
const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

// ConsoleHandler is a slog.Handler that writes bracket-formatted lines:
// [LEVEL] [SYSTEM] [HH:MM:SS] message key=value key=value
//
// The "system" attribute is promoted into its own bracket instead of being
// rendered as a trailing key=value pair.
type ConsoleHandler struct {
	w      io.Writer
	level  slog.Level
	mu     *sync.Mutex
	system string
	colors bool
	attrs  []slog.Attr
}

// NewConsoleHandler creates a console handler writing at the given level
func NewConsoleHandler(w io.Writer, level slog.Level) *ConsoleHandler {
	colors := false
	if f, ok := w.(*os.File); ok {
		colors = term.IsTerminal(int(f.Fd()))
	}
	return &ConsoleHandler{
		w:      w,
		level:  level,
		mu:     &sync.Mutex{},
		colors: colors,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes a log record
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder

	if h.colors {
		b.WriteString(h.levelColor(r.Level))
	}
	b.WriteString("[")
	b.WriteString(levelString(r.Level))
	b.WriteString("]")
	if h.colors {
		b.WriteString(ansiReset)
	}

	if h.system != "" {
		b.WriteString(" [")
		b.WriteString(h.system)
		b.WriteString("]")
	}

	if h.colors {
		b.WriteString(ansiGray)
	}
	b.WriteString(" [")
	b.WriteString(r.Time.Format("15:04:05"))
	b.WriteString("]")
	if h.colors {
		b.WriteString(ansiReset)
	}

	b.WriteString(" ")
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		if a.Key != "system" {
			appendAttr(&b, a)
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "system" {
			appendAttr(&b, a)
		}
		return true
	})

	b.WriteString("\n")
	_, err := h.w.Write([]byte(b.String()))
	return err
}

// WithAttrs returns a new handler with the given attributes added
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(merged, h.attrs)

	system := h.system
	for _, a := range attrs {
		if a.Key == "system" {
			system = a.Value.String()
			continue
		}
		merged = append(merged, a)
	}

	return &ConsoleHandler{
		w:      h.w,
		level:  h.level,
		mu:     h.mu,
		system: system,
		colors: h.colors,
		attrs:  merged,
	}
}

// WithGroup returns the handler unchanged; groups are not rendered
func (h *ConsoleHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *ConsoleHandler) levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiYellow
	case level >= slog.LevelInfo:
		return ansiCyan
	default:
		return ansiGray
	}
}

func appendAttr(b *strings.Builder, a slog.Attr) {
	b.WriteString(" ")
	b.WriteString(a.Key)
	b.WriteString("=")
	b.WriteString(fmt.Sprint(a.Value.Any()))
}

func levelString(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
