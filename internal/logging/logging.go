// Package logging provides the log/slog handler used by the lush CLI: one
// line per record, "LVL [mm-dd|hh:mm:ss.mmm] msg key=value ...", with
// colored level tags when writing to a terminal.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const timeFormat = "01-02|15:04:05.000"

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// IsTerminal reports whether w is a terminal, including Cygwin ptys.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Output returns a writer for f that renders color escapes portably, and
// whether color should be used at all. NO_COLOR disables color.
func Output(f *os.File) (io.Writer, bool) {
	if os.Getenv("NO_COLOR") != "" || !IsTerminal(f) {
		return colorable.NewNonColorable(f), false
	}
	return colorable.NewColorable(f), true
}

// TerminalHandler is a slog.Handler writing one line per record.
type TerminalHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	color  bool
	attrs  []slog.Attr
	groups []string
	now    func() time.Time
}

// NewTerminalHandler returns a handler writing records at or above level
// to w.
func NewTerminalHandler(w io.Writer, level slog.Leveler, useColor bool) *TerminalHandler {
	return &TerminalHandler{
		mu:    new(sync.Mutex),
		w:     w,
		level: level,
		color: useColor,
		now:   time.Now,
	}
}

func (h *TerminalHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(h.levelTag(r.Level))
	b.WriteString(" [")
	t := r.Time
	if t.IsZero() {
		t = h.now()
	}
	b.WriteString(t.Format(timeFormat))
	b.WriteString("] ")
	b.WriteString(r.Message)

	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	prefix := strings.Join(h.groups, ".")
	h2.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

func (h *TerminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string(nil), h.groups...), name)
	return &h2
}

func (h *TerminalHandler) levelTag(l slog.Level) string {
	var (
		tag  string
		attr color.Attribute
	)
	switch {
	case l >= slog.LevelError:
		tag, attr = "EROR", color.FgRed
	case l >= slog.LevelWarn:
		tag, attr = "WARN", color.FgYellow
	case l >= slog.LevelInfo:
		tag, attr = "INFO", color.FgGreen
	default:
		tag, attr = "DBUG", color.FgCyan
	}
	if !h.color {
		return tag
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(tag)
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, key, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		return v.Time().Format(timeFormat)
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
