package log

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI escapes used by the terminal handler.
const (
	colorReset   = "\033[0m"
	colorFaint   = "\033[2m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorMagenta = "\033[35m"
)

// terminalHandler renders records as single-line coloured output for
// interactive use:
//
//	15:04:05.000 INFO  document ingested collection=docs chunks=3
//
// The error attribute is highlighted in red so failures stand out in a
// stream of request logs. Attributes bound via WithAttrs are rendered
// once and cached as a prefix string; groups flatten into dotted keys.
type terminalHandler struct {
	out      io.Writer
	minLevel slog.Leveler
	bound    string
	group    string
	mu       *sync.Mutex
}

func newTerminalHandler(w io.Writer, opts *slog.HandlerOptions) *terminalHandler {
	minLevel := slog.Leveler(slog.LevelInfo)
	if opts != nil && opts.Level != nil {
		minLevel = opts.Level
	}
	return &terminalHandler{
		out:      w,
		minLevel: minLevel,
		mu:       &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel.Level()
}

// Handle writes one formatted line per record.
func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.Grow(256)

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	sb.WriteString(colorFaint)
	sb.WriteString(ts.Format("15:04:05.000"))
	sb.WriteString(colorReset)
	sb.WriteByte(' ')

	sb.WriteString(levelColor(r.Level))
	sb.WriteString(levelLabel(r.Level))
	sb.WriteString(colorReset)
	sb.WriteByte(' ')

	sb.WriteString(r.Message)
	sb.WriteString(h.bound)

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&sb, a, h.group)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

// WithAttrs renders attrs eagerly into the bound prefix, so repeated
// records pay no per-record formatting cost for them.
func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	sb.WriteString(h.bound)
	for _, a := range attrs {
		h.writeAttr(&sb, a, h.group)
	}

	next := *h
	next.bound = sb.String()
	return &next
}

// WithGroup qualifies subsequent attribute keys with a dotted prefix.
func (h *terminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.group + name + "."
	return &next
}

func (h *terminalHandler) writeAttr(sb *strings.Builder, a slog.Attr, group string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := group
		if a.Key != "" {
			inner = group + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.writeAttr(sb, ga, inner)
		}
		return
	}

	key := group + a.Key
	value := quoteIfNeeded(a.Value.String())

	sb.WriteByte(' ')
	if key == "error" {
		sb.WriteString(colorRed)
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(value)
		sb.WriteString(colorReset)
		return
	}
	sb.WriteString(colorFaint)
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(colorReset)
	sb.WriteString(value)
}

func levelLabel(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO "
	case level < slog.LevelError:
		return "WARN "
	default:
		return "ERROR"
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return colorMagenta
	case level < slog.LevelWarn:
		return colorGreen
	case level < slog.LevelError:
		return colorYellow
	default:
		return colorRed
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
