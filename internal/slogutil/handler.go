// Package slogutil provides the slog handler and helpers used for build logging.
package slogutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Handler formats records as
//
//	TIMESTAMP [level] [prefix] Message | key=value key=value
//
// where prefix names the build target a worker logs for. Values with
// spaces or quotes are quoted.
type Handler struct {
	w      io.Writer
	level  slog.Leveler
	prefix string
	// preformatted holds " key=value" pairs added with WithAttrs.
	preformatted []byte
	group        string
	mu           *sync.Mutex
}

// NewHandler creates a new log handler.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) *Handler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &Handler{w: w, level: level, mu: &sync.Mutex{}}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = r.Time.UTC().AppendFormat(buf, time.RFC3339)
	buf = append(buf, " ["...)
	buf = append(buf, levelString(r.Level)...)
	buf = append(buf, "] "...)
	if h.prefix != "" {
		buf = append(buf, '[')
		buf = append(buf, h.prefix...)
		buf = append(buf, "] "...)
	}
	buf = append(buf, r.Message...)

	attrs := h.preformatted
	if r.NumAttrs() > 0 {
		attrs = append([]byte(nil), h.preformatted...)
		r.Attrs(func(a slog.Attr) bool {
			attrs = appendAttr(attrs, h.group, a)
			return true
		})
	}
	if len(attrs) > 0 {
		buf = append(buf, " |"...)
		buf = append(buf, attrs...)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	c.preformatted = append([]byte(nil), h.preformatted...)
	for _, a := range attrs {
		c.preformatted = appendAttr(c.preformatted, h.group, a)
	}
	return c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.group = h.group + name + "."
	return c
}

// WithPrefix returns a handler that tags every record with prefix.
func (h *Handler) WithPrefix(prefix string) *Handler {
	c := h.clone()
	c.prefix = prefix
	return c
}

func (h *Handler) clone() *Handler {
	c := *h
	return &c
}

// appendAttr appends " key=value", flattening groups into dotted keys.
func appendAttr(buf []byte, group string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			group += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			buf = appendAttr(buf, group, ga)
		}
		return buf
	}
	if a.Key == "" {
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, group...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return append(buf, formatValue(a.Value)...)
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		s = v.Duration().String()
	default:
		s = fmt.Sprint(v.Any())
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
