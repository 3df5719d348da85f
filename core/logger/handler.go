package logger

import (
	"context"
	"io"
	"log/slog"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

// contextHandler decorates a stdlib slog handler with the correlation fields
// stored in the record context (rid, update, user, chat, handler).
type contextHandler struct {
	next   slog.Handler
	format logFormat
}

func newContextHandler(w io.Writer, format logFormat, level slog.Leveler) *contextHandler {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}
	var next slog.Handler
	if format == formatKV {
		next = slog.NewTextHandler(w, opts)
	} else {
		next = slog.NewJSONHandler(w, opts)
	}
	return &contextHandler{next: next, format: format}
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			return slog.String("ts", t.UTC().Format(timeFormatMillis))
		}
	case slog.MessageKey:
		if a.Value.String() == "" {
			return slog.Attr{}
		}
	case "took":
		if d, ok := a.Value.Any().(time.Duration); ok {
			return slog.Int64("took_ms", RoundMS(d).Milliseconds())
		}
	}
	return a
}

// Enabled reports whether the wrapped handler accepts the level.
func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle appends context fields and forwards the record.
func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid := RIDFrom(ctx); rid != "" {
		r.AddAttrs(slog.String("rid", CompactRID(rid)))
		if h.format == formatJSON {
			r.AddAttrs(slog.String("rid_full", rid))
		}
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		r.AddAttrs(slog.Int("update_id", id))
	}
	if id := UserIDFrom(ctx); id != 0 {
		r.AddAttrs(slog.Int64("user_id", id))
	}
	if id := ChatIDFrom(ctx); id != 0 {
		r.AddAttrs(slog.Int64("chat_id", id))
	}
	if name := HandlerFrom(ctx); name != "" {
		r.AddAttrs(slog.String("handler", name))
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs returns a handler carrying the attributes.
func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), format: h.format}
}

// WithGroup returns a handler nesting subsequent attributes under name.
func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), format: h.format}
}
