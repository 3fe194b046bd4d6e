package logger

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// multiHandler hands each record to every child handler that accepts its
// level. serve uses it to keep terminal output while teeing JSON to a file.
type multiHandler []slog.Handler

// Multi returns a logger that writes through the handlers of every non-nil
// logger in loggers.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	m := make(multiHandler, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			m = append(m, l.Handler())
		}
	}
	return slog.New(m)
}

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(m, func(h slog.Handler) bool {
		return h.Enabled(ctx, level)
	})
}

// Handle reaches every enabled child even when an earlier one fails.
func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	return m.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (m multiHandler) each(fn func(slog.Handler) slog.Handler) multiHandler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = fn(h)
	}
	return out
}
