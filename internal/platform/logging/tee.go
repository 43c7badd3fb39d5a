package logging

import (
	"context"
	"errors"
	"log/slog"
)

// tee duplicates every record to each of its sinks, such as the terminal
// handler and the rotated JSON file.
type tee []slog.Handler

// Tee returns a handler writing to all of sinks. Each sink keeps its own
// level.
func Tee(sinks ...slog.Handler) slog.Handler {
	return tee(sinks)
}

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range t {
		if s.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler signature
	errs := make([]error, 0, len(t))

	for _, s := range t {
		if s.Enabled(ctx, r.Level) {
			errs = append(errs, s.Handle(ctx, r.Clone()))
		}
	}

	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(tee, len(t))
	for i, s := range t {
		out[i] = s.WithAttrs(attrs)
	}

	return out
}

func (t tee) WithGroup(name string) slog.Handler {
	if name == "" {
		return t
	}

	out := make(tee, len(t))
	for i, s := range t {
		out[i] = s.WithGroup(name)
	}

	return out
}
