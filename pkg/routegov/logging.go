package routegov

import (
	"context"
	"log/slog"
)

// loggerHandler is a slog.Handler that forwards records to a Logger as
// flat key/value pairs. Groups become dotted key prefixes.
type loggerHandler struct {
	logger Logger
	attrs  []any
	prefix string
}

func newLoggerHandler(logger Logger) loggerHandler {
	return loggerHandler{logger: logger}
}

// The target Logger decides what to drop.
func (h loggerHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

//nolint:gocritic // slog.Handler interface requires passing Record by value
func (h loggerHandler) Handle(_ context.Context, r slog.Record) error {
	args := make([]any, 0, len(h.attrs)+2*r.NumAttrs())
	args = append(args, h.attrs...)
	r.Attrs(func(attr slog.Attr) bool {
		args = append(args, h.prefix+attr.Key, attr.Value.Resolve().Any())
		return true
	})

	switch {
	case r.Level >= slog.LevelError:
		h.logger.Error(r.Message, args...)
	case r.Level >= slog.LevelWarn:
		h.logger.Warn(r.Message, args...)
	case r.Level >= slog.LevelInfo:
		h.logger.Info(r.Message, args...)
	default:
		h.logger.Debug(r.Message, args...)
	}
	return nil
}

func (h loggerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]any, len(h.attrs), len(h.attrs)+2*len(attrs))
	copy(next, h.attrs)
	for _, attr := range attrs {
		next = append(next, h.prefix+attr.Key, attr.Value.Resolve().Any())
	}
	return loggerHandler{logger: h.logger, attrs: next, prefix: h.prefix}
}

func (h loggerHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return loggerHandler{logger: h.logger, attrs: h.attrs, prefix: h.prefix + name + "."}
}
