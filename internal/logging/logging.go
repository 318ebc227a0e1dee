// Package logging sets up the slog handlers used by the commands: a console
// handler on stderr and, optionally, a size-rotated log directory.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/alchemy/rotoslog"
	"github.com/phsym/console-slog"
)

// TimeFormat is the timestamp layout of every handler.
const TimeFormat = "2006-01-02 15:04:05.000"

// Options configures New.
type Options struct {
	Level   slog.Leveler
	NoColor bool

	// Dir enables the rotating file handler when non-empty.
	Dir             string
	MaxFileSize     uint64
	MaxRotatedFiles uint64
	DateTimeLayout  string
}

// New builds a logger writing to w and, when opts.Dir is set, to rotated
// files in that directory.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	handlers := []slog.Handler{
		console.NewHandler(w, &console.HandlerOptions{
			NoColor:    opts.NoColor,
			Level:      opts.Level,
			TimeFormat: TimeFormat,
		}),
	}

	if opts.Dir != "" {
		builder := func(w io.Writer, _ *slog.HandlerOptions) slog.Handler {
			return console.NewHandler(w, &console.HandlerOptions{NoColor: true, Level: opts.Level, TimeFormat: TimeFormat})
		}
		var fileHandler slog.Handler
		fileHandler, err := rotoslog.NewHandler(
			rotoslog.LogHandlerBuilder(builder),
			rotoslog.LogDir(opts.Dir),
			rotoslog.MaxFileSize(opts.MaxFileSize),
			rotoslog.DateTimeLayout(opts.DateTimeLayout),
			rotoslog.MaxRotatedFiles(opts.MaxRotatedFiles),
		)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, fileHandler)
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0]), nil
	}
	return slog.New(NewMultiHandler(handlers...)), nil
}

var _ slog.Handler = (*MultiHandler)(nil)

// MultiHandler fans records out to several handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler returns a handler writing to every h.
func NewMultiHandler(h ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: h}
}

// Enabled implements slog.Handler.
func (m *MultiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler.
func (m *MultiHandler) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, rec.Level) {
			continue
		}
		if err := h.Handle(ctx, rec.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs implements slog.Handler.
func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	result := &MultiHandler{handlers: make([]slog.Handler, len(m.handlers))}
	for i, h := range m.handlers {
		result.handlers[i] = h.WithAttrs(attrs)
	}
	return result
}

// WithGroup implements slog.Handler.
func (m *MultiHandler) WithGroup(name string) slog.Handler {
	result := &MultiHandler{handlers: make([]slog.Handler, len(m.handlers))}
	for i, h := range m.handlers {
		result.handlers[i] = h.WithGroup(name)
	}
	return result
}
