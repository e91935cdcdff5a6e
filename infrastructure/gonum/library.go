package gonum

import (
	"log/slog"

	"github.com/reglet-dev/numbridge/domain/ports"
)

// Compile-time interface check.
var _ ports.Library = (*Library)(nil)

// Library is the gonum-backed numerical library.
type Library struct {
	logger *slog.Logger
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the logger used for solver diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// New creates a Library.
func New(opts ...Option) *Library {
	l := &Library{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}
