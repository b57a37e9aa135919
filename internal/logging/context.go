package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// WithContext attaches the logger to the context so adapters constructed
// deeper in the call tree can pick it up.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext returns the logger attached to the context, or a disabled
// logger when none is.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
