// Package logging defines the structured-logging interface used by the
// authentication core and its collaborators, plus a log/slog implementation.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Warn(ctx, "lockout expiration not persisted", "err", err)
type Logger interface {
	// Debug logs diagnostic detail (tick counts, store hits).
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a recoverable failure, e.g. a preference write that did not persist.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs a failure the caller has to act on.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}
