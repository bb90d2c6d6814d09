// Package logging defines the structured logger the rest of the code
// depends on, keeping the concrete backend swappable.
package logging

import "context"

// Logger is a context-aware structured logger. The variadic args are
// alternating key/value pairs:
//
//	log.Info(ctx, "http server starting", "addr", addr)
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that carries the given pairs on every
	// record, used to tag per-component loggers.
	With(args ...any) Logger
}
