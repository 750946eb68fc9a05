package testutil

import "log/slog"

// DiscardLogger returns a slog.Logger that discards all output. Use it
// to silence components in tests; log.NewNop returns the same type.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
