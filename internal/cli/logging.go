package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/chainguard-dev/clog"
)

// WithLogger returns ctx carrying a clog logger that writes text records to
// w at level, or at debug level when verbose is set. Logs never go to
// stdout, which carries the inventory JSON.
func WithLogger(ctx context.Context, w io.Writer, level slog.Level, verbose bool) context.Context {
	if verbose {
		level = slog.LevelDebug
	}

	logger := clog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return clog.WithLogger(ctx, logger)
}
