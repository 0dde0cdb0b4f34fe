package app

import (
	"context"
	"log/slog"
)

// Stop releases resources opened by bootstrap. It is safe to call when
// bootstrap never ran.
func (a *App) Stop(ctx context.Context) {
	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
	a.closers = nil
}
