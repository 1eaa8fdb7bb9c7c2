package app

import (
	"context"
	"fmt"

	"github.com/vk/gridplan/internal/ctxlog"
)

// Run executes the loaded plan. Device streams are torn down when the plan
// finishes, so a single App instance runs its plan once.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.OpsPort > 0 {
		a.startOpsServer(a.config.OpsPort)
	}

	defer a.streams.Close()

	if err := a.runner.Run(ctx, a.plan); err != nil {
		return fmt.Errorf("plan execution failed: %w", err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
