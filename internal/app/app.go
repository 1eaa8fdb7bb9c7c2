package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/gridplan/internal/ctxlog"
	"github.com/vk/gridplan/internal/device"
	"github.com/vk/gridplan/internal/hclplan"
	"github.com/vk/gridplan/internal/metrics"
	"github.com/vk/gridplan/internal/network"
	"github.com/vk/gridplan/internal/operator"
	"github.com/vk/gridplan/internal/ops"
	"github.com/vk/gridplan/internal/plan"
	"github.com/vk/gridplan/internal/workspace"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	plan      *plan.Definition
	workspace *workspace.Workspace
	streams   *device.Provider
	metrics   *metrics.Collector
	runner    *plan.Runner
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, workspace, and
// stream provider. Extra operator types can be registered alongside the
// built-ins. A plan that fails to load is a fatal startup error and panics.
func NewApp(ctx context.Context, outW io.Writer, appConfig *Config, extraOps ...func(*operator.Registry)) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	planDef, err := hclplan.Load(ctx, appConfig.PlanPath)
	if err != nil {
		panic(fmt.Errorf("failed to load plan: %w", err))
	}
	logger.Debug("Plan loaded.", "plan", planDef.Name)

	opRegistry := operator.NewRegistry()
	ops.Register(opRegistry)
	for _, register := range extraOps {
		register(opRegistry)
	}
	logger.Debug("Operator types registered.", "count", len(opRegistry.Keys()))

	collector := metrics.New()
	ws := workspace.New()
	streams := device.NewProvider()
	env := &network.Env{
		Workspace: ws,
		Streams:   streams,
		Operators: opRegistry,
		Metrics:   collector,
	}

	return &App{
		outW:      outW,
		logger:    logger,
		config:    appConfig,
		plan:      planDef,
		workspace: ws,
		streams:   streams,
		metrics:   collector,
		runner:    plan.NewRunner(env, network.NewRegistry(), appConfig.SoftFail),
	}
}

// Runner returns the application's plan runner. This is primarily for testing.
func (a *App) Runner() *plan.Runner {
	return a.runner
}

// Workspace returns the application's root workspace. This is primarily for
// testing.
func (a *App) Workspace() *workspace.Workspace {
	return a.workspace
}

// Plan returns the loaded plan definition.
func (a *App) Plan() *plan.Definition {
	return a.plan
}
