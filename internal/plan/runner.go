package plan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vk/gridplan/internal/ctxlog"
	"github.com/vk/gridplan/internal/network"
	"github.com/vk/gridplan/internal/operator"
)

// Runner owns the named networks instantiated so far and executes plans
// against a shared environment. It is safe for concurrent use.
type Runner struct {
	env      *network.Env
	networks *network.Registry
	softFail bool

	mu   sync.Mutex
	nets map[string]network.Network
}

// NewRunner creates a runner over the given environment. With softFail set,
// a panic inside a concurrent substep is reported as an error instead of
// being re-raised on the caller.
func NewRunner(env *network.Env, networks *network.Registry, softFail bool) *Runner {
	return &Runner{
		env:      env,
		networks: networks,
		softFail: softFail,
		nets:     make(map[string]network.Network),
	}
}

// CreateNetwork instantiates a network definition and registers it under its
// name. Redefining an existing name replaces the old network with a warning.
func (r *Runner) CreateNetwork(ctx context.Context, def *network.Definition) (network.Network, error) {
	net, err := network.Create(ctx, r.networks, def, r.env)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if _, exists := r.nets[def.Name]; exists {
		ctxlog.FromContext(ctx).Warn("Overwriting existing network.", "network", def.Name)
	}
	r.nets[def.Name] = net
	r.mu.Unlock()
	return net, nil
}

// Net returns the network registered under name, if any.
func (r *Runner) Net(name string) (network.Network, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	net, ok := r.nets[name]
	return net, ok
}

// RunNet runs a previously created network by name.
func (r *Runner) RunNet(ctx context.Context, name string) error {
	net, ok := r.Net(name)
	if !ok {
		return fmt.Errorf("network %q does not exist", name)
	}
	if err := net.Run(ctx); err != nil {
		r.env.Metrics.NetworkFinished(name, "failure")
		return fmt.Errorf("network %q: %w", name, err)
	}
	r.env.Metrics.NetworkFinished(name, "success")
	return nil
}

// RunNetOnce instantiates a network from its definition, runs it a single
// time, and discards it without registering the name.
func (r *Runner) RunNetOnce(ctx context.Context, def *network.Definition) error {
	net, err := network.Create(ctx, r.networks, def, r.env)
	if err != nil {
		return err
	}
	if err := net.Run(ctx); err != nil {
		r.env.Metrics.NetworkFinished(def.Name, "failure")
		return fmt.Errorf("network %q: %w", def.Name, err)
	}
	r.env.Metrics.NetworkFinished(def.Name, "success")
	return nil
}

// RunOperatorOnce instantiates a single operator against the runner's
// workspace and runs it synchronously.
func (r *Runner) RunOperatorOnce(ctx context.Context, def *operator.Def) error {
	node, err := operator.CreateNode(r.env.Operators, def, r.env.Workspace)
	if err != nil {
		return err
	}
	return node.Run(ctx)
}

// Run validates the plan, instantiates its networks, and executes its
// top-level steps in order. A plan with no steps succeeds without doing
// anything.
func (r *Runner) Run(ctx context.Context, def *Definition) error {
	return r.RunWithContinuation(ctx, def, nil)
}

// RunWithContinuation is Run with an additional external continuation test:
// whenever shouldStop returns true, every step winds down gracefully and the
// plan reports success.
func (r *Runner) RunWithContinuation(ctx context.Context, def *Definition, shouldStop func() bool) error {
	if err := def.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("plan", def.Name, "run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	logger.Info("🚀 Starting plan.",
		"networks", len(def.Networks), "steps", len(def.Steps))

	for _, nd := range def.Networks {
		if _, err := r.CreateNetwork(ctx, nd); err != nil {
			r.env.Metrics.PlanFinished("failure")
			return err
		}
	}

	for _, st := range def.Steps {
		logger.Info("▶️ Executing step.", "step", st.Name)
		start := time.Now()
		err := r.executeStep(ctx, st, shouldStop)
		elapsed := time.Since(start)
		r.env.Metrics.StepObserved(st.Name, elapsed)
		if err != nil {
			logger.Error("Step failed.", "step", st.Name, "duration", elapsed, "error", err)
			r.env.Metrics.PlanFinished("failure")
			return fmt.Errorf("step %q: %w", st.Name, err)
		}
		logger.Info("✅ Step finished.", "step", st.Name, "duration", elapsed)
	}

	r.env.Metrics.PlanFinished("success")
	logger.Info("🏁 Plan finished.")
	return nil
}
