package network

import (
	"context"
	"fmt"

	"github.com/vk/gridplan/internal/device"
	"github.com/vk/gridplan/internal/metrics"
	"github.com/vk/gridplan/internal/operator"
	"github.com/vk/gridplan/internal/registry"
	"github.com/vk/gridplan/internal/workspace"
)

// Network is an instantiated group of operators. Run executes every
// operator once, honoring declared dependencies, and returns only after the
// network's effects are visible to the host.
type Network interface {
	Name() string
	Run(ctx context.Context) error
}

// Definition declares a network: its execution type plus the ordered
// operator declarations it instantiates.
type Definition struct {
	Name string
	// Type selects the registered implementation; empty means "simple".
	Type string
	// Workers bounds the async scheduler's chain-dispatch pool.
	Workers int
	Ops     []*operator.Def
}

// Env carries the collaborators a network needs: the blob scope, the stream
// provider shared by the whole plan, the operator types, and optional
// instrumentation.
type Env struct {
	Workspace *workspace.Workspace
	Streams   *device.Provider
	Operators *operator.Registry
	Metrics   *metrics.Collector
}

// Factory constructs a network implementation from a definition.
type Factory func(ctx context.Context, def *Definition, env *Env) (Network, error)

// Registry maps network type names to factories.
type Registry = registry.Registry[Factory]

// NewRegistry returns a registry with the built-in network types.
func NewRegistry() *Registry {
	r := registry.New[Factory]("network type")
	r.Register("simple", newSimpleNet)
	r.Register("async", newAsyncNet)
	return r
}

// Create instantiates a network from its definition.
func Create(ctx context.Context, reg *Registry, def *Definition, env *Env) (Network, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("network definition must have a name")
	}
	netType := def.Type
	if netType == "" {
		netType = "simple"
	}
	factory, ok := reg.Get(netType)
	if !ok {
		return nil, fmt.Errorf("network %q: unknown network type %q", def.Name, netType)
	}
	net, err := factory(ctx, def, env)
	if err != nil {
		return nil, fmt.Errorf("network %q: %w", def.Name, err)
	}
	return net, nil
}

// buildNodes instantiates the definition's operators in declaration order.
func buildNodes(def *Definition, env *Env) ([]*operator.Node, error) {
	nodes := make([]*operator.Node, 0, len(def.Ops))
	for _, opDef := range def.Ops {
		node, err := operator.CreateNode(env.Operators, opDef, env.Workspace)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
