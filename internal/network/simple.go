package network

import (
	"context"

	"github.com/vk/gridplan/internal/ctxlog"
	"github.com/vk/gridplan/internal/operator"
)

// simpleNet runs its operators one after another on the calling goroutine,
// in declaration order, stopping at the first failure.
type simpleNet struct {
	name  string
	env   *Env
	nodes []*operator.Node
}

func newSimpleNet(ctx context.Context, def *Definition, env *Env) (Network, error) {
	nodes, err := buildNodes(def, env)
	if err != nil {
		return nil, err
	}
	return &simpleNet{name: def.Name, env: env, nodes: nodes}, nil
}

func (n *simpleNet) Name() string { return n.name }

func (n *simpleNet) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	for _, node := range n.nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("Running operator.", "network", n.name, "op", node.Name())
		if err := node.Run(ctx); err != nil {
			logger.Error("Operator failed.", "network", n.name, "op", node.Name(), "error", err)
			n.env.Metrics.OperatorFailed(n.name)
			return err
		}
	}
	return nil
}
