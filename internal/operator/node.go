package operator

import (
	"context"
	"fmt"

	"github.com/vk/gridplan/internal/device"
)

// Node wraps one constructed operator together with its declaration. Nodes
// are immutable; all mutable execution state lives in the scheduler.
type Node struct {
	def *Def
	op  Operator
}

// Name returns the declared op name.
func (n *Node) Name() string { return n.def.Name }

// Type returns the registered operator type.
func (n *Node) Type() string { return n.def.Type }

// Inputs returns the blob names the node reads.
func (n *Node) Inputs() []string { return n.def.Inputs }

// Outputs returns the blob names the node writes.
func (n *Node) Outputs() []string { return n.def.Outputs }

// Affinity returns the stream the node's work is dispatched to.
func (n *Node) Affinity() device.Affinity { return n.def.Device }

// Run executes the operator synchronously.
func (n *Node) Run(ctx context.Context) error {
	if err := n.op.Run(ctx); err != nil {
		return fmt.Errorf("op %q (%s): %w", n.def.Name, n.def.Type, err)
	}
	return nil
}

// RunAsync launches the operator on the given stream and returns after the
// launch, not after completion. For a host-affine node the launch is the
// execution, so the returned error is the operator's real result; for an
// accelerator node only launch failures are reported here and execution
// errors surface when the stream is synchronized.
func (n *Node) RunAsync(ctx context.Context, s device.Stream) error {
	if n.def.Device.IsHost() {
		return n.Run(ctx)
	}
	s.Enqueue(n.def.Name, func() error { return n.op.Run(ctx) })
	return nil
}
