package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridplan/internal/device"
	"github.com/vk/gridplan/internal/operator"
	"github.com/vk/gridplan/internal/workspace"
)

type noop struct{}

func (noop) Run(ctx context.Context) error { return nil }

// buildNodes constructs nodes from (inputs, outputs, device) triples in
// declaration order, pre-creating any blob read before it is written so the
// list models external graph inputs.
func buildNodes(t *testing.T, specs []nodeSpec) []*operator.Node {
	t.Helper()
	reg := operator.NewRegistry()
	reg.Register("noop", &operator.Entry{
		Factory: func(def *operator.Def, ws *workspace.Workspace) (operator.Operator, error) {
			return noop{}, nil
		},
	})
	ws := workspace.New()

	written := make(map[string]bool)
	for _, s := range specs {
		for _, in := range s.inputs {
			if !written[in] {
				ws.CreateBlob(in)
			}
		}
		for _, out := range s.outputs {
			written[out] = true
		}
	}

	nodes := make([]*operator.Node, 0, len(specs))
	for _, s := range specs {
		aff, err := device.ParseAffinity(s.device)
		require.NoError(t, err)
		n, err := operator.CreateNode(reg, &operator.Def{
			Name:    s.name,
			Type:    "noop",
			Inputs:  s.inputs,
			Outputs: s.outputs,
			Device:  aff,
		}, ws)
		require.NoError(t, err)
		nodes = append(nodes, n)
	}
	return nodes
}

type nodeSpec struct {
	name    string
	inputs  []string
	outputs []string
	device  string
}

func TestLinearProducerConsumer(t *testing.T) {
	g := Build(context.Background(), buildNodes(t, []nodeSpec{
		{name: "W1", outputs: []string{"a"}},
		{name: "R1", inputs: []string{"a"}, outputs: []string{"b"}},
	}))

	assert.Empty(t, g.Parents(0))
	assert.Equal(t, []int{1}, g.Children(0))
	assert.Equal(t, []int{0}, g.Parents(1))
	assert.Empty(t, g.Children(1))

	// One two-node chain: no cross-chain waits needed.
	assert.Equal(t, [][]int{{0, 1}}, g.Chains())
}

func TestExternalInputHasNoParent(t *testing.T) {
	g := Build(context.Background(), buildNodes(t, []nodeSpec{
		{name: "R", inputs: []string{"external"}, outputs: []string{"b"}},
	}))
	assert.Empty(t, g.Parents(0))
}

func TestInplaceSelfLoopExcluded(t *testing.T) {
	g := Build(context.Background(), buildNodes(t, []nodeSpec{
		{name: "init", outputs: []string{"x"}},
		{name: "inplace", inputs: []string{"x"}, outputs: []string{"x"}},
		{name: "again", inputs: []string{"x"}, outputs: []string{"x"}},
	}))

	// Each in-place op depends on the previous writer, never on itself.
	assert.Equal(t, []int{0}, g.Parents(1))
	assert.Equal(t, []int{1}, g.Parents(2))
}

// Two writes of the same name with no read between them produce no edge.
// This is the engine's documented gap, preserved intentionally: name
// analysis alone does not order write-write hazards, and callers must not
// rely on any ordering between such operators.
func TestWriteWriteHazardIsNotOrdered(t *testing.T) {
	g := Build(context.Background(), buildNodes(t, []nodeSpec{
		{name: "W1", outputs: []string{"a"}},
		{name: "W2", outputs: []string{"a"}},
		{name: "R", inputs: []string{"a"}, outputs: []string{"b"}},
	}))

	assert.Empty(t, g.Parents(1), "W2 must not depend on W1")
	// The reader depends only on the most recent earlier writer.
	assert.Equal(t, []int{1}, g.Parents(2))
}

func TestDiamondChains(t *testing.T) {
	g := Build(context.Background(), buildNodes(t, []nodeSpec{
		{name: "A", outputs: []string{"x"}},
		{name: "B", inputs: []string{"x"}, outputs: []string{"y"}},
		{name: "C", inputs: []string{"x"}, outputs: []string{"z"}},
		{name: "D", inputs: []string{"y", "z"}, outputs: []string{"w"}},
	}))

	// A has two children, D has two parents: four single-node chains.
	assert.Equal(t, [][]int{{0}, {1}, {2}, {3}}, g.Chains())
	assert.Equal(t, []int{0}, g.ChainParents(1))
	assert.Equal(t, []int{0}, g.ChainParents(2))
	assert.Equal(t, []int{1, 2}, g.ChainParents(3))
	assert.Equal(t, []int{1, 2}, g.ChainChildren(0))
}

func TestDeviceBoundaryStartsNewChain(t *testing.T) {
	g := Build(context.Background(), buildNodes(t, []nodeSpec{
		{name: "A", outputs: []string{"x"}, device: "accel:0"},
		{name: "B", inputs: []string{"x"}, outputs: []string{"y"}, device: "accel:0"},
		{name: "C", inputs: []string{"y"}, outputs: []string{"z"}, device: "accel:1"},
	}))

	assert.Equal(t, [][]int{{0, 1}, {2}}, g.Chains())
	assert.Equal(t, []int{0}, g.ChainParents(1))
}

func TestEveryNodeInExactlyOneChain(t *testing.T) {
	g := Build(context.Background(), buildNodes(t, []nodeSpec{
		{name: "A", outputs: []string{"a"}},
		{name: "B", inputs: []string{"a"}, outputs: []string{"b"}},
		{name: "C", inputs: []string{"a"}, outputs: []string{"c"}},
		{name: "D", inputs: []string{"b"}, outputs: []string{"d"}},
		{name: "E", inputs: []string{"c", "d"}, outputs: []string{"e"}},
	}))

	seen := make(map[int]int)
	for _, chain := range g.Chains() {
		require.NotEmpty(t, chain)
		for _, idx := range chain {
			seen[idx]++
		}
	}
	for i := 0; i < g.Len(); i++ {
		assert.Equal(t, 1, seen[i], "node %d", i)
		assert.Contains(t, g.Chains()[g.ChainOf(i)], i)
	}
}

func TestPartitionIsDeterministic(t *testing.T) {
	specs := []nodeSpec{
		{name: "A", outputs: []string{"a"}},
		{name: "B", inputs: []string{"a"}, outputs: []string{"b"}},
		{name: "C", inputs: []string{"a"}, outputs: []string{"c"}},
		{name: "D", inputs: []string{"b", "c"}, outputs: []string{"d"}},
		{name: "E", inputs: []string{"d"}, outputs: []string{"e"}},
	}

	first := Build(context.Background(), buildNodes(t, specs))
	for i := 0; i < 10; i++ {
		again := Build(context.Background(), buildNodes(t, specs))
		assert.Equal(t, first.Chains(), again.Chains())
		for n := 0; n < first.Len(); n++ {
			assert.Equal(t, first.Parents(n), again.Parents(n))
			assert.Equal(t, first.Children(n), again.Children(n))
		}
	}
}
