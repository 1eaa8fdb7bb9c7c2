package graph

import (
	"context"
	"sort"

	"github.com/vk/gridplan/internal/ctxlog"
	"github.com/vk/gridplan/internal/operator"
)

// Graph holds, for an ordered operator list, each node's parent and child
// indices plus the chain partition. It is immutable after Build and safe for
// concurrent readers, so an async network computes it once and reuses it
// across runs.
type Graph struct {
	nodes    []*operator.Node
	parents  [][]int
	children [][]int

	chains    [][]int
	chainOf   []int
	chainDep  [][]int
	chainKids [][]int
}

// Build derives the dependency graph for nodes. Edges always point from an
// earlier index to a later one, so the result is acyclic by construction.
func Build(ctx context.Context, nodes []*operator.Node) *Graph {
	logger := ctxlog.FromContext(ctx)

	g := &Graph{
		nodes:    nodes,
		parents:  make([][]int, len(nodes)),
		children: make([][]int, len(nodes)),
	}

	// creator tracks, per blob name, the most recent earlier writer. A write
	// with no read in between only moves the creator forward; it adds no
	// edge (write-write is not ordered by name analysis).
	creator := make(map[string]int)
	parentSet := make([]map[int]struct{}, len(nodes))
	for i := range nodes {
		parentSet[i] = make(map[int]struct{})
	}

	for i, n := range nodes {
		for _, in := range n.Inputs() {
			// A node is never its own dependency: inputs are resolved before
			// this node's outputs update the creator map, so an in-place op
			// sees the previous writer, not itself.
			if p, ok := creator[in]; ok && p != i {
				parentSet[i][p] = struct{}{}
			}
		}
		for _, out := range n.Outputs() {
			creator[out] = i
		}
	}

	childSet := make([]map[int]struct{}, len(nodes))
	for i := range nodes {
		childSet[i] = make(map[int]struct{})
	}
	for i, ps := range parentSet {
		g.parents[i] = sortedKeys(ps)
		for p := range ps {
			childSet[p][i] = struct{}{}
		}
	}
	for i, cs := range childSet {
		g.children[i] = sortedKeys(cs)
	}

	g.partitionChains()
	g.linkChains()

	logger.Debug("Dependency graph built.",
		"nodes", len(nodes), "chains", len(g.chains))
	return g
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node at index i.
func (g *Graph) Node(i int) *operator.Node { return g.nodes[i] }

// Parents returns the indices of nodes whose outputs node i reads.
func (g *Graph) Parents(i int) []int { return g.parents[i] }

// Children returns the indices of nodes that read node i's outputs.
func (g *Graph) Children(i int) []int { return g.children[i] }

// Chains returns the chain partition: every node appears in exactly one
// chain and chains preserve the original order.
func (g *Graph) Chains() [][]int { return g.chains }

// ChainOf returns the index of the chain containing node i.
func (g *Graph) ChainOf(i int) int { return g.chainOf[i] }

// ChainParents returns, for chain c, the deduplicated indices of chains that
// must complete before c's first node may start.
func (g *Graph) ChainParents(c int) []int { return g.chainDep[c] }

// ChainChildren returns the chains that depend on chain c.
func (g *Graph) ChainChildren(c int) []int { return g.chainKids[c] }

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
