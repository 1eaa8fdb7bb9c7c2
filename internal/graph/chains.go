package graph

// partitionChains groups nodes into maximal runs that can be dispatched as
// one pipelined unit. A node extends the current chain only when it has
// exactly one parent, that parent is the chain's tail, the parent has
// exactly one child, and both share a stream. Anything else starts a new
// chain, so a chain never needs an intra-chain wait once launched in
// declaration order.
func (g *Graph) partitionChains() {
	g.chainOf = make([]int, len(g.nodes))

	for i := range g.nodes {
		extend := false
		if len(g.chains) > 0 && len(g.parents[i]) == 1 {
			p := g.parents[i][0]
			cur := g.chains[len(g.chains)-1]
			tail := cur[len(cur)-1]
			extend = p == tail &&
				len(g.children[p]) == 1 &&
				g.nodes[i].Affinity() == g.nodes[p].Affinity()
		}

		if extend {
			c := len(g.chains) - 1
			g.chains[c] = append(g.chains[c], i)
			g.chainOf[i] = c
		} else {
			g.chains = append(g.chains, []int{i})
			g.chainOf[i] = len(g.chains) - 1
		}
	}
}

// linkChains lifts node-level edges to chain level: chain d depends on chain
// c when any node in d has a parent in c. Parent lists are deduplicated and
// sorted so scheduling is deterministic.
func (g *Graph) linkChains() {
	g.chainDep = make([][]int, len(g.chains))
	g.chainKids = make([][]int, len(g.chains))

	depSet := make([]map[int]struct{}, len(g.chains))
	for c := range g.chains {
		depSet[c] = make(map[int]struct{})
	}
	for i := range g.nodes {
		for _, p := range g.parents[i] {
			pc := g.chainOf[p]
			ic := g.chainOf[i]
			if pc != ic {
				depSet[ic][pc] = struct{}{}
			}
		}
	}

	kidSet := make([]map[int]struct{}, len(g.chains))
	for c := range g.chains {
		kidSet[c] = make(map[int]struct{})
	}
	for c, deps := range depSet {
		g.chainDep[c] = sortedKeys(deps)
		for p := range deps {
			kidSet[p][c] = struct{}{}
		}
	}
	for c, kids := range kidSet {
		g.chainKids[c] = sortedKeys(kids)
	}
}
