package network

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/gridplan/internal/ctxlog"
	"github.com/vk/gridplan/internal/device"
	"github.com/vk/gridplan/internal/graph"
	"github.com/vk/gridplan/internal/operator"
)

const defaultAsyncWorkers = 4

// asyncNet schedules chains of operators onto device streams. The
// dependency graph and chain partition are computed once at construction and
// reused across runs; per-run state (events, dependency counters) is reset
// at the start of every run.
type asyncNet struct {
	name    string
	env     *Env
	nodes   []*operator.Node
	g       *graph.Graph
	workers int

	// events holds one per-node event; only chain sinks ever record.
	events []*device.Event
	// recorded tracks which sink events have been recorded this run. A chain
	// must see every parent sink recorded before it waits on the events.
	recorded []atomic.Bool
}

func newAsyncNet(ctx context.Context, def *Definition, env *Env) (Network, error) {
	nodes, err := buildNodes(def, env)
	if err != nil {
		return nil, err
	}
	workers := def.Workers
	if workers <= 0 {
		workers = defaultAsyncWorkers
	}

	n := &asyncNet{
		name:     def.Name,
		env:      env,
		nodes:    nodes,
		g:        graph.Build(ctx, nodes),
		workers:  workers,
		events:   make([]*device.Event, len(nodes)),
		recorded: make([]atomic.Bool, len(nodes)),
	}
	for i, node := range nodes {
		n.events[i] = device.NewEvent(node.Affinity())
	}
	return n, nil
}

func (n *asyncNet) Name() string { return n.name }

// Run dispatches every chain, then, if this is the outermost asynchronous
// run, host-waits every still-outstanding event and synchronizes all streams
// so the network's effects are visible before returning. Nesting is scoped
// to the call tree: only a run launched from inside another run (through the
// context an operator received) skips the final synchronization, so
// concurrent top-level runs each sync on their own return.
func (n *asyncNet) Run(ctx context.Context) error {
	outermost := !device.InAsyncRun(ctx)
	ctx = device.EnterAsyncRun(ctx)
	err := n.runChains(ctx)

	if outermost {
		host := n.env.Streams.Host()
		for _, ev := range n.events {
			if ev.Outstanding() {
				ctxlog.FromContext(ctx).Debug("Synchronizing host on outstanding event.", "network", n.name)
				host.Wait(ev)
			}
		}
		if syncErr := n.env.Streams.SynchronizeAll(); syncErr != nil {
			n.env.Metrics.OperatorFailed(n.name)
			if err == nil {
				err = syncErr
			}
		}
	}
	return err
}

// runChains is the per-run scheduler: it resets events and counters, seeds
// the ready queue with root chains, and lets a bounded worker pool dispatch
// chains as their parents complete. A chain failure stops further dispatch
// but already-launched chains run to completion.
func (n *asyncNet) runChains(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	chains := n.g.Chains()
	if len(chains) == 0 {
		return nil
	}

	// Events are one-shot per run; waiting across runs without this reset
	// is a protocol violation.
	for i := range n.events {
		n.events[i].Reset()
		n.recorded[i].Store(false)
	}

	depCount := make([]atomic.Int32, len(chains))
	for c := range chains {
		depCount[c].Store(int32(len(n.g.ChainParents(c))))
	}

	ready := make(chan int, len(chains))
	var wg sync.WaitGroup
	wg.Add(len(chains))

	var abort atomic.Bool
	skipped := make([]sync.Once, len(chains))

	var mu sync.Mutex
	var firstErr error
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	var skipDependents func(c int)
	skipDependents = func(c int) {
		for _, d := range n.g.ChainChildren(c) {
			skipped[d].Do(func() {
				logger.Warn("Skipping chain due to upstream failure.",
					"network", n.name, "chain", d)
				wg.Done()
				skipDependents(d)
			})
		}
	}

	worker := func() {
		for c := range ready {
			if abort.Load() {
				skipped[c].Do(func() {
					wg.Done()
					skipDependents(c)
				})
				continue
			}
			if err := n.runChain(ctx, c); err != nil {
				logger.Error("Chain launch failed.",
					"network", n.name, "chain", c, "error", err)
				n.env.Metrics.OperatorFailed(n.name)
				setErr(err)
				abort.Store(true)
				skipDependents(c)
				wg.Done()
				continue
			}
			for _, d := range n.g.ChainChildren(c) {
				if depCount[d].Add(-1) == 0 {
					ready <- d
				}
			}
			wg.Done()
		}
	}

	roots := 0
	for c := range chains {
		if depCount[c].Load() == 0 {
			ready <- c
			roots++
		}
	}
	logger.Debug("Dispatching chains.",
		"network", n.name, "chains", len(chains), "roots", roots)

	workers := n.workers
	if workers > len(chains) {
		workers = len(chains)
	}
	for i := 0; i < workers; i++ {
		go worker()
	}

	wg.Wait()
	close(ready)

	mu.Lock()
	defer mu.Unlock()
	return firstErr
}

// runChain waits on the chain's parent sink events, launches every node of
// the chain in order on the chain's stream, and records the sink event.
// Launch failures do not stop the remainder of the chain: later nodes'
// outputs may still be needed for downstream bookkeeping, so launching is
// best-effort and the first failure is reported after the whole chain has
// been attempted.
func (n *asyncNet) runChain(ctx context.Context, c int) error {
	logger := ctxlog.FromContext(ctx)
	chain := n.g.Chains()[c]
	first := chain[0]
	stream := n.env.Streams.Stream(n.nodes[first].Affinity())

	parents := n.g.Parents(first)
	if len(parents) > 0 {
		anyRecorded := false
		for _, p := range parents {
			if n.recorded[p].Load() {
				anyRecorded = true
				break
			}
		}
		if !anyRecorded {
			panic(fmt.Sprintf("network %q: no parent of op %q has a recorded event; chain wiring is broken",
				n.name, n.nodes[first].Name()))
		}
	}
	for _, p := range parents {
		stream.Wait(n.events[p])
	}

	var firstErr error
	for _, idx := range chain {
		if err := n.nodes[idx].RunAsync(ctx, stream); err != nil {
			logger.Error("Operator launch failed.",
				"network", n.name, "op", n.nodes[idx].Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	sink := chain[len(chain)-1]
	stream.Record(n.events[sink])
	n.recorded[sink].Store(true)
	return firstErr
}
