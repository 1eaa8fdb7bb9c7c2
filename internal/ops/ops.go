// Package ops provides the built-in operator types: small data-movement and
// control primitives that plans compose into networks. Domain-specific
// operators register alongside them through the same registry.
package ops

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vk/gridplan/internal/ctxlog"
	"github.com/vk/gridplan/internal/operator"
	"github.com/vk/gridplan/internal/workspace"
)

// Register installs the built-in operator types into the registry.
func Register(r *operator.Registry) {
	r.Register("fill", &operator.Entry{
		Factory: newFill,
		Schema: &operator.Schema{
			MinOutputs: 1, MaxOutputs: operator.Unbounded,
		},
	})
	r.Register("copy", &operator.Entry{
		Factory: newCopy,
		Schema: &operator.Schema{
			MinInputs: 1, MaxInputs: 1,
			MinOutputs: 1, MaxOutputs: 1,
			AllowInplace: [][2]int{{0, 0}},
		},
	})
	r.Register("log", &operator.Entry{
		Factory: newLog,
		Schema: &operator.Schema{
			MaxInputs: operator.Unbounded,
		},
	})
	r.Register("sleep", &operator.Entry{
		Factory: newSleep,
		Schema:  &operator.Schema{},
	})
	r.Register("stop_after", &operator.Entry{
		Factory: newStopAfter,
		Schema: &operator.Schema{
			MinOutputs: 1, MaxOutputs: 1,
		},
	})
	// fail may declare outputs so tests can wire dependents behind it.
	r.Register("fail", &operator.Entry{
		Factory: newFail,
		Schema: &operator.Schema{
			MaxOutputs: operator.Unbounded,
		},
	})
}

// fill writes a literal argument value into every output blob.
type fillOp struct {
	value   any
	outputs []*workspace.Blob
}

func newFill(def *operator.Def, ws *workspace.Workspace) (operator.Operator, error) {
	raw, ok := def.Args["value"]
	if !ok {
		return nil, errors.New("fill requires a \"value\" argument")
	}
	value, err := ctyToGo(raw)
	if err != nil {
		return nil, fmt.Errorf("argument %q: %w", "value", err)
	}
	op := &fillOp{value: value}
	for _, out := range def.Outputs {
		op.outputs = append(op.outputs, ws.GetBlob(out))
	}
	return op, nil
}

func (o *fillOp) Run(context.Context) error {
	for _, out := range o.outputs {
		out.Set(o.value)
	}
	return nil
}

// copy moves the input blob's current value into the output blob.
type copyOp struct {
	name string
	in   *workspace.Blob
	out  *workspace.Blob
}

func newCopy(def *operator.Def, ws *workspace.Workspace) (operator.Operator, error) {
	return &copyOp{
		name: def.Inputs[0],
		in:   ws.GetBlob(def.Inputs[0]),
		out:  ws.GetBlob(def.Outputs[0]),
	}, nil
}

func (o *copyOp) Run(context.Context) error {
	v, ok := o.in.Get()
	if !ok {
		return fmt.Errorf("input blob %q has no value", o.name)
	}
	o.out.Set(v)
	return nil
}

// log writes the current values of its input blobs to the logger. A
// "message" argument is included verbatim.
type logOp struct {
	message string
	inputs  []string
	blobs   []*workspace.Blob
}

func newLog(def *operator.Def, ws *workspace.Workspace) (operator.Operator, error) {
	message, ok, err := stringArg(def.Args, "message")
	if err != nil {
		return nil, err
	}
	if !ok {
		message = "Blob values."
	}
	op := &logOp{message: message, inputs: def.Inputs}
	for _, in := range def.Inputs {
		op.blobs = append(op.blobs, ws.GetBlob(in))
	}
	return op, nil
}

func (o *logOp) Run(ctx context.Context) error {
	attrs := make([]any, 0, 2*len(o.blobs))
	for i, blob := range o.blobs {
		v, _ := blob.Get()
		attrs = append(attrs, o.inputs[i], v)
	}
	ctxlog.FromContext(ctx).Info(o.message, attrs...)
	return nil
}

// sleep blocks for the configured duration or until the context ends.
type sleepOp struct {
	d time.Duration
}

func newSleep(def *operator.Def, _ *workspace.Workspace) (operator.Operator, error) {
	d, ok, err := durationArg(def.Args, "duration")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("sleep requires a \"duration\" argument")
	}
	return &sleepOp{d: d}, nil
}

func (o *sleepOp) Run(ctx context.Context) error {
	select {
	case <-time.After(o.d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop_after writes false to its output until it has run the configured
// number of times, then writes true. Plans point a step's stop blob at the
// output to bound otherwise unbounded loops.
type stopAfterOp struct {
	runs  int64
	count atomic.Int64
	out   *workspace.Blob
}

func newStopAfter(def *operator.Def, ws *workspace.Workspace) (operator.Operator, error) {
	runs, ok, err := intArg(def.Args, "runs")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("stop_after requires a \"runs\" argument")
	}
	if runs < 1 {
		return nil, fmt.Errorf("argument %q must be at least 1, got %d", "runs", runs)
	}
	return &stopAfterOp{runs: runs, out: ws.GetBlob(def.Outputs[0])}, nil
}

func (o *stopAfterOp) Run(context.Context) error {
	o.out.Set(o.count.Add(1) >= o.runs)
	return nil
}

// fail always returns an error. Useful for exercising failure paths in
// plans and tests.
type failOp struct {
	message string
}

func newFail(def *operator.Def, _ *workspace.Workspace) (operator.Operator, error) {
	message, ok, err := stringArg(def.Args, "message")
	if err != nil {
		return nil, err
	}
	if !ok {
		message = "operator failed"
	}
	return &failOp{message: message}, nil
}

func (o *failOp) Run(context.Context) error {
	return errors.New(o.message)
}
