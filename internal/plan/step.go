package plan

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/gridplan/internal/ctxlog"
)

// executeStep runs one step to completion. The stop callback is the
// externally-imposed continuation test inherited from the caller (plan-level
// cancellation or a failed concurrent sibling); a true return ends the step
// gracefully.
func (r *Runner) executeStep(ctx context.Context, step *StepDef, stop func() bool) error {
	logger := ctxlog.FromContext(ctx)

	if step.ReportNet != "" {
		rep := r.startReporter(ctx, step)
		defer rep.stop()
	}

	for iter := int64(0); ; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if stop != nil && stop() {
			logger.Debug("Step stopped externally.", "step", step.Name, "iteration", iter)
			return nil
		}
		cont, err := r.shouldContinue(step, iter)
		if err != nil {
			return fmt.Errorf("step %q: %w", step.Name, err)
		}
		if !cont {
			return nil
		}
		logger.Debug("Step iteration.", "step", step.Name, "iteration", iter)

		if len(step.Substeps) > 0 {
			if step.ConcurrentSubsteps {
				if err := r.runSubstepsConcurrently(ctx, step, stop); err != nil {
					return err
				}
			} else {
				for _, sub := range step.Substeps {
					if err := r.executeStep(ctx, sub, stop); err != nil {
						return err
					}
					if stopped, err := r.stopRequested(step); err != nil || stopped {
						return err
					}
				}
			}
		} else {
			for _, name := range step.Networks {
				if err := r.RunNet(ctx, name); err != nil {
					return err
				}
				if stopped, err := r.stopRequested(step); err != nil || stopped {
					return err
				}
			}
		}
	}
}

// runSubstepsConcurrently runs every substep on its own goroutine. The first
// failure flips a shared flag that the siblings see through their inherited
// continuation test, so they stop iterating but finish the work they have
// already started. A panic in a substep is re-raised on the caller after all
// siblings have joined, unless the runner is in soft-fail mode.
func (r *Runner) runSubstepsConcurrently(ctx context.Context, step *StepDef, stop func() bool) error {
	logger := ctxlog.FromContext(ctx)

	var (
		wg         sync.WaitGroup
		gotFailure atomic.Bool
		mu         sync.Mutex
		firstErr   error
		firstPanic any
	)
	childStop := func() bool {
		if gotFailure.Load() {
			return true
		}
		return stop != nil && stop()
	}

	for _, sub := range step.Substeps {
		wg.Add(1)
		go func(sub *StepDef) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					gotFailure.Store(true)
					mu.Lock()
					if firstPanic == nil {
						firstPanic = p
					}
					mu.Unlock()
					logger.Error("Substep panicked.",
						"step", step.Name, "substep", sub.Name, "panic", p)
				}
			}()
			if err := r.executeStep(ctx, sub, childStop); err != nil {
				gotFailure.Store(true)
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("substep %q: %w", sub.Name, err)
				}
				mu.Unlock()
				logger.Error("Substep failed.",
					"step", step.Name, "substep", sub.Name, "error", err)
			}
		}(sub)
	}
	wg.Wait()

	if firstPanic != nil {
		if !r.softFail {
			panic(firstPanic)
		}
		return fmt.Errorf("step %q: substep panicked: %v", step.Name, firstPanic)
	}
	if gotFailure.Load() {
		return firstErr
	}
	return nil
}

// shouldContinue is the step's own continuation test for the given
// zero-based iteration.
func (r *Runner) shouldContinue(step *StepDef, iter int64) (bool, error) {
	if step.ShouldStopBlob != "" {
		stopped, err := r.readStopBlob(step.ShouldStopBlob)
		if err != nil || stopped {
			return false, err
		}
		if step.OnlyOnce {
			return iter < 1, nil
		}
		return true, nil
	}
	return iter < step.NumIterations(), nil
}

// stopRequested polls the step's stop blob between units of work within one
// iteration. Steps without a stop blob never stop mid-iteration.
func (r *Runner) stopRequested(step *StepDef) (bool, error) {
	if step.ShouldStopBlob == "" {
		return false, nil
	}
	stopped, err := r.readStopBlob(step.ShouldStopBlob)
	if err != nil {
		return false, fmt.Errorf("step %q: %w", step.Name, err)
	}
	return stopped, nil
}

// readStopBlob interprets a workspace blob as a stop signal. The blob must
// exist; networks are instantiated before any step runs, so a stop blob that
// no network creates can never flip and the step would spin forever. A blob
// that exists but has never been written means "keep going"; a written value
// must be a bool.
func (r *Runner) readStopBlob(name string) (bool, error) {
	blob := r.env.Workspace.GetBlob(name)
	if blob == nil {
		return false, fmt.Errorf("stop blob %q does not exist", name)
	}
	v, ok := blob.Get()
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("stop blob %q holds %T, want bool", name, v)
	}
	return b, nil
}
