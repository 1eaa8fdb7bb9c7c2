package plan

import (
	"context"
	"sync"
	"time"

	"github.com/vk/gridplan/internal/ctxlog"
)

// reporter runs a step's report net in the background for as long as the
// step executes. The net runs on every interval tick, starting one interval
// in, and once more when the step completes so the last report reflects the
// final state. Failures are logged and never affect the step's outcome.
type reporter struct {
	done chan struct{}
	wg   sync.WaitGroup
}

func (r *Runner) startReporter(ctx context.Context, step *StepDef) *reporter {
	logger := ctxlog.FromContext(ctx)
	rep := &reporter{done: make(chan struct{})}
	report := func() {
		if err := r.RunNet(ctx, step.ReportNet); err != nil {
			logger.Error("Report net failed.",
				"step", step.Name, "net", step.ReportNet, "error", err)
		}
	}
	rep.wg.Add(1)
	go func() {
		defer rep.wg.Done()
		ticker := time.NewTicker(step.ReportInterval)
		defer ticker.Stop()
		logger.Debug("Reporter started.",
			"step", step.Name, "net", step.ReportNet, "interval", step.ReportInterval)
		for {
			select {
			case <-rep.done:
				report()
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				report()
			}
		}
	}()
	return rep
}

// stop ends the reporter and waits for any in-flight report run to finish.
func (rep *reporter) stop() {
	close(rep.done)
	rep.wg.Wait()
}
