package plan

import (
	"fmt"
	"time"

	"github.com/vk/gridplan/internal/network"
)

// Definition is a complete executable plan: the networks it instantiates
// and the ordered top-level steps it runs against them.
type Definition struct {
	Name     string
	Networks []*network.Definition
	Steps    []*StepDef
}

// StepDef is one node of the execution tree. Exactly one of Substeps or
// Networks may be populated. A leaf step with neither is a no-op iteration
// body, which is legal but usually a plan-authoring mistake, so Validate
// rejects it.
type StepDef struct {
	Name string

	// NumIter fixes the iteration count. Nil means one iteration unless
	// ShouldStopBlob drives the loop instead.
	NumIter *int64

	// ShouldStopBlob names a boolean workspace blob polled between units of
	// work; a true value ends the step. Mutually exclusive with NumIter.
	ShouldStopBlob string

	// OnlyOnce caps a stop-blob-driven step at a single iteration.
	OnlyOnce bool

	// ConcurrentSubsteps runs each substep on its own goroutine.
	ConcurrentSubsteps bool

	Substeps []*StepDef
	Networks []string

	// ReportNet, when set, is run every ReportInterval for as long as this
	// step is executing. Report failures are logged, never propagated.
	ReportNet      string
	ReportInterval time.Duration
}

// NumIterations returns the effective fixed iteration bound, defaulting to
// one. Meaningless when ShouldStopBlob drives the loop.
func (s *StepDef) NumIterations() int64 {
	if s.NumIter != nil {
		return *s.NumIter
	}
	return 1
}

// Validate checks the whole plan for structural errors before anything runs.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("plan must have a name")
	}
	seen := make(map[string]struct{}, len(d.Networks))
	for _, nd := range d.Networks {
		if nd.Name == "" {
			return fmt.Errorf("plan %q: network definition must have a name", d.Name)
		}
		if _, dup := seen[nd.Name]; dup {
			return fmt.Errorf("plan %q: duplicate network %q", d.Name, nd.Name)
		}
		seen[nd.Name] = struct{}{}
	}
	for _, st := range d.Steps {
		if err := st.validate(seen); err != nil {
			return fmt.Errorf("plan %q: %w", d.Name, err)
		}
	}
	return nil
}

func (s *StepDef) validate(nets map[string]struct{}) error {
	if s.Name == "" {
		return fmt.Errorf("step must have a name")
	}
	if len(s.Substeps) > 0 && len(s.Networks) > 0 {
		return fmt.Errorf("step %q: declares both substeps and networks", s.Name)
	}
	if len(s.Substeps) == 0 && len(s.Networks) == 0 {
		return fmt.Errorf("step %q: declares neither substeps nor networks", s.Name)
	}
	if s.NumIter != nil && s.ShouldStopBlob != "" {
		return fmt.Errorf("step %q: num_iter and should_stop_blob are mutually exclusive", s.Name)
	}
	if s.NumIter != nil && *s.NumIter < 0 {
		return fmt.Errorf("step %q: num_iter must be non-negative, got %d", s.Name, *s.NumIter)
	}
	if s.OnlyOnce && s.ShouldStopBlob == "" {
		return fmt.Errorf("step %q: only_once requires should_stop_blob", s.Name)
	}
	if s.ConcurrentSubsteps && len(s.Substeps) == 0 {
		return fmt.Errorf("step %q: concurrent_substeps without substeps", s.Name)
	}
	if (s.ReportNet == "") != (s.ReportInterval == 0) {
		return fmt.Errorf("step %q: report_net and report_interval must be set together", s.Name)
	}
	if s.ReportInterval < 0 {
		return fmt.Errorf("step %q: report_interval must be positive", s.Name)
	}
	if s.ReportNet != "" {
		if _, ok := nets[s.ReportNet]; !ok {
			return fmt.Errorf("step %q: report net %q is not defined by the plan", s.Name, s.ReportNet)
		}
	}
	for _, name := range s.Networks {
		if _, ok := nets[name]; !ok {
			return fmt.Errorf("step %q: network %q is not defined by the plan", s.Name, name)
		}
	}
	for _, sub := range s.Substeps {
		if err := sub.validate(nets); err != nil {
			return err
		}
	}
	return nil
}
