package operator

import "fmt"

// Unbounded marks an arity limit as unconstrained.
const Unbounded = -1

// Schema constrains operator declarations of one type: how many inputs and
// outputs they may declare and which input/output index pairs may or must
// alias (share a blob name for in-place execution).
type Schema struct {
	MinInputs  int
	MaxInputs  int
	MinOutputs int
	MaxOutputs int

	// AllowInplace lists {input, output} index pairs that may share a name.
	AllowInplace [][2]int
	// EnforceInplace lists {input, output} index pairs that must share a name.
	EnforceInplace [][2]int
}

// Verify checks a declaration against the schema.
func (s *Schema) Verify(def *Def) error {
	if err := checkArity("inputs", len(def.Inputs), s.MinInputs, s.MaxInputs); err != nil {
		return err
	}
	if err := checkArity("outputs", len(def.Outputs), s.MinOutputs, s.MaxOutputs); err != nil {
		return err
	}

	for i, in := range def.Inputs {
		for j, out := range def.Outputs {
			if in != out {
				continue
			}
			if !s.pairListed(s.AllowInplace, i, j) && !s.pairListed(s.EnforceInplace, i, j) {
				return fmt.Errorf("in-place aliasing of input %d and output %d (blob %q) is not permitted", i, j, in)
			}
		}
	}
	for _, pair := range s.EnforceInplace {
		i, j := pair[0], pair[1]
		if i >= len(def.Inputs) || j >= len(def.Outputs) {
			continue
		}
		if def.Inputs[i] != def.Outputs[j] {
			return fmt.Errorf("input %d and output %d must alias in place, got %q and %q",
				i, j, def.Inputs[i], def.Outputs[j])
		}
	}
	return nil
}

func (s *Schema) pairListed(pairs [][2]int, i, j int) bool {
	for _, p := range pairs {
		if p[0] == i && p[1] == j {
			return true
		}
	}
	return false
}

func checkArity(what string, n, min, max int) error {
	if n < min {
		return fmt.Errorf("declares %d %s, want at least %d", n, what, min)
	}
	if max != Unbounded && n > max {
		return fmt.Errorf("declares %d %s, want at most %d", n, what, max)
	}
	return nil
}
