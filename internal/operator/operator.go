package operator

import (
	"context"
	"fmt"

	"github.com/vk/gridplan/internal/device"
	"github.com/vk/gridplan/internal/registry"
	"github.com/vk/gridplan/internal/workspace"
	"github.com/zclconf/go-cty/cty"
)

// Operator is the unit of work the engine schedules. Run performs the whole
// unit synchronously and reports failure by error; it must not retain ctx.
type Operator interface {
	Run(ctx context.Context) error
}

// Def is the declaration an operator node is constructed from. It is
// immutable once the node exists.
type Def struct {
	Name    string
	Type    string
	Inputs  []string
	Outputs []string
	Device  device.Affinity
	Args    map[string]cty.Value
}

// Factory constructs an operator from its declaration. The workspace is the
// scope the operator will read and write; output blobs already exist as
// (possibly unset) cells by the time the factory runs.
type Factory func(def *Def, ws *workspace.Workspace) (Operator, error)

// Entry is what an operator type registers: its factory plus the schema its
// declarations must satisfy.
type Entry struct {
	Factory Factory
	Schema  *Schema
}

// Registry holds the operator types available to network construction.
type Registry = registry.Registry[*Entry]

// NewRegistry creates an empty operator-type registry.
func NewRegistry() *Registry {
	return registry.New[*Entry]("operator type")
}

// CreateNode validates a declaration against its type's schema, creates the
// declared output blobs in ws, and constructs the node. Inputs must already
// resolve in ws: within a network they are created by earlier operators'
// output declarations, and external graph inputs must be created by the
// caller before network construction.
func CreateNode(reg *Registry, def *Def, ws *workspace.Workspace) (*Node, error) {
	entry, ok := reg.Get(def.Type)
	if !ok {
		return nil, fmt.Errorf("unknown operator type %q for op %q", def.Type, def.Name)
	}
	if entry.Schema != nil {
		if err := entry.Schema.Verify(def); err != nil {
			return nil, fmt.Errorf("op %q: %w", def.Name, err)
		}
	}
	for _, in := range def.Inputs {
		if !ws.HasBlob(in) {
			return nil, fmt.Errorf("op %q reads blob %q which does not exist in the workspace", def.Name, in)
		}
	}
	for _, out := range def.Outputs {
		ws.CreateBlob(out)
	}
	op, err := entry.Factory(def, ws)
	if err != nil {
		return nil, fmt.Errorf("constructing op %q: %w", def.Name, err)
	}
	return &Node{def: def, op: op}, nil
}
