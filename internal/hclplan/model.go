package hclplan

import "github.com/hashicorp/hcl/v2"

// hclPlanFile represents the top-level structure of a plan file for decoding.
type hclPlanFile struct {
	Networks []*hclNetwork `hcl:"network,block"`
	Steps    []*hclStep    `hcl:"step,block"`
}

// hclNetwork is a `network "name" { ... }` block.
type hclNetwork struct {
	Name    string  `hcl:"name,label"`
	Type    *string `hcl:"type,optional"`
	Workers *int    `hcl:"workers,optional"`
	// Device is the default placement for ops that do not declare their own.
	Device *string  `hcl:"device,optional"`
	Ops    []*hclOp `hcl:"op,block"`
}

// hclOp is an `op "type" "name" { ... }` block inside a network.
type hclOp struct {
	Type      string        `hcl:"type,label"`
	Name      string        `hcl:"name,label"`
	Inputs    []string      `hcl:"inputs,optional"`
	Outputs   []string      `hcl:"outputs,optional"`
	Device    *string       `hcl:"device,optional"`
	Arguments *hclArguments `hcl:"arguments,block"`
}

// hclArguments keeps the op's argument attributes as an undecoded body so
// each operator type can interpret its own schema.
type hclArguments struct {
	Body hcl.Body `hcl:",remain"`
}

// hclStep is a `step "name" { ... }` block, nesting further step blocks as
// substeps.
type hclStep struct {
	Name               string     `hcl:"name,label"`
	NumIter            *int64     `hcl:"num_iter,optional"`
	ShouldStopBlob     *string    `hcl:"should_stop_blob,optional"`
	OnlyOnce           *bool      `hcl:"only_once,optional"`
	ConcurrentSubsteps *bool      `hcl:"concurrent_substeps,optional"`
	Networks           []string   `hcl:"networks,optional"`
	ReportNet          *string    `hcl:"report_net,optional"`
	ReportInterval     *string    `hcl:"report_interval,optional"`
	Substeps           []*hclStep `hcl:"step,block"`
}
