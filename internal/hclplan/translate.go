package hclplan

import (
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/gridplan/internal/device"
	"github.com/vk/gridplan/internal/network"
	"github.com/vk/gridplan/internal/operator"
	"github.com/vk/gridplan/internal/plan"
)

func translateNetwork(src *hclNetwork, filePath string) (*network.Definition, error) {
	def := &network.Definition{Name: src.Name}
	if src.Type != nil {
		def.Type = *src.Type
	}
	if src.Workers != nil {
		def.Workers = *src.Workers
	}

	netDevice := ""
	if src.Device != nil {
		netDevice = *src.Device
	}
	if _, err := device.ParseAffinity(netDevice); err != nil {
		return nil, fmt.Errorf("network %q in %s: %w", src.Name, filePath, err)
	}

	for _, opHCL := range src.Ops {
		opDef, err := translateOp(opHCL, netDevice)
		if err != nil {
			return nil, fmt.Errorf("network %q in %s: %w", src.Name, filePath, err)
		}
		def.Ops = append(def.Ops, opDef)
	}
	return def, nil
}

// translateOp turns an op block into an operator definition. An op without
// its own device placement inherits the network's.
func translateOp(src *hclOp, netDevice string) (*operator.Def, error) {
	deviceStr := netDevice
	if src.Device != nil {
		deviceStr = *src.Device
	}
	affinity, err := device.ParseAffinity(deviceStr)
	if err != nil {
		return nil, fmt.Errorf("op %q: %w", src.Name, err)
	}

	args, err := decodeArguments(src)
	if err != nil {
		return nil, err
	}

	return &operator.Def{
		Name:    src.Name,
		Type:    src.Type,
		Inputs:  src.Inputs,
		Outputs: src.Outputs,
		Device:  affinity,
		Args:    args,
	}, nil
}

// decodeArguments evaluates the arguments block's attributes as literal
// values. Plans are static descriptions, so there is no evaluation context
// and no cross-op references inside arguments.
func decodeArguments(src *hclOp) (map[string]cty.Value, error) {
	if src.Arguments == nil {
		return nil, nil
	}
	attrs, diags := src.Arguments.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("op %q: invalid arguments block: %w", src.Name, diags)
	}
	args := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("op %q: argument %q: %w", src.Name, name, diags)
		}
		args[name] = val
	}
	return args, nil
}

func translateStep(src *hclStep, filePath string) (*plan.StepDef, error) {
	step := &plan.StepDef{
		Name:     src.Name,
		NumIter:  src.NumIter,
		Networks: src.Networks,
	}
	if src.ShouldStopBlob != nil {
		step.ShouldStopBlob = *src.ShouldStopBlob
	}
	if src.OnlyOnce != nil {
		step.OnlyOnce = *src.OnlyOnce
	}
	if src.ConcurrentSubsteps != nil {
		step.ConcurrentSubsteps = *src.ConcurrentSubsteps
	}
	if src.ReportNet != nil {
		step.ReportNet = *src.ReportNet
	}
	if src.ReportInterval != nil {
		interval, err := time.ParseDuration(*src.ReportInterval)
		if err != nil {
			return nil, fmt.Errorf("step %q in %s: invalid report_interval: %w", src.Name, filePath, err)
		}
		step.ReportInterval = interval
	}
	for _, subHCL := range src.Substeps {
		sub, err := translateStep(subHCL, filePath)
		if err != nil {
			return nil, err
		}
		step.Substeps = append(step.Substeps, sub)
	}
	return step, nil
}
