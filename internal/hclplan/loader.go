// Package hclplan loads plan definitions from HCL files. A plan may be a
// single file or a directory; in the directory case all .hcl files are
// parsed and their networks and steps merged in lexical filename order.
package hclplan

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/gridplan/internal/ctxlog"
	"github.com/vk/gridplan/internal/fsutil"
	"github.com/vk/gridplan/internal/plan"
)

// Load finds and parses all HCL files under planPath and translates them
// into a single executable plan named after the path's base name.
func Load(ctx context.Context, planPath string) (*plan.Definition, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading plan from path", "path", planPath)

	files, err := fsutil.FindFilesByExtension(planPath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find plan files in %s: %w", planPath, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl plan files found in %s", planPath)
	}

	def := &plan.Definition{Name: planName(planPath)}
	parser := hclparse.NewParser()
	for _, file := range files {
		parsed, err := parseFile(file, parser)
		if err != nil {
			return nil, err
		}
		for _, netHCL := range parsed.Networks {
			net, err := translateNetwork(netHCL, file)
			if err != nil {
				return nil, err
			}
			def.Networks = append(def.Networks, net)
		}
		for _, stepHCL := range parsed.Steps {
			step, err := translateStep(stepHCL, file)
			if err != nil {
				return nil, err
			}
			def.Steps = append(def.Steps, step)
		}
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Plan loaded.",
		"plan", def.Name, "files", len(files),
		"networks", len(def.Networks), "steps", len(def.Steps))
	return def, nil
}

func parseFile(filePath string, parser *hclparse.Parser) (*hclPlanFile, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}
	var parsed hclPlanFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}
	return &parsed, nil
}

func planName(planPath string) string {
	base := filepath.Base(filepath.Clean(planPath))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
