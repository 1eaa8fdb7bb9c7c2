// Package app wires the engine together: it loads a plan from disk, builds
// the workspace, device streams, operator registry, and runner, and executes
// the plan with an optional operational HTTP endpoint for metrics and
// health checks.
package app
