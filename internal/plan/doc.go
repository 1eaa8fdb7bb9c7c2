// Package plan executes declarative plans: a set of network definitions
// plus a tree of execution steps that say how often, in what order, and
// with what concurrency those networks run.
//
// A step either groups substeps or names networks, never both. Iteration is
// bounded by a fixed count or by a boolean stop blob polled from the
// workspace between units of work. Sibling substeps may run concurrently;
// a failure in any sibling stops dispatch of further work but lets
// already-started siblings finish before the error is reported.
package plan
