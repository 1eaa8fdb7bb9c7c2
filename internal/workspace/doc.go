// Package workspace implements the scoped blob store backing plan execution.
//
// A Workspace maps blob names to Blob cells. Workspaces chain: a child
// workspace consults its parent on lookup misses, while creation is always
// local, so a child blob of the same name shadows the parent's. Operators
// communicate exclusively through blobs; the dependency analysis in the graph
// package is derived from the blob names an operator declares, never from
// blob values.
//
// The engine deliberately does not order two writers of the same blob name
// when no read occurs between them. Callers that schedule such operators
// without a declared dependency get no ordering guarantee.
package workspace
