// Package graph derives the dependency structure of an ordered operator list
// and partitions it into chains.
//
// An edge A -> B exists when B reads a blob name A was the most recent
// earlier writer of; the relation is purely name-based and recomputed per
// network construction. An operator that reads and writes the same name is
// never its own dependency. Two writes of the same name with no read between
// them create no edge: write-write hazards are intentionally not ordered by
// name analysis, matching the engine's documented contract.
//
// A chain is a maximal run of nodes that can be launched in declaration
// order on one stream with no intra-chain wait. Partitioning is a greedy
// single pass and is deterministic for a fixed node list.
package graph
