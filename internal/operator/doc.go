// Package operator defines the schedulable unit of work the engine
// orchestrates.
//
// An Operator exposes a synchronous run contract; the engine never inspects
// what an operator computes, only the blob names it declares to read and
// write and the device affinity it wants to run on. Operator types are
// registered by string key with a factory and a schema; the schema validates
// arity and in-place aliasing constraints at construction time, before
// anything is scheduled.
package operator
