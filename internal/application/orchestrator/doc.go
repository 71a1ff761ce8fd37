// Package orchestrator implements the dependency-ordered actor system.
//
// A System is constructed from a domain.Blueprint. Construction:
//   - Re-validates the blueprint (undeclared dependencies, passive roles with dependencies)
//   - Builds the dependency graph and rejects cycles
//   - Computes the processing order, without touching any actor
//
// Start walks the order, injecting each actor's dependencies and starting
// it; Stop walks the same order backwards. Every actor call may return a new
// instance, which replaces the role's current component.
//
// With WithConcurrency the roles of one dependency level run in parallel on
// a worker pool, and the next level only begins once the whole level has
// finished.
package orchestrator
