// Package ports defines the interfaces between the orchestrator, the
// collaborator actors and the infrastructure adapters.
//
// Implementations live under pkg/adapters:
//   - events: in-memory and Redis Streams event buses
//   - storage: in-memory, Redis and JSON-file key-value stores
//   - metrics: Prometheus collector
package ports
