// Package storage provides key-value store implementations.
//
// Implementations:
//   - redis: Redis with JSON serialization and optional TTL
//   - file: JSON snapshot on local disk
//   - memory: In-memory for testing and single-process use
package storage
