// Package http provides the HTTP REST API actor.
//
// The server depends on a database role and a bus role and exposes:
//   - Health checks
//   - Prometheus metrics
//   - The system status snapshot
//   - Key-value reads and writes against the database
//   - A websocket stream of bus events
package http
