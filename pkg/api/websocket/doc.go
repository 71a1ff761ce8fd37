// Package websocket provides real-time event streaming via WebSocket.
//
// Clients connect to /api/v1/events/ws and receive every event published on
// the configured bus topics, optionally filtered by ?type= and ?role=.
package websocket
