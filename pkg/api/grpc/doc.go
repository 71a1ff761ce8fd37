// Package grpc provides the gRPC API actor. It serves the standard
// grpc.health.v1 service, whose status follows the system state, and server
// reflection.
package grpc
