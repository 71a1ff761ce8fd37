// Package pubsub provides the event bus actor. It runs on Redis Streams when
// given a client and on the in-memory bus otherwise.
package pubsub
