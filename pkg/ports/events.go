package ports

import (
	"context"
	"errors"

	"github.com/aescanero/dagsys/pkg/domain"
)

// ErrBusClosed is returned when publishing to or subscribing on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// EventHandler processes a single event delivered by an EventBus.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus is a topic-based publish/subscribe bus.
type EventBus interface {
	// Publish delivers event to every subscriber of topic.
	Publish(ctx context.Context, topic string, event domain.Event) error

	// Subscribe registers handler for topic until ctx is cancelled.
	Subscribe(ctx context.Context, topic string, handler EventHandler) error

	// Unsubscribe removes every handler of topic.
	Unsubscribe(ctx context.Context, topic string) error

	// Close releases the bus.
	Close() error
}
