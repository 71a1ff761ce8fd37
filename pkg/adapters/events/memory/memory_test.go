package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/aescanero/dagsys/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(events *[]domain.Event) ports.EventHandler {
	return func(_ context.Context, e domain.Event) error {
		*events = append(*events, e)
		return nil
	}
}

func TestPublishDeliversInOrder(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx := context.Background()

	var got []domain.Event
	require.NoError(t, bus.Subscribe(ctx, "t", collect(&got)))

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, bus.Publish(ctx, "t", domain.Event{ID: id}))
	}
	require.NoError(t, bus.Publish(ctx, "other", domain.Event{ID: "x"}))

	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[2].ID)
}

func TestHandlerErrorsDoNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx := context.Background()

	var got []domain.Event
	require.NoError(t, bus.Subscribe(ctx, "t", func(context.Context, domain.Event) error {
		return errors.New("bad handler")
	}))
	require.NoError(t, bus.Subscribe(ctx, "t", collect(&got)))

	require.NoError(t, bus.Publish(ctx, "t", domain.Event{ID: "1"}))
	assert.Len(t, got, 1)
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	bus := NewInMemoryEventBus(nil)

	keepCtx := context.Background()
	subCtx, cancel := context.WithCancel(context.Background())

	var kept, dropped []domain.Event
	require.NoError(t, bus.Subscribe(keepCtx, "t", collect(&kept)))
	require.NoError(t, bus.Subscribe(subCtx, "t", collect(&dropped)))
	assert.Equal(t, 2, bus.SubscriberCount("t"))

	cancel()
	assert.Eventually(t, func() bool { return bus.SubscriberCount("t") == 1 }, time.Second, time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), "t", domain.Event{ID: "1"}))
	assert.Len(t, kept, 1, "only the cancelled handler is removed")
	assert.Empty(t, dropped)
}

func TestUnsubscribeAndClose(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx := context.Background()

	var got []domain.Event
	require.NoError(t, bus.Subscribe(ctx, "t", collect(&got)))
	require.NoError(t, bus.Unsubscribe(ctx, "t"))
	require.NoError(t, bus.Publish(ctx, "t", domain.Event{ID: "1"}))
	assert.Empty(t, got)

	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(ctx, "t", domain.Event{}), ports.ErrBusClosed)
	assert.ErrorIs(t, bus.Subscribe(ctx, "t", collect(&got)), ports.ErrBusClosed)
}
