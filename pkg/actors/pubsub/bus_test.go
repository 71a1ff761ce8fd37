package pubsub

import (
	"context"
	"testing"

	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMemoryBusLifecycle(t *testing.T) {
	ctx := context.Background()
	b := NewMemory(zaptest.NewLogger(t))
	assert.Equal(t, "memory", b.Backend())
	assert.False(t, b.Running())

	assert.ErrorIs(t, b.Publish(ctx, "t", domain.Event{}), ErrNotStarted)
	assert.ErrorIs(t, b.Subscribe(ctx, "t", nil), ErrNotStarted)
	assert.ErrorIs(t, b.Unsubscribe(ctx, "t"), ErrNotStarted)

	next, err := b.Start(ctx)
	require.NoError(t, err)
	started := next.(Bus)
	assert.True(t, started.Running())
	assert.False(t, b.Running(), "the original value is untouched")

	var got []string
	require.NoError(t, started.Subscribe(ctx, "t", func(_ context.Context, e domain.Event) error {
		got = append(got, e.ID)
		return nil
	}))
	require.NoError(t, started.Publish(ctx, "t", domain.Event{ID: "e1"}))
	assert.Equal(t, []string{"e1"}, got)

	_, err = started.Start(ctx)
	assert.Error(t, err, "double start")

	next, err = started.Stop(ctx)
	require.NoError(t, err)
	stopped := next.(Bus)
	assert.False(t, stopped.Running())
	assert.ErrorIs(t, stopped.Publish(ctx, "t", domain.Event{}), ErrNotStarted)

	_, err = stopped.Stop(ctx)
	assert.NoError(t, err, "stopping a stopped bus is a no-op")
}

func TestBusRejectsDependencies(t *testing.T) {
	_, err := NewMemory(nil).Inject("clock", "x")
	assert.Error(t, err)
}

func TestRedisBackendName(t *testing.T) {
	assert.Equal(t, "redis", NewRedis(RedisConfig{}, nil).Backend())
}
