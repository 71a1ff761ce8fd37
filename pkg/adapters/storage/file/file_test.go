package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aescanero/dagsys/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	ctx := context.Background()
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	s, err := Open(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Put(ctx, ports.Record{Key: "greeting", Value: "hello", UpdatedAt: now}))
	require.NoError(t, s.Put(ctx, ports.Record{Key: "gone", Value: "x", UpdatedAt: now}))
	require.NoError(t, s.Delete(ctx, "gone"))
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened, err := Open(path, nil)
	require.NoError(t, err)

	rec, err := reopened.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", rec.Value)
	assert.True(t, now.Equal(rec.UpdatedAt))

	_, err = reopened.Get(ctx, "gone")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	keys, err = reopened.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting"}, keys)
}

func TestFileStoreRejectsOperationsAfterClose(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "store.json"), nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	ctx := context.Background()
	assert.ErrorIs(t, s.Put(ctx, ports.Record{Key: "k"}), ErrClosed)
	assert.ErrorIs(t, s.Delete(ctx, "k"), ErrClosed)

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.List(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path, nil)
	assert.ErrorContains(t, err, "failed to unmarshal store file")
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}
