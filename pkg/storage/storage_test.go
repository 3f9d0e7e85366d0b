package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	backend := NewFileBackend(testLogger(), path)

	_, err := backend.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, backend.Save(ctx, []byte(`{"version":2}`)))

	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"version":2}`, string(data))

	// Cache files hold business data; keep them owner-only.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, backend.Clear(ctx))

	_, err = backend.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, backend.Close())
}

func TestFileBackendOverwrite(t *testing.T) {
	ctx := context.Background()
	backend := NewFileBackend(testLogger(), filepath.Join(t.TempDir(), "cache.json"))

	require.NoError(t, backend.Save(ctx, []byte("first")))
	require.NoError(t, backend.Save(ctx, []byte("second")))

	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestFileBackendClearMissingFile(t *testing.T) {
	backend := NewFileBackend(testLogger(), filepath.Join(t.TempDir(), "cache.json"))

	assert.NoError(t, backend.Clear(context.Background()))
}

func TestMemoryBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	_, err := backend.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, backend.Save(ctx, []byte("blob")))

	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "blob", string(data))

	require.NoError(t, backend.Clear(ctx))

	_, err = backend.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackendCopiesData(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	original := []byte("blob")
	require.NoError(t, backend.Save(ctx, original))

	original[0] = 'X'

	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "blob", string(data))

	data[0] = 'Y'

	again, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "blob", string(again))
}

func TestMemoryBackendEmptyBlobIsNotMissing(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	require.NoError(t, backend.Save(ctx, []byte{}))

	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, data)
}
