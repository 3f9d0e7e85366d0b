package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalinamedinaleal/store/pkg/identity"
	"github.com/catalinamedinaleal/store/pkg/storage"
)

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	first := New(testLogger(), backend, 15*time.Minute)
	first.SetUser(&identity.User{ID: "u_1", Email: "owner@example.com"})
	first.SetIDToken("secret-token")
	first.SetProducts([]Product{{ID: "p1", Name: "Shampoo", PriceCOP: 18000, Active: true}})
	first.SetInventory([]InventoryRow{{ProductID: "p1", Qty: 7}})
	first.RestockAddProduct(Product{ID: "p1", Name: "Shampoo", CostCOP: 9000}, 2)
	first.SetLastSync("2026-08-30T10:00:00Z")

	second := New(testLogger(), backend, 15*time.Minute)
	require.True(t, second.HydrateFromCache(ctx))

	record := second.Get()
	require.Len(t, record.Products, 1)
	assert.Equal(t, "Shampoo", record.Products[0].Name)
	require.Len(t, record.Inventory, 1)
	assert.Equal(t, 7, record.Inventory[0].Qty)
	require.Len(t, record.Restock.Items, 1)
	assert.Equal(t, 2, record.Restock.Items[0].Qty)
	assert.Equal(t, "2026-08-30T10:00:00Z", record.LastSync)

	// Identity never crosses a restart.
	assert.Nil(t, record.User)
	assert.Empty(t, record.IDToken)
}

func TestCacheBlobExcludesIdentity(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	st := New(testLogger(), backend, 15*time.Minute)
	st.SetUser(&identity.User{ID: "u_1", Email: "owner@example.com"})
	st.SetIDToken("secret-token")
	st.SetProducts([]Product{{ID: "p1"}})

	blob, err := backend.Load(ctx)
	require.NoError(t, err)

	assert.NotContains(t, string(blob), "secret-token")
	assert.NotContains(t, string(blob), "owner@example.com")
}

func TestCacheNotWrittenForEphemeralChanges(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	st := New(testLogger(), backend, 15*time.Minute)
	st.SetBusy(true)
	st.SetTab("sales")
	st.SetIDToken("secret-token")

	_, err := backend.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHydrateMissOnEmptyBackend(t *testing.T) {
	st := New(testLogger(), storage.NewMemoryBackend(), 15*time.Minute)

	assert.False(t, st.HydrateFromCache(context.Background()))
	assert.Empty(t, st.Get().Products)
}

func TestHydrateRejectsUnparsableBlob(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Save(ctx, []byte("not json")))

	st := New(testLogger(), backend, 15*time.Minute)
	assert.False(t, st.HydrateFromCache(ctx))
}

func TestHydrateRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	blob, err := json.Marshal(envelope{
		Version: cacheVersion - 1,
		SavedAt: time.Now(),
		TTLMs:   time.Hour.Milliseconds(),
		Data:    cachedData{Products: []Product{{ID: "p1"}}},
	})
	require.NoError(t, err)
	require.NoError(t, backend.Save(ctx, blob))

	st := New(testLogger(), backend, 15*time.Minute)
	assert.False(t, st.HydrateFromCache(ctx))
	assert.Empty(t, st.Get().Products)
}

func TestHydrateRejectsExpiredEnvelope(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	blob, err := json.Marshal(envelope{
		Version: cacheVersion,
		SavedAt: time.Now().Add(-time.Hour),
		TTLMs:   (10 * time.Minute).Milliseconds(),
		Data:    cachedData{Products: []Product{{ID: "p1"}}},
	})
	require.NoError(t, err)
	require.NoError(t, backend.Save(ctx, blob))

	st := New(testLogger(), backend, 15*time.Minute)
	assert.False(t, st.HydrateFromCache(ctx))
}

func TestHydrateHonorsStampedTTL(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	// Envelope written under a longer TTL stays valid even if the store is
	// now configured with a shorter one.
	blob, err := json.Marshal(envelope{
		Version: cacheVersion,
		SavedAt: time.Now().Add(-30 * time.Minute),
		TTLMs:   time.Hour.Milliseconds(),
		Data:    cachedData{Products: []Product{{ID: "p1"}}},
	})
	require.NoError(t, err)
	require.NoError(t, backend.Save(ctx, blob))

	st := New(testLogger(), backend, time.Minute)
	assert.True(t, st.HydrateFromCache(ctx))
	assert.Len(t, st.Get().Products, 1)
}

func TestHydrateTagsChangesAsCache(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	seed := New(testLogger(), backend, 15*time.Minute)
	seed.SetProducts([]Product{{ID: "p1"}})

	st := New(testLogger(), backend, 15*time.Minute)

	var sources []Source

	st.OnAny(func(c Change) { sources = append(sources, c.Meta.Source) })

	require.True(t, st.HydrateFromCache(ctx))
	require.NotEmpty(t, sources)
	assert.Equal(t, SourceCache, sources[0])
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()

	st := New(testLogger(), backend, 15*time.Minute)
	st.SetUser(&identity.User{ID: "u_1"})
	st.SetProducts([]Product{{ID: "p1"}})
	st.SetTab("sales")

	var got Change

	var fired int

	st.OnAny(func(c Change) {
		fired++
		got = c
	})

	booted := st.Get().BootedAt

	st.ResetAll(ctx)

	record := st.Get()
	assert.Nil(t, record.User)
	assert.Empty(t, record.Products)
	assert.Equal(t, "catalog", record.Tab)
	assert.True(t, record.BootedAt.After(booted) || record.BootedAt.Equal(booted))

	assert.Equal(t, 1, fired)
	assert.Equal(t, KeyAll, got.Key)
	assert.Equal(t, SourceReset, got.Meta.Source)

	_, err := backend.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
