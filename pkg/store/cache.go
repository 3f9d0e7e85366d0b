package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/catalinamedinaleal/store/pkg/observability"
	"github.com/catalinamedinaleal/store/pkg/storage"
)

// cacheVersion guards the envelope layout. A version bump silently discards
// every previously written blob.
const cacheVersion = 2

// backendTimeout bounds durable reads and writes so a slow backend can
// never stall the store.
const backendTimeout = 5 * time.Second

// cachedData is the whitelisted subset of the Record that survives a
// restart. Identity and UI session state are deliberately absent.
type cachedData struct {
	Products  []Product      `json:"products"`
	Inventory []InventoryRow `json:"inventory"`
	Sales     []Sale         `json:"sales"`
	Orders    []Order        `json:"orders"`
	Dashboard *Dashboard     `json:"dashboard,omitempty"`
	LastSync  string         `json:"last_sync,omitempty"`
	Restock   RestockCart    `json:"restock"`
}

// envelope is the single persisted blob.
type envelope struct {
	Version int        `json:"version"`
	SavedAt time.Time  `json:"saved_at"`
	TTLMs   int64      `json:"ttl_ms"`
	Data    cachedData `json:"data"`
}

// encodeEnvelopeLocked serializes the current whitelisted subset. Caller
// must hold s.mu. Returns nil when encoding fails; the failure is logged by
// writeCache's absence rather than crashing a Set.
func (s *Store) encodeEnvelopeLocked() []byte {
	env := envelope{
		Version: cacheVersion,
		SavedAt: time.Now(),
		TTLMs:   s.ttl.Milliseconds(),
		Data: cachedData{
			Products:  s.record.Products,
			Inventory: s.record.Inventory,
			Sales:     s.record.Sales,
			Orders:    s.record.Orders,
			Dashboard: s.record.Dashboard,
			LastSync:  s.record.LastSync,
			Restock:   s.record.Restock,
		},
	}

	blob, err := json.Marshal(env)
	if err != nil {
		s.log.WithError(err).Warn("Failed to encode cache envelope")

		return nil
	}

	return blob
}

// writeCache persists an encoded envelope. Failures degrade to no-cache:
// logged, never propagated.
func (s *Store) writeCache(blob []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	if err := s.backend.Save(ctx, blob); err != nil {
		s.log.WithError(err).Warn("Failed to write state cache")
	}
}

// HydrateFromCache loads the persisted envelope and, when it is valid and
// within its TTL, merges the whitelisted subset into the record as a single
// cache-tagged patch. Returns false when nothing was hydrated.
func (s *Store) HydrateFromCache(ctx context.Context) bool {
	if s.backend == nil {
		return false
	}

	loadCtx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	blob, err := s.backend.Load(loadCtx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.WithError(err).Warn("Failed to read state cache")
			observability.CacheHydrationsTotal.WithLabelValues("error").Inc()

			return false
		}

		observability.CacheHydrationsTotal.WithLabelValues("miss").Inc()

		return false
	}

	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		s.log.WithError(err).Warn("Discarding unparsable state cache")
		observability.CacheHydrationsTotal.WithLabelValues("error").Inc()

		return false
	}

	if env.Version != cacheVersion {
		s.log.WithField("version", env.Version).Debug("Discarding state cache with stale version")
		observability.CacheHydrationsTotal.WithLabelValues("version_mismatch").Inc()

		return false
	}

	// Honor the TTL stamped at write time, not the current configuration.
	if time.Since(env.SavedAt) >= time.Duration(env.TTLMs)*time.Millisecond {
		observability.CacheHydrationsTotal.WithLabelValues("expired").Inc()

		return false
	}

	data := env.Data

	if data.Products == nil {
		data.Products = []Product{}
	}

	if data.Inventory == nil {
		data.Inventory = []InventoryRow{}
	}

	if data.Sales == nil {
		data.Sales = []Sale{}
	}

	if data.Orders == nil {
		data.Orders = []Order{}
	}

	if data.Restock.Items == nil {
		data.Restock.Items = []RestockItem{}
	}

	s.Set(Patch{
		Products:     &data.Products,
		Inventory:    &data.Inventory,
		Sales:        &data.Sales,
		Orders:       &data.Orders,
		Dashboard:    data.Dashboard,
		DashboardSet: true,
		LastSync:     &data.LastSync,
		Restock:      &data.Restock,
	}, ChangeMeta{Source: SourceCache})

	observability.CacheHydrationsTotal.WithLabelValues("ok").Inc()

	return true
}

// ClearCache removes the persisted envelope.
func (s *Store) ClearCache(ctx context.Context) {
	if s.backend == nil {
		return
	}

	clearCtx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()

	if err := s.backend.Clear(clearCtx); err != nil {
		s.log.WithError(err).Warn("Failed to clear state cache")
	}
}

// ResetAll clears durable storage, resets the record to defaults with a new
// boot timestamp and notifies all subscribers once.
func (s *Store) ResetAll(ctx context.Context) {
	s.ClearCache(ctx)

	s.mu.Lock()

	prev := s.record
	next := defaultRecord(time.Now())
	s.record = next
	s.productsGen++
	s.indexValid = false

	s.mu.Unlock()

	observability.StoreNotificationsTotal.WithLabelValues(string(KeyAll)).Inc()
	s.emitter.emit(Change{Key: KeyAll, Previous: prev, Next: next, Meta: ChangeMeta{Source: SourceReset}})
}
