// Package store implements the observable state container: one fixed Record
// behind a constructible store object, typed change notifications, a
// provisional restock cart and selective durability with a TTL.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/catalinamedinaleal/store/pkg/identity"
	"github.com/catalinamedinaleal/store/pkg/observability"
	"github.com/catalinamedinaleal/store/pkg/storage"
)

// maxTokenLength caps the idToken field so a misbehaving provider cannot
// bloat the record.
const maxTokenLength = 8000

// Store is the single in-memory source of truth. All mutation goes through
// Set/Update/Transaction or the convenience setters; the backing record is
// private and replaced wholesale on every write.
type Store struct {
	log     logrus.FieldLogger
	backend storage.Backend
	ttl     time.Duration
	emitter *emitter

	mu     sync.Mutex
	record Record

	// Products index memoization: rebuilt only after a products write.
	productsGen uint64
	index       map[string]Product
	indexGen    uint64
	indexValid  bool
}

// New creates a store with default state. backend may be nil to disable
// durability entirely.
func New(log logrus.FieldLogger, backend storage.Backend, ttl time.Duration) *Store {
	l := log.WithField("component", "store")

	return &Store{
		log:     l,
		backend: backend,
		ttl:     ttl,
		emitter: newEmitter(l),
		record:  defaultRecord(time.Now()),
	}
}

// Get returns a snapshot of the current record. The snapshot is a value
// copy; slice contents are shared and must not be mutated by callers.
func (s *Store) Get() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.record
}

// On subscribes to changes of one record key. The returned function
// unsubscribes.
func (s *Store) On(key Key, fn func(Change)) func() {
	return s.emitter.on(key, fn)
}

// OnAny subscribes to the catch-all channel, which fires once per write
// batch after all keyed listeners have run.
func (s *Store) OnAny(fn func(Change)) func() {
	return s.emitter.on(KeyAll, fn)
}

// Set shallow-merges the patch into the record. For every changed key a
// keyed notification fires, then one catch-all notification for the batch.
// Writes touching persisted keys are followed by a durability write.
func (s *Store) Set(patch Patch, meta ChangeMeta) {
	s.mu.Lock()

	prev := s.record

	next, changed := patch.apply(prev)
	if len(changed) == 0 {
		s.mu.Unlock()

		return
	}

	for _, k := range changed {
		if k == KeyProducts {
			s.productsGen++
		}
	}

	s.record = next

	persist := touchesPersisted(changed)

	var blob []byte

	if persist && s.backend != nil {
		blob = s.encodeEnvelopeLocked()
	}

	s.mu.Unlock()

	if blob != nil {
		s.writeCache(blob)
	}

	// Notification order: all keyed listeners first, then the catch-all.
	// Emission is synchronous; subscribers run on the caller's goroutine.
	for _, k := range changed {
		observability.StoreNotificationsTotal.WithLabelValues(string(k)).Inc()
		s.emitter.emit(Change{Key: k, Previous: prev, Next: next, Meta: meta})
	}

	observability.StoreNotificationsTotal.WithLabelValues(string(KeyAll)).Inc()
	s.emitter.emit(Change{Key: KeyAll, Previous: prev, Next: next, Meta: meta})
}

// Update invokes the reducer with the current record and applies the patch
// it returns.
func (s *Store) Update(reducer func(Record) Patch, meta ChangeMeta) {
	if reducer == nil {
		return
	}

	s.Set(reducer(s.Get()), meta)
}

// Transaction collects a draft patch mutated by fn and applies it as one
// Set, so multiple logical field changes produce exactly one notification
// batch.
func (s *Store) Transaction(fn func(draft *Patch, current Record), meta ChangeMeta) {
	if fn == nil {
		return
	}

	var draft Patch

	fn(&draft, s.Get())
	s.Set(draft, meta)
}

// SetUser replaces the signed-in user. Never persisted.
func (s *Store) SetUser(user *identity.User) {
	s.Set(Patch{User: user, UserSet: true}, ChangeMeta{Source: SourceSystem})
}

// SetIDToken replaces the session token. Never persisted.
func (s *Store) SetIDToken(token string) {
	if len(token) > maxTokenLength {
		token = token[:maxTokenLength]
	}

	s.Set(Patch{IDToken: &token}, ChangeMeta{Source: SourceSystem})
}

// SetProducts replaces the catalog.
func (s *Store) SetProducts(items []Product) {
	if items == nil {
		items = []Product{}
	}

	s.Set(Patch{Products: &items}, ChangeMeta{Source: SourceData})
}

// SetInventory replaces the stock levels.
func (s *Store) SetInventory(items []InventoryRow) {
	if items == nil {
		items = []InventoryRow{}
	}

	for i := range items {
		items[i].Qty = clampNonNegative(items[i].Qty)
	}

	s.Set(Patch{Inventory: &items}, ChangeMeta{Source: SourceData})
}

// SetSales replaces the sales list.
func (s *Store) SetSales(items []Sale) {
	if items == nil {
		items = []Sale{}
	}

	s.Set(Patch{Sales: &items}, ChangeMeta{Source: SourceData})
}

// SetOrders replaces the pending orders list.
func (s *Store) SetOrders(items []Order) {
	if items == nil {
		items = []Order{}
	}

	s.Set(Patch{Orders: &items}, ChangeMeta{Source: SourceData})
}

// SetDashboard replaces the dashboard summary. nil clears it.
func (s *Store) SetDashboard(d *Dashboard) {
	s.Set(Patch{Dashboard: d, DashboardSet: true}, ChangeMeta{Source: SourceData})
}

// SetLastSync records the last successful sync time. Empty means now.
func (s *Store) SetLastSync(iso string) {
	if iso == "" {
		iso = time.Now().Format(time.RFC3339)
	}

	s.Set(Patch{LastSync: &iso}, ChangeMeta{Source: SourceData})
}

// SetTab switches the active UI tab. Empty falls back to the catalog tab.
func (s *Store) SetTab(tab string) {
	tab = strings.TrimSpace(tab)
	if tab == "" {
		tab = "catalog"
	}

	s.Set(Patch{Tab: &tab}, ChangeMeta{Source: SourceSystem})
}

// SetBusy toggles the busy flag.
func (s *Store) SetBusy(busy bool) {
	s.Set(Patch{Busy: &busy}, ChangeMeta{Source: SourceSystem})
}

// OpenSale opens a sale session with an empty cart. Opening while a session
// is already open discards its items: open is destructive on purpose, and
// any confirmation belongs in the presentation layer.
func (s *Store) OpenSale() {
	open := true
	items := []SaleItem{}

	s.Set(Patch{SaleOpen: &open, SaleItems: &items}, ChangeMeta{Source: SourceSystem})
}

// CloseSale closes the sale session and clears its items.
func (s *Store) CloseSale() {
	open := false
	items := []SaleItem{}

	s.Set(Patch{SaleOpen: &open, SaleItems: &items}, ChangeMeta{Source: SourceSystem})
}

// SetSaleItems replaces the open sale's items.
func (s *Store) SetSaleItems(items []SaleItem) {
	if items == nil {
		items = []SaleItem{}
	}

	for i := range items {
		items[i].Qty = clampNonNegative(items[i].Qty)
		items[i].UnitPriceCOP = clampNonNegative(items[i].UnitPriceCOP)
	}

	s.Set(Patch{SaleItems: &items}, ChangeMeta{Source: SourceSystem})
}

// ProductsIndex returns a map from product id to product, memoized against
// the products field: the same map instance comes back until the next
// products write, which invalidates it.
func (s *Store) ProductsIndex() map[string]Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexValid && s.indexGen == s.productsGen {
		return s.index
	}

	index := make(map[string]Product, len(s.record.Products))

	for _, p := range s.record.Products {
		id := strings.TrimSpace(p.ID)
		if id != "" {
			index[id] = p
		}
	}

	s.index = index
	s.indexGen = s.productsGen
	s.indexValid = true

	return index
}
