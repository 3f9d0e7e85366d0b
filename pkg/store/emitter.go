package store

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Key identifies a top-level Record field in change notifications.
type Key string

// Record field keys.
const (
	KeyUser      Key = "user"
	KeyIDToken   Key = "idToken"
	KeyProducts  Key = "products"
	KeyInventory Key = "inventory"
	KeySales     Key = "sales"
	KeyOrders    Key = "orders"
	KeyDashboard Key = "dashboard"
	KeyLastSync  Key = "lastSync"
	KeyTab       Key = "tab"
	KeyBusy      Key = "busy"
	KeySaleOpen  Key = "saleOpen"
	KeySaleItems Key = "saleItems"
	KeyRestock   Key = "restock"

	// KeyAll subscribes to every change (the catch-all channel).
	KeyAll Key = "*"
)

// Source tags where a change came from, so subscribers can distinguish
// session churn from data refreshes.
type Source string

// Change sources.
const (
	SourceSystem Source = "sys"
	SourceData   Source = "data"
	SourceCache  Source = "cache"
	SourceReset  Source = "reset"
)

// ChangeMeta travels with every notification.
type ChangeMeta struct {
	Source Source
}

// Change is one notification. Previous and Next are full record snapshots;
// Key names the field that changed (KeyAll for the per-batch catch-all).
type Change struct {
	Key      Key
	Previous Record
	Next     Record
	Meta     ChangeMeta
}

// emitter is the typed publish/subscribe fan-out behind the store.
type emitter struct {
	log logrus.FieldLogger

	mu        sync.Mutex
	listeners map[Key]map[int]func(Change)
	nextID    int
}

func newEmitter(log logrus.FieldLogger) *emitter {
	return &emitter{
		log:       log,
		listeners: make(map[Key]map[int]func(Change)),
	}
}

// on registers a listener and returns its unsubscribe function.
func (e *emitter) on(key Key, fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	set, ok := e.listeners[key]
	if !ok {
		set = make(map[int]func(Change))
		e.listeners[key] = set
	}

	id := e.nextID
	e.nextID++
	set[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		if set, ok := e.listeners[key]; ok {
			delete(set, id)

			if len(set) == 0 {
				delete(e.listeners, key)
			}
		}
	}
}

// emit delivers a change to all listeners for its key, synchronously and in
// registration order. A panicking subscriber is recovered and logged so its
// siblings still run.
func (e *emitter) emit(change Change) {
	e.mu.Lock()

	set := e.listeners[change.Key]
	ids := make([]int, 0, len(set))

	for id := range set {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	// Snapshot so a listener unsubscribing mid-batch cannot mutate the
	// iteration, then release the lock before calling out.
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, set[id])
	}

	e.mu.Unlock()

	for _, fn := range fns {
		e.call(fn, change)
	}
}

func (e *emitter) call(fn func(Change), change Change) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithFields(logrus.Fields{
				"key":   change.Key,
				"panic": r,
			}).Warn("Store listener panicked")
		}
	}()

	fn(change)
}
