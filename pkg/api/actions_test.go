package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionShortcuts(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, newStubProvider("tok_1"))
	ctx := context.Background()

	tests := []struct {
		name    string
		call    func() (*Result, error)
		action  string
		payload map[string]any
	}{
		{
			name:   "ping",
			call:   func() (*Result, error) { return client.Ping(ctx) },
			action: "ping",
		},
		{
			name:    "list products with query",
			call:    func() (*Result, error) { return client.ListProducts(ctx, "shampoo") },
			action:  "products.list",
			payload: map[string]any{"q": "shampoo"},
		},
		{
			name:    "upsert product",
			call:    func() (*Result, error) { return client.UpsertProduct(ctx, map[string]any{"id": "p1"}) },
			action:  "products.upsert",
			payload: map[string]any{"product": map[string]any{"id": "p1"}},
		},
		{
			name:    "set product active",
			call:    func() (*Result, error) { return client.SetProductActive(ctx, "p1", false) },
			action:  "products.setActive",
			payload: map[string]any{"id": "p1", "active": false},
		},
		{
			name:   "list inventory",
			call:   func() (*Result, error) { return client.ListInventory(ctx) },
			action: "inventory.list",
		},
		{
			name:    "adjust stock",
			call:    func() (*Result, error) { return client.AdjustStock(ctx, map[string]any{"id": "p1", "delta": -2}) },
			action:  "inventory.adjust",
			payload: map[string]any{"id": "p1", "delta": float64(-2)},
		},
		{
			name:    "create sale",
			call:    func() (*Result, error) { return client.CreateSale(ctx, map[string]any{"customer": "Ana"}) },
			action:  "sale.create",
			payload: map[string]any{"customer": "Ana"},
		},
		{
			name:    "get sale",
			call:    func() (*Result, error) { return client.GetSale(ctx, "s1") },
			action:  "sale.get",
			payload: map[string]any{"id": "s1"},
		},
		{
			name:    "update sale status",
			call:    func() (*Result, error) { return client.UpdateSaleStatus(ctx, "s1", "paid") },
			action:  "sale.updateStatus",
			payload: map[string]any{"id": "s1", "status": "paid"},
		},
		{
			name:    "list sales",
			call:    func() (*Result, error) { return client.ListSales(ctx, "pending", true, 20) },
			action:  "sales.list",
			payload: map[string]any{"status": "pending", "include_items": true, "limit": float64(20)},
		},
		{
			name:    "list moves",
			call:    func() (*Result, error) { return client.ListMoves(ctx, 10) },
			action:  "moves.list",
			payload: map[string]any{"limit": float64(10)},
		},
		{
			name:   "dashboard",
			call:   func() (*Result, error) { return client.Dashboard(ctx) },
			action: "dashboard.summary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotBody = nil

			res, err := tt.call()
			require.NoError(t, err)
			assert.True(t, res.OK)

			assert.Equal(t, tt.action, gotBody["action"])

			for key, want := range tt.payload {
				assert.Equal(t, want, gotBody[key], "payload field %q", key)
			}
		})
	}
}
