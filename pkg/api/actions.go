package api

import "context"

// Named-action shortcuts so callers never repeat wire strings. Each maps to
// a server-side capability; request and response shapes are the server's
// contract and stay opaque maps here.

// Ping verifies the endpoint is reachable and the session is valid.
func (c *client) Ping(ctx context.Context) (*Result, error) {
	return c.Call(ctx, "ping", nil)
}

// ListProducts returns the catalog, optionally filtered by a query string.
func (c *client) ListProducts(ctx context.Context, query string) (*Result, error) {
	payload := Payload{}
	if query != "" {
		payload["q"] = query
	}

	return c.Call(ctx, "products.list", payload)
}

// UpsertProduct creates or updates a catalog product.
func (c *client) UpsertProduct(ctx context.Context, product map[string]any) (*Result, error) {
	return c.Call(ctx, "products.upsert", Payload{"product": product})
}

// SetProductActive toggles a product's active flag.
func (c *client) SetProductActive(ctx context.Context, id string, active bool) (*Result, error) {
	return c.Call(ctx, "products.setActive", Payload{"id": id, "active": active})
}

// ListInventory returns current stock levels.
func (c *client) ListInventory(ctx context.Context) (*Result, error) {
	return c.Call(ctx, "inventory.list", nil)
}

// AdjustStock applies a manual stock adjustment.
func (c *client) AdjustStock(ctx context.Context, adjustment map[string]any) (*Result, error) {
	return c.Call(ctx, "inventory.adjust", Payload(adjustment))
}

// CreateSale posts a sale or pending order.
func (c *client) CreateSale(ctx context.Context, data map[string]any) (*Result, error) {
	return c.Call(ctx, "sale.create", Payload(data))
}

// GetSale returns one sale with its items.
func (c *client) GetSale(ctx context.Context, id string) (*Result, error) {
	return c.Call(ctx, "sale.get", Payload{"id": id})
}

// UpdateSaleStatus moves a sale between statuses (e.g. pending to paid).
func (c *client) UpdateSaleStatus(ctx context.Context, id, status string) (*Result, error) {
	return c.Call(ctx, "sale.updateStatus", Payload{"id": id, "status": status})
}

// ListSales returns sales filtered by status.
func (c *client) ListSales(ctx context.Context, status string, includeItems bool, limit int) (*Result, error) {
	payload := Payload{"include_items": includeItems}

	if status != "" {
		payload["status"] = status
	}

	if limit > 0 {
		payload["limit"] = limit
	}

	return c.Call(ctx, "sales.list", payload)
}

// ListMoves returns recent inventory movements.
func (c *client) ListMoves(ctx context.Context, limit int) (*Result, error) {
	payload := Payload{}
	if limit > 0 {
		payload["limit"] = limit
	}

	return c.Call(ctx, "moves.list", payload)
}

// Dashboard returns the summary figures for the dashboard.
func (c *client) Dashboard(ctx context.Context) (*Result, error) {
	return c.Call(ctx, "dashboard.summary", nil)
}
