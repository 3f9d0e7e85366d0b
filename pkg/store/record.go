package store

import (
	"time"

	"github.com/catalinamedinaleal/store/pkg/identity"
)

// Product is one catalog entry.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	SKU      string `json:"sku,omitempty"`
	PriceCOP int    `json:"price_cop"`
	CostCOP  int    `json:"cost_cop,omitempty"`
	Active   bool   `json:"active"`
}

// InventoryRow is the stock level for one product.
type InventoryRow struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name,omitempty"`
	Qty          int    `json:"qty"`
	UnitPriceCOP int    `json:"unit_price"`
}

// Sale is a posted sale or pending order.
type Sale struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Customer  string     `json:"customer,omitempty"`
	TotalCOP  int        `json:"total_cop"`
	CreatedAt string     `json:"created_at,omitempty"`
	Items     []SaleItem `json:"items,omitempty"`
}

// Order is a pending order row as listed server-side.
type Order struct {
	ID        string `json:"id"`
	Customer  string `json:"customer,omitempty"`
	TotalCOP  int    `json:"total_cop"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Dashboard holds the summary figures shown on the dashboard tab.
type Dashboard struct {
	TotalProducts int    `json:"total_products"`
	LowStock      int    `json:"low_stock"`
	SalesToday    int    `json:"sales_today"`
	RevenueCOP    int    `json:"revenue_cop"`
	GeneratedAt   string `json:"generated_at,omitempty"`
}

// RestockItem is one line of the provisional restock cart, keyed by product id.
type RestockItem struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Brand   string `json:"brand,omitempty"`
	SKU     string `json:"sku,omitempty"`
	Qty     int    `json:"qty"`
	CostCOP int    `json:"cost_cop"`
}

// RestockCart is the provisional restock order being assembled.
type RestockCart struct {
	Supplier string        `json:"supplier,omitempty"`
	Notes    string        `json:"notes,omitempty"`
	Items    []RestockItem `json:"items"`
}

// Record is the single aggregate holding all application data. It is always
// complete: patches merge into it and never leave fields behind.
type Record struct {
	// Identity. Never persisted.
	User    *identity.User
	IDToken string

	// Business data. Persisted with a TTL.
	Products  []Product
	Inventory []InventoryRow
	Sales     []Sale
	Orders    []Order
	Dashboard *Dashboard
	LastSync  string

	// UI session. Ephemeral.
	Tab       string
	Busy      bool
	SaleOpen  bool
	SaleItems []SaleItem

	// Restock cart. Persisted.
	Restock RestockCart

	// BootedAt is set at construction and on every reset.
	BootedAt time.Time
}

// defaultRecord returns a fresh Record with default values.
func defaultRecord(now time.Time) Record {
	return Record{
		Products:  []Product{},
		Inventory: []InventoryRow{},
		Sales:     []Sale{},
		Orders:    []Order{},
		Tab:       "catalog",
		SaleItems: []SaleItem{},
		Restock:   RestockCart{Items: []RestockItem{}},
		BootedAt:  now,
	}
}

// Patch is a partial Record. Nil fields are left untouched; the *Set flags
// exist for the nil-able fields so they can be cleared explicitly.
type Patch struct {
	User    *identity.User
	UserSet bool

	IDToken *string

	Products  *[]Product
	Inventory *[]InventoryRow
	Sales     *[]Sale
	Orders    *[]Order

	Dashboard    *Dashboard
	DashboardSet bool

	LastSync *string

	Tab       *string
	Busy      *bool
	SaleOpen  *bool
	SaleItems *[]SaleItem

	Restock *RestockCart
}

// apply merges the patch into a copy of the record and reports which keys
// changed. Collection-valued fields count as changed whenever they are
// present in the patch: the new value is a new reference by construction.
func (p Patch) apply(r Record) (Record, []Key) {
	next := r
	changed := make([]Key, 0, 4)

	if p.UserSet && next.User != p.User {
		next.User = p.User
		changed = append(changed, KeyUser)
	}

	if p.IDToken != nil && next.IDToken != *p.IDToken {
		next.IDToken = *p.IDToken
		changed = append(changed, KeyIDToken)
	}

	if p.Products != nil {
		next.Products = *p.Products
		changed = append(changed, KeyProducts)
	}

	if p.Inventory != nil {
		next.Inventory = *p.Inventory
		changed = append(changed, KeyInventory)
	}

	if p.Sales != nil {
		next.Sales = *p.Sales
		changed = append(changed, KeySales)
	}

	if p.Orders != nil {
		next.Orders = *p.Orders
		changed = append(changed, KeyOrders)
	}

	if p.DashboardSet {
		next.Dashboard = p.Dashboard
		changed = append(changed, KeyDashboard)
	}

	if p.LastSync != nil && next.LastSync != *p.LastSync {
		next.LastSync = *p.LastSync
		changed = append(changed, KeyLastSync)
	}

	if p.Tab != nil && next.Tab != *p.Tab {
		next.Tab = *p.Tab
		changed = append(changed, KeyTab)
	}

	if p.Busy != nil && next.Busy != *p.Busy {
		next.Busy = *p.Busy
		changed = append(changed, KeyBusy)
	}

	if p.SaleOpen != nil && next.SaleOpen != *p.SaleOpen {
		next.SaleOpen = *p.SaleOpen
		changed = append(changed, KeySaleOpen)
	}

	if p.SaleItems != nil {
		next.SaleItems = *p.SaleItems
		changed = append(changed, KeySaleItems)
	}

	if p.Restock != nil {
		next.Restock = *p.Restock
		changed = append(changed, KeyRestock)
	}

	return next, changed
}

// touchesPersisted reports whether any changed key belongs to the
// durability whitelist.
func touchesPersisted(changed []Key) bool {
	for _, k := range changed {
		switch k {
		case KeyProducts, KeyInventory, KeySales, KeyOrders, KeyDashboard, KeyLastSync, KeyRestock:
			return true
		}
	}

	return false
}

// clampNonNegative coerces a numeric field entering the record.
func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}

	return v
}
