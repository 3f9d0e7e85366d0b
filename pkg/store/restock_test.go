package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestockAddIncrementsExistingLine(t *testing.T) {
	st := newTestStore()

	p := Product{ID: "p1", Name: "Shampoo", Brand: "Acme", SKU: "SH-1", CostCOP: 9000}

	st.RestockAddProduct(p, 2)
	st.RestockAddProduct(p, 3)

	items := st.Get().Restock.Items
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Qty)
	assert.Equal(t, 9000, items[0].CostCOP)
}

func TestRestockAddBlanksDoNotOverwrite(t *testing.T) {
	st := newTestStore()

	st.RestockAddProduct(Product{ID: "p1", Name: "Shampoo", Brand: "Acme", SKU: "SH-1", CostCOP: 9000}, 1)
	st.RestockAddProduct(Product{ID: "p1"}, 1)

	items := st.Get().Restock.Items
	require.Len(t, items, 1)
	assert.Equal(t, "Shampoo", items[0].Name)
	assert.Equal(t, "Acme", items[0].Brand)
	assert.Equal(t, "SH-1", items[0].SKU)
	assert.Equal(t, 9000, items[0].CostCOP)
	assert.Equal(t, 2, items[0].Qty)
}

func TestRestockAddRefreshesDetails(t *testing.T) {
	st := newTestStore()

	st.RestockAddProduct(Product{ID: "p1", Name: "Shampoo", CostCOP: 9000}, 1)
	st.RestockAddProduct(Product{ID: "p1", Name: "Shampoo XL", CostCOP: 9500}, 1)

	items := st.Get().Restock.Items
	require.Len(t, items, 1)
	assert.Equal(t, "Shampoo XL", items[0].Name)
	assert.Equal(t, 9500, items[0].CostCOP)
}

func TestRestockSetQtyZeroKeepsLine(t *testing.T) {
	st := newTestStore()

	st.RestockAddProduct(Product{ID: "p1", Name: "Shampoo"}, 4)
	st.RestockSetQty("p1", 0)

	items := st.Get().Restock.Items
	require.Len(t, items, 1)
	assert.Zero(t, items[0].Qty)
}

func TestRestockSetQtyClampsNegative(t *testing.T) {
	st := newTestStore()

	st.RestockAddProduct(Product{ID: "p1"}, 4)
	st.RestockSetQty("p1", -2)

	assert.Zero(t, st.Get().Restock.Items[0].Qty)
}

func TestRestockRemove(t *testing.T) {
	st := newTestStore()

	st.RestockAddProduct(Product{ID: "p1"}, 1)
	st.RestockAddProduct(Product{ID: "p2"}, 1)

	st.RestockRemove("p1")

	items := st.Get().Restock.Items
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ID)
}

func TestRestockRemoveUnknownIDIsNoop(t *testing.T) {
	st := newTestStore()

	st.RestockAddProduct(Product{ID: "p1"}, 1)
	st.RestockRemove("missing")

	assert.Len(t, st.Get().Restock.Items, 1)
}

func TestRestockClearKeepMeta(t *testing.T) {
	st := newTestStore()

	st.RestockSetSupplier("Distribuidora Sur")
	st.RestockSetNotes("urgent")
	st.RestockAddProduct(Product{ID: "p1"}, 3)

	st.RestockClear(true)

	cart := st.Get().Restock
	assert.Empty(t, cart.Items)
	assert.Equal(t, "Distribuidora Sur", cart.Supplier)
	assert.Equal(t, "urgent", cart.Notes)

	st.RestockClear(false)

	cart = st.Get().Restock
	assert.Empty(t, cart.Supplier)
	assert.Empty(t, cart.Notes)
}

func TestRestockTotals(t *testing.T) {
	st := newTestStore()

	st.RestockAddProduct(Product{ID: "p1", CostCOP: 9000}, 2)
	st.RestockAddProduct(Product{ID: "p2", CostCOP: 4000}, 3)

	totals := st.RestockTotals()
	assert.Equal(t, 2, totals.ItemCount)
	assert.Equal(t, 5, totals.TotalUnits)
	assert.Equal(t, 30000, totals.TotalCost)
}

func TestRestockMutationsNotifyRestockKey(t *testing.T) {
	st := newTestStore()

	var fired int

	st.On(KeyRestock, func(c Change) {
		fired++

		assert.Equal(t, SourceSystem, c.Meta.Source)
	})

	st.RestockAddProduct(Product{ID: "p1"}, 1)
	st.RestockSetQty("p1", 2)
	st.RestockRemove("p1")

	assert.Equal(t, 3, fired)
}
