package store

// RestockTotals summarizes the restock cart.
type RestockTotals struct {
	ItemCount  int
	TotalUnits int
	TotalCost  int
}

// RestockAddProduct adds a product to the restock cart. Adding an id already
// in the cart increments its quantity; non-empty name/brand/sku and a
// positive cost overwrite the stored line, but blanks never zero out
// existing values.
func (s *Store) RestockAddProduct(p Product, qty int) {
	qty = clampNonNegative(qty)

	s.mutateRestock(func(cart *RestockCart) {
		for i := range cart.Items {
			if cart.Items[i].ID != p.ID {
				continue
			}

			cart.Items[i].Qty += qty

			if p.Name != "" {
				cart.Items[i].Name = p.Name
			}

			if p.Brand != "" {
				cart.Items[i].Brand = p.Brand
			}

			if p.SKU != "" {
				cart.Items[i].SKU = p.SKU
			}

			if p.CostCOP > 0 {
				cart.Items[i].CostCOP = p.CostCOP
			}

			return
		}

		cart.Items = append(cart.Items, RestockItem{
			ID:      p.ID,
			Name:    p.Name,
			Brand:   p.Brand,
			SKU:     p.SKU,
			Qty:     qty,
			CostCOP: clampNonNegative(p.CostCOP),
		})
	})
}

// RestockSetQty sets the quantity of a cart line. Zero keeps the line in
// the cart; RestockRemove is the only way to delete it.
func (s *Store) RestockSetQty(id string, qty int) {
	qty = clampNonNegative(qty)

	s.mutateRestock(func(cart *RestockCart) {
		for i := range cart.Items {
			if cart.Items[i].ID == id {
				cart.Items[i].Qty = qty

				return
			}
		}
	})
}

// RestockSetCost sets the unit cost of a cart line.
func (s *Store) RestockSetCost(id string, cost int) {
	cost = clampNonNegative(cost)

	s.mutateRestock(func(cart *RestockCart) {
		for i := range cart.Items {
			if cart.Items[i].ID == id {
				cart.Items[i].CostCOP = cost

				return
			}
		}
	})
}

// RestockRemove deletes a cart line.
func (s *Store) RestockRemove(id string) {
	s.mutateRestock(func(cart *RestockCart) {
		for i := range cart.Items {
			if cart.Items[i].ID == id {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)

				return
			}
		}
	})
}

// RestockClear empties the cart. With keepMeta the supplier and notes
// survive; otherwise the whole cart resets.
func (s *Store) RestockClear(keepMeta bool) {
	s.mutateRestock(func(cart *RestockCart) {
		cart.Items = []RestockItem{}

		if !keepMeta {
			cart.Supplier = ""
			cart.Notes = ""
		}
	})
}

// RestockSetSupplier sets the supplier on the cart.
func (s *Store) RestockSetSupplier(supplier string) {
	s.mutateRestock(func(cart *RestockCart) {
		cart.Supplier = supplier
	})
}

// RestockSetNotes sets the free-form notes on the cart.
func (s *Store) RestockSetNotes(notes string) {
	s.mutateRestock(func(cart *RestockCart) {
		cart.Notes = notes
	})
}

// RestockTotals sums the cart. Inputs were clamped on the way in, so the
// totals are never negative.
func (s *Store) RestockTotals() RestockTotals {
	record := s.Get()

	totals := RestockTotals{ItemCount: len(record.Restock.Items)}

	for _, item := range record.Restock.Items {
		qty := clampNonNegative(item.Qty)
		totals.TotalUnits += qty
		totals.TotalCost += qty * clampNonNegative(item.CostCOP)
	}

	return totals
}

// mutateRestock applies fn to a deep copy of the cart and commits it as a
// single patch.
func (s *Store) mutateRestock(fn func(cart *RestockCart)) {
	s.mu.Lock()

	cart := s.record.Restock
	cart.Items = make([]RestockItem, len(s.record.Restock.Items))
	copy(cart.Items, s.record.Restock.Items)

	s.mu.Unlock()

	fn(&cart)

	s.Set(Patch{Restock: &cart}, ChangeMeta{Source: SourceSystem})
}
