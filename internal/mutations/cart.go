package mutations

import (
	"context"
	"sync/atomic"

	"easybake/internal/cache"
	"easybake/internal/domain"
	"easybake/internal/pricing"
	"easybake/internal/queries"
	"easybake/internal/validate"
)

var tempSeq atomic.Int64

// tempID returns a placeholder id for an optimistic cart line. Placeholders
// are negative so they never collide with server ids or with each other.
func tempID() int64 { return -tempSeq.Add(1) }

// reprice recomputes line totals and cart totals from the price snapshots.
func (m *Mutations) reprice(c *domain.Cart) {
	c.ItemsCount = 0
	for i := range c.Items {
		c.Items[i].LineTotal = pricing.LineTotal(c.Items[i].PriceSnapshot, c.Items[i].Quantity)
		c.ItemsCount += c.Items[i].Quantity
	}
	s := pricing.Calculate(pricing.CartLines(c.Items), pricing.WithVATRate(m.vatRate))
	c.Subtotal, c.VAT, c.Total = s.Subtotal, s.VAT, s.Total
}

// optimisticCart patches the cached cart with fn and runs the network call.
// The server cart replaces the optimistic one on success; the snapshot comes
// back on failure.
func (m *Mutations) optimisticCart(ctx context.Context, name string, patch func(*domain.Cart) bool, fn func(context.Context) (domain.Cart, error)) (domain.Cart, error) {
	op := cache.Apply(m.store, queries.CartKey, func(cur domain.Cart, ok bool) (domain.Cart, bool) {
		if !ok {
			return cur, false
		}
		next := cur.Clone()
		if !patch(&next) {
			return cur, false
		}
		m.reprice(&next)
		return next, true
	})

	c, err := fn(ctx)
	if err != nil {
		op.Rollback()
	} else {
		op.Commit(c)
	}
	m.store.Invalidate(queries.CartKey)
	if err != nil {
		m.fail(ctx, name, err)
	}
	return c, err
}

// AddToCart adds qty of a product. p is the product being added, when known;
// it lets a new line show up before the server answers.
func (m *Mutations) AddToCart(ctx context.Context, in domain.AddCartItem, p *domain.Product) (domain.Cart, error) {
	if in.Quantity < 1 || in.Quantity > validate.MaxQty {
		errs := validate.Errors{}
		errs.Add("quantity", "Quantity must be between 1 and 99.")
		return domain.Cart{}, m.invalid(ctx, "cart.add", errs)
	}
	patch := func(c *domain.Cart) bool {
		for i := range c.Items {
			if c.Items[i].SameLine(in.ProductID, in.VariantID) {
				c.Items[i].Quantity = min(c.Items[i].Quantity+in.Quantity, validate.MaxQty)
				return true
			}
		}
		if p == nil {
			return false
		}
		line := domain.CartItem{
			ID:            tempID(),
			ProductID:     in.ProductID,
			VariantID:     in.VariantID,
			Quantity:      in.Quantity,
			PriceSnapshot: p.Price,
			Product:       p,
		}
		if in.VariantID != nil {
			v, ok := p.Variant(*in.VariantID)
			if !ok {
				return false
			}
			line.PriceSnapshot = v.Price
			line.Variant = &v
		}
		c.Items = append(c.Items, line)
		return true
	}
	c, err := m.optimisticCart(ctx, "cart.add", patch, func(ctx context.Context) (domain.Cart, error) {
		return m.api.AddCartItem(ctx, in)
	})
	if err == nil && m.onCartAdded != nil {
		m.onCartAdded()
	}
	return c, err
}

func (m *Mutations) UpdateCartItem(ctx context.Context, itemID int64, qty int) (domain.Cart, error) {
	if itemID < 0 {
		return domain.Cart{}, ErrPendingLine
	}
	if qty < 1 || qty > validate.MaxQty {
		errs := validate.Errors{}
		errs.Add("quantity", "Quantity must be between 1 and 99.")
		return domain.Cart{}, m.invalid(ctx, "cart.update", errs)
	}
	patch := func(c *domain.Cart) bool {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items[i].Quantity = qty
				return true
			}
		}
		return false
	}
	return m.optimisticCart(ctx, "cart.update", patch, func(ctx context.Context) (domain.Cart, error) {
		return m.api.UpdateCartItem(ctx, itemID, qty)
	})
}

func (m *Mutations) RemoveCartItem(ctx context.Context, itemID int64) (domain.Cart, error) {
	if itemID < 0 {
		return domain.Cart{}, ErrPendingLine
	}
	patch := func(c *domain.Cart) bool {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return true
			}
		}
		return false
	}
	return m.optimisticCart(ctx, "cart.remove", patch, func(ctx context.Context) (domain.Cart, error) {
		return m.api.RemoveCartItem(ctx, itemID)
	})
}

func (m *Mutations) ClearCart(ctx context.Context) error {
	_, err := call(ctx, m, "cart.clear", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.api.ClearCart(ctx)
	}, queries.CartKey)
	return err
}
