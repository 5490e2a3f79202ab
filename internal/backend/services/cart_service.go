package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"easybake/internal/backend/repos"
	"easybake/internal/domain"
	"easybake/internal/pricing"
	"easybake/internal/validate"
)

type CartService struct {
	Carts    *repos.CartRepo
	Products *repos.ProductRepo
	VAT      decimal.Decimal
}

func NewCartService(carts *repos.CartRepo, products *repos.ProductRepo, vat decimal.Decimal) *CartService {
	return &CartService{Carts: carts, Products: products, VAT: vat}
}

// View returns the owner's cart. Owners without a cart get an empty one.
func (s *CartService) View(o repos.Owner, locale string) (domain.Cart, error) {
	id, err := s.Carts.Find(o)
	if err != nil {
		return domain.Cart{}, err
	}
	return s.build(id, locale)
}

func (s *CartService) build(cartID int64, locale string) (domain.Cart, error) {
	cart := domain.Cart{ID: cartID, Items: []domain.CartItem{}}
	if cartID != 0 {
		items, err := s.Carts.Items(cartID, locale)
		if err != nil {
			return domain.Cart{}, err
		}
		cart.Items = items
	}
	for i := range cart.Items {
		it := &cart.Items[i]
		it.LineTotal = pricing.LineTotal(it.PriceSnapshot, it.Quantity)
		cart.ItemsCount += it.Quantity
	}
	sum := pricing.Calculate(pricing.CartLines(cart.Items), pricing.WithVATRate(s.VAT))
	cart.Subtotal, cart.VAT, cart.Total = sum.Subtotal, sum.VAT, sum.Total
	return cart, nil
}

func (s *CartService) stock(productID, variantID int64, locale string) (repos.Stock, error) {
	st, err := s.Products.Stock(productID, variantID, locale)
	switch {
	case errors.Is(err, repos.ErrNotFound):
		return repos.Stock{}, fieldError("product_id", "The selected product is invalid.")
	case errors.Is(err, repos.ErrVariantRequired):
		return repos.Stock{}, fieldError("variant_id", "Please choose an option.")
	case err != nil:
		return repos.Stock{}, err
	}
	if !st.Available || st.Quantity <= 0 {
		return repos.Stock{}, fieldError("product_id", fmt.Sprintf("%s is currently unavailable.", st.Name))
	}
	return st, nil
}

func qtyError() error {
	return fieldError("quantity", fmt.Sprintf("The quantity must be between 1 and %d.", validate.MaxQty))
}

func (s *CartService) Add(o repos.Owner, in domain.AddCartItem, locale string) (domain.Cart, error) {
	if in.Quantity < 1 || in.Quantity > validate.MaxQty {
		return domain.Cart{}, qtyError()
	}
	var vid int64
	if in.VariantID != nil {
		vid = *in.VariantID
	}
	st, err := s.stock(in.ProductID, vid, locale)
	if err != nil {
		return domain.Cart{}, err
	}
	cartID, err := s.Carts.Ensure(o)
	if err != nil {
		return domain.Cart{}, err
	}
	have := 0
	if items, err := s.Carts.Items(cartID, locale); err == nil {
		for _, it := range items {
			if it.SameLine(in.ProductID, in.VariantID) {
				have = it.Quantity
			}
		}
	}
	if have+in.Quantity > st.Quantity {
		return domain.Cart{}, fieldError("quantity", fmt.Sprintf("Only %d left in stock.", st.Quantity))
	}
	if err := s.Carts.AddItem(cartID, in.ProductID, vid, in.Quantity, validate.MaxQty, st.Price); err != nil {
		return domain.Cart{}, err
	}
	return s.build(cartID, locale)
}

func (s *CartService) Update(o repos.Owner, itemID int64, qty int, locale string) (domain.Cart, error) {
	if qty < 1 || qty > validate.MaxQty {
		return domain.Cart{}, qtyError()
	}
	cartID, err := s.Carts.Find(o)
	if err != nil {
		return domain.Cart{}, err
	}
	if cartID == 0 {
		return domain.Cart{}, ErrNotFound
	}
	line, err := s.Carts.Line(cartID, itemID)
	if err != nil {
		return domain.Cart{}, mapRepo(err)
	}
	st, err := s.stock(line.ProductID, line.VariantID, locale)
	if err != nil {
		return domain.Cart{}, err
	}
	if qty > st.Quantity {
		return domain.Cart{}, fieldError("quantity", fmt.Sprintf("Only %d left in stock.", st.Quantity))
	}
	if err := s.Carts.SetQuantity(cartID, itemID, qty); err != nil {
		return domain.Cart{}, mapRepo(err)
	}
	return s.build(cartID, locale)
}

func (s *CartService) Remove(o repos.Owner, itemID int64, locale string) (domain.Cart, error) {
	cartID, err := s.Carts.Find(o)
	if err != nil {
		return domain.Cart{}, err
	}
	if cartID == 0 {
		return domain.Cart{}, ErrNotFound
	}
	if err := s.Carts.RemoveItem(cartID, itemID); err != nil {
		return domain.Cart{}, mapRepo(err)
	}
	return s.build(cartID, locale)
}

func (s *CartService) Clear(o repos.Owner) error {
	cartID, err := s.Carts.Find(o)
	if err != nil || cartID == 0 {
		return err
	}
	return s.Carts.Clear(cartID)
}
