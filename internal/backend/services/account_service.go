package services

import (
	"easybake/internal/backend/repos"
	"easybake/internal/domain"
	"easybake/internal/validate"
)

type AccountService struct {
	Addrs *repos.AddressRepo
	Wish  *repos.WishlistRepo
	Prods *repos.ProductRepo
}

func NewAccountService(addresses *repos.AddressRepo, wishlist *repos.WishlistRepo, products *repos.ProductRepo) *AccountService {
	return &AccountService{Addrs: addresses, Wish: wishlist, Prods: products}
}

func (s *AccountService) Addresses(userID int64) ([]domain.Address, error) {
	return s.Addrs.List(userID)
}

func (s *AccountService) CreateAddress(userID int64, in domain.AddressInput) (domain.Address, error) {
	if err := invalid(validate.Address(&in)); err != nil {
		return domain.Address{}, err
	}
	return s.Addrs.Create(userID, in)
}

func (s *AccountService) SetDefaultAddress(userID, id int64) (domain.Address, error) {
	a, err := s.Addrs.SetDefault(userID, id)
	return a, mapRepo(err)
}

func (s *AccountService) DeleteAddress(userID, id int64) error {
	return mapRepo(s.Addrs.Delete(userID, id))
}

func (s *AccountService) Wishlist(userID int64, locale string) ([]domain.WishlistItem, error) {
	return s.Wish.List(userID, locale)
}

func (s *AccountService) ToggleWishlist(userID, productID int64) (domain.WishlistToggle, error) {
	if _, err := s.Prods.Get(productID, domain.LocaleEN); err != nil {
		return domain.WishlistToggle{}, mapRepo(err)
	}
	in, err := s.Wish.Toggle(userID, productID)
	if err != nil {
		return domain.WishlistToggle{}, err
	}
	return domain.WishlistToggle{ProductID: productID, InWishlist: in}, nil
}
