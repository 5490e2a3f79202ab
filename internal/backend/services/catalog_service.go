package services

import (
	"errors"

	"easybake/internal/backend/repos"
	"easybake/internal/domain"
)

type CatalogService struct {
	Prods *repos.ProductRepo
	Cats  *repos.CategoryRepo
}

func NewCatalogService(products *repos.ProductRepo, categories *repos.CategoryRepo) *CatalogService {
	return &CatalogService{Prods: products, Cats: categories}
}

const (
	productsPerPage = 12
	maxPerPage      = 50
	highlightLimit  = 8
)

func (s *CatalogService) List(q domain.ProductQuery, locale string) (domain.Page[domain.Product], error) {
	p := NewPaging(q.Page, q.PerPage, productsPerPage, maxPerPage)
	items, total, err := s.Prods.List(repos.ListQuery{
		CategoryID: q.CategoryID,
		Search:     q.Search,
		Sort:       q.Sort,
		Limit:      p.PerPage,
		Offset:     p.Offset(),
	}, locale)
	if err != nil {
		return domain.Page[domain.Product]{}, err
	}
	return paginate(items, total, p, "/api/products"), nil
}

func (s *CatalogService) Product(id int64, locale string) (domain.Product, error) {
	p, err := s.Prods.Get(id, locale)
	return p, mapRepo(err)
}

func (s *CatalogService) Featured(locale string) ([]domain.Product, error) {
	return s.Prods.Featured(highlightLimit, locale)
}

func (s *CatalogService) Popular(locale string) ([]domain.Product, error) {
	return s.Prods.Popular(highlightLimit, locale)
}

func (s *CatalogService) Categories(locale string) ([]domain.Category, error) {
	return s.Cats.Tree(locale)
}

func (s *CatalogService) Category(idOrSlug, locale string) (domain.Category, error) {
	c, err := s.Cats.Find(idOrSlug, locale)
	return c, mapRepo(err)
}

func mapRepo(err error) error {
	if errors.Is(err, repos.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
