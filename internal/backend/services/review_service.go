package services

import (
	"strconv"
	"strings"

	"easybake/internal/backend/repos"
	"easybake/internal/domain"
	"easybake/internal/validate"
)

const reviewsPerPage = 10

type ReviewService struct {
	Reviews  *repos.ReviewRepo
	Products *repos.ProductRepo
	Orders   *repos.OrderRepo
}

func NewReviewService(reviews *repos.ReviewRepo, products *repos.ProductRepo, orders *repos.OrderRepo) *ReviewService {
	return &ReviewService{Reviews: reviews, Products: products, Orders: orders}
}

func (s *ReviewService) List(productID int64, page int) (domain.Page[domain.Review], error) {
	if _, err := s.Products.Get(productID, domain.LocaleEN); err != nil {
		return domain.Page[domain.Review]{}, mapRepo(err)
	}
	p := NewPaging(page, reviewsPerPage, reviewsPerPage, reviewsPerPage)
	items, total, err := s.Reviews.List(productID, p.PerPage, p.Offset())
	if err != nil {
		return domain.Page[domain.Review]{}, err
	}
	return paginate(items, total, p, "/api/products/"+strconv.FormatInt(productID, 10)+"/reviews"), nil
}

// Create stores a review. Guests must give a name; signed-in users may
// review a product once and are marked verified when they received it.
func (s *ReviewService) Create(user *domain.User, productID int64, in domain.NewReview) (domain.Review, error) {
	if _, err := s.Products.Get(productID, domain.LocaleEN); err != nil {
		return domain.Review{}, mapRepo(err)
	}
	errs := validate.Review(&in)
	rv := domain.Review{ProductID: productID, Rating: in.Rating, Title: strings.TrimSpace(in.Title), Comment: in.Comment}
	if user == nil {
		name, ok := validate.Name(in.AuthorName)
		if !ok {
			errs.Add("author_name", "Please enter your name.")
		}
		rv.AuthorName = name
	}
	if err := invalid(errs); err != nil {
		return domain.Review{}, err
	}
	if user != nil {
		done, err := s.Reviews.HasReviewed(user.ID, productID)
		if err != nil {
			return domain.Review{}, err
		}
		if done {
			return domain.Review{}, refused("You have already reviewed this product.")
		}
		verified, err := s.Orders.HasDelivered(user.ID, productID)
		if err != nil {
			return domain.Review{}, err
		}
		uid := user.ID
		rv.UserID, rv.AuthorName, rv.IsVerifiedPurchase = &uid, user.Name, verified
	}
	return s.Reviews.Create(rv)
}

// Delete removes the user's own review.
func (s *ReviewService) Delete(userID, reviewID int64) error {
	rv, err := s.Reviews.Get(reviewID)
	if err != nil {
		return mapRepo(err)
	}
	if rv.UserID == nil || *rv.UserID != userID {
		return ErrForbidden
	}
	return s.Reviews.Delete(reviewID, rv.ProductID)
}

// Helpful records one vote per voter.
func (s *ReviewService) Helpful(reviewID int64, voter string) (domain.Review, error) {
	rv, err := s.Reviews.Vote(reviewID, voter)
	return rv, mapRepo(err)
}
