package mutations

import (
	"context"

	"easybake/internal/domain"
	"easybake/internal/queries"
	"easybake/internal/validate"
)

func (m *Mutations) CreateReview(ctx context.Context, productID int64, in domain.NewReview) (domain.Review, error) {
	if err := m.invalid(ctx, "review.create", validate.Review(&in)); err != nil {
		return domain.Review{}, err
	}
	r, err := call(ctx, m, "review.create", func(ctx context.Context) (domain.Review, error) {
		return m.api.CreateReview(ctx, productID, in)
	}, queries.ProductReviewsKey(productID))
	if err == nil {
		m.success("Thank you for your review.")
	}
	return r, err
}

func (m *Mutations) DeleteReview(ctx context.Context, productID, reviewID int64) error {
	_, err := call(ctx, m, "review.delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.api.DeleteReview(ctx, reviewID)
	}, queries.ProductReviewsKey(productID))
	return err
}

func (m *Mutations) MarkReviewHelpful(ctx context.Context, productID, reviewID int64) (domain.Review, error) {
	return call(ctx, m, "review.helpful", func(ctx context.Context) (domain.Review, error) {
		return m.api.MarkReviewHelpful(ctx, reviewID)
	}, queries.ProductReviewsKey(productID))
}
