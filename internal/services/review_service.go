package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"neurocart/internal/domain"
	"neurocart/internal/repos"
)

type ReviewService struct {
	Reviews *repos.ReviewRepo
	Prods   *repos.ProductRepo
	// Catalog drops the cached product list, whose ratings a new review changes.
	Catalog *CatalogService
	Now     Clock
}

func NewReviewService(reviews *repos.ReviewRepo, prods *repos.ProductRepo, catalog *CatalogService) *ReviewService {
	return &ReviewService{Reviews: reviews, Prods: prods, Catalog: catalog, Now: time.Now}
}

type ReviewInput struct {
	Rate    int    `json:"rate" validate:"required"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (s *ReviewService) Create(ctx context.Context, userID, productID string, in ReviewInput) (domain.Review, error) {
	if in.Rate < 1 || in.Rate > 5 {
		return domain.Review{}, domain.ErrBadRating
	}
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return domain.Review{}, err
	}
	rv := domain.Review{
		ID: uuid.NewString(), ProductID: productID, UserID: userID,
		Rate: in.Rate, Comment: in.Comment, CreatedAt: s.Now().UTC(),
	}
	if err := s.Reviews.Create(ctx, rv); err != nil {
		return domain.Review{}, err
	}
	if s.Catalog != nil {
		s.Catalog.Invalidate(ctx)
	}
	return rv, nil
}

func (s *ReviewService) List(ctx context.Context, productID string) ([]domain.Review, error) {
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.Reviews.ListByProduct(ctx, productID)
}
