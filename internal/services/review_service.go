package services

import (
	"errors"
	"log"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
	"github.com/PrabuPro/restaurant-web-app/internal/repositories"
	"github.com/PrabuPro/restaurant-web-app/pkg/rabbitmq"
)

// ReviewService handles business logic related to reviews.
type ReviewService struct {
	reviewRepo repositories.ReviewRepository
	storeRepo  repositories.StoreRepository
	mqClient   *rabbitmq.Client // may be nil, events are then skipped
}

// NewReviewService creates a new ReviewService.
func NewReviewService(reviewRepo repositories.ReviewRepository, storeRepo repositories.StoreRepository, mqClient *rabbitmq.Client) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		storeRepo:  storeRepo,
		mqClient:   mqClient,
	}
}

// Add attaches a review to the store on behalf of the authenticated user.
// The author always comes from the session, never from the submitted form.
func (s *ReviewService) Add(storeID, authorID string, rating int, text string) (*models.Review, error) {
	if _, err := s.storeRepo.GetByID(storeID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	review := &models.Review{
		StoreID:  storeID,
		AuthorID: authorID,
		Rating:   rating,
		Text:     text,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}

	if s.mqClient != nil {
		err := s.mqClient.PublishEvent("review.created", map[string]interface{}{
			"review_id": review.ID,
			"store_id":  review.StoreID,
			"author":    review.AuthorID,
			"rating":    review.Rating,
		})
		if err != nil {
			log.Printf("Warning: failed to publish review created event for review %s: %v", review.ID, err)
		}
	}
	return review, nil
}

// ListByStore returns the reviews attached to a store.
func (s *ReviewService) ListByStore(storeID string) ([]models.Review, error) {
	return s.reviewRepo.ListByStore(storeID)
}
