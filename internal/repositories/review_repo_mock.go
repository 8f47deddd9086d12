package repositories

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
)

// MockReviewRepository is an in-memory implementation of ReviewRepository.
type MockReviewRepository struct {
	reviews map[string]models.Review
	mu      sync.RWMutex
}

// NewMockReviewRepository creates a new instance of MockReviewRepository.
func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{
		reviews: make(map[string]models.Review),
	}
}

// Create adds a new review.
func (r *MockReviewRepository) Create(review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	r.reviews[review.ID] = *review
	return nil
}

// ListByStore returns the reviews attached to a store.
func (r *MockReviewRepository) ListByStore(storeID string) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Review
	for _, rev := range r.reviews {
		if rev.StoreID == storeID {
			matched = append(matched, rev)
		}
	}
	return matched, nil
}
