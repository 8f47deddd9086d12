package repositories

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
)

// GORMReviewRepository is a GORM implementation of ReviewRepository.
type GORMReviewRepository struct {
	db *gorm.DB
}

// NewGORMReviewRepository creates a new instance of GORMReviewRepository.
func NewGORMReviewRepository(db *gorm.DB) *GORMReviewRepository {
	return &GORMReviewRepository{
		db: db,
	}
}

// Create creates a new review in the database.
func (r *GORMReviewRepository) Create(review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	if err := r.db.Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// ListByStore returns the reviews for a store, newest first, with authors
// loaded.
func (r *GORMReviewRepository) ListByStore(storeID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.
		Preload("Author").
		Where("store_id = ?", storeID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for store %s: %w", storeID, err)
	}
	return reviews, nil
}
