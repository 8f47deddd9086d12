package repositories

import "github.com/PrabuPro/restaurant-web-app/internal/models"

// ReviewRepository defines the interface for review data access. Reviews
// are write-once, so there is no update or delete.
type ReviewRepository interface {
	Create(review *models.Review) error
	ListByStore(storeID string) ([]models.Review, error)
}
