package repositories

import "github.com/PrabuPro/restaurant-web-app/internal/models"

// TagCount pairs a tag name with the number of stores carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// RankedStore is a store together with its aggregate review score.
type RankedStore struct {
	models.Store
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// StoreRepository defines the interface for store data access.
type StoreRepository interface {
	// Create persists the store, deriving a unique slug from its name.
	Create(store *models.Store) error
	GetByID(id string) (*models.Store, error)
	// GetBySlug loads the store with its author, tags and reviews (review
	// authors included) for the detail page.
	GetBySlug(slug string) (*models.Store, error)
	// Update applies the store's fields and tag set and returns the
	// post-update record. The slug is not re-derived.
	Update(store *models.Store) (*models.Store, error)

	List(offset, limit int) ([]models.Store, error)
	Count() (int64, error)
	All() ([]models.Store, error)

	ByTag(tag string) ([]models.Store, error)
	AnyTagged() ([]models.Store, error)
	TagCounts() ([]TagCount, error)

	ByIDs(ids []string) ([]models.Store, error)
	// WithinBounds returns stores inside a lng/lat bounding box; callers
	// apply exact distance filtering.
	WithinBounds(minLng, maxLng, minLat, maxLat float64) ([]models.Store, error)
	// Top ranks stores with at least minReviews reviews by average rating.
	Top(minReviews, limit int) ([]RankedStore, error)
}
