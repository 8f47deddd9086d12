package repositories

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
)

// GORMStoreRepository is a GORM implementation of StoreRepository.
type GORMStoreRepository struct {
	db *gorm.DB
}

// NewGORMStoreRepository creates a new instance of GORMStoreRepository.
func NewGORMStoreRepository(db *gorm.DB) *GORMStoreRepository {
	return &GORMStoreRepository{
		db: db,
	}
}

// Create persists a new store. The slug is derived from the name and
// disambiguated with a numeric suffix when it collides with an existing one
// (cafe-foo, cafe-foo-2, cafe-foo-3, ...).
func (r *GORMStoreRepository) Create(store *models.Store) error {
	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		unique, err := uniqueSlug(tx, slug.Make(store.Name))
		if err != nil {
			return err
		}
		store.Slug = unique

		tags, err := resolveTags(tx, store.Tags)
		if err != nil {
			return err
		}
		store.Tags = tags

		if err := tx.Create(store).Error; err != nil {
			return fmt.Errorf("failed to create store: %w", err)
		}
		return nil
	})
}

// uniqueSlug finds a slug not yet taken by any store, appending -2, -3, ...
// on collision.
func uniqueSlug(tx *gorm.DB, base string) (string, error) {
	var taken []string
	err := tx.Model(&models.Store{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &taken).Error
	if err != nil {
		return "", fmt.Errorf("failed to check slug collisions: %w", err)
	}
	if len(taken) == 0 {
		return base, nil
	}

	highest := 1
	for _, s := range taken {
		if s == base {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(s, base+"-")); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s-%d", base, highest+1), nil
}

// resolveTags maps tag names to persistent Tag rows, creating missing ones.
func resolveTags(tx *gorm.DB, tags []models.Tag) ([]models.Tag, error) {
	resolved := make([]models.Tag, 0, len(tags))
	for _, t := range tags {
		if t.Name == "" {
			continue
		}
		var tag models.Tag
		if err := tx.Where(models.Tag{Name: t.Name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve tag %s: %w", t.Name, err)
		}
		resolved = append(resolved, tag)
	}
	return resolved, nil
}

// GetByID retrieves a single store by its ID.
func (r *GORMStoreRepository) GetByID(id string) (*models.Store, error) {
	var store models.Store
	if err := r.db.Preload("Tags").First(&store, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store by ID %s: %w", id, err)
	}
	return &store, nil
}

// GetBySlug retrieves a store by its slug with author and reviews populated.
func (r *GORMStoreRepository) GetBySlug(storeSlug string) (*models.Store, error) {
	var store models.Store
	err := r.db.
		Preload("Author").
		Preload("Tags").
		Preload("Reviews").
		Preload("Reviews.Author").
		First(&store, "slug = ?", storeSlug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("store with slug %s: %w", storeSlug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get store by slug %s: %w", storeSlug, err)
	}
	return &store, nil
}

// Update applies the store's editable fields and tag set inside a
// transaction and returns the post-update record. The photo is only
// replaced when a new filename is set; the slug never changes on update.
func (r *GORMStoreRepository) Update(store *models.Store) (*models.Store, error) {
	var updated models.Store
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Store
		if err := tx.First(&existing, "id = ?", store.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("store with ID %s for update: %w", store.ID, ErrNotFound)
			}
			return err
		}

		tags, err := resolveTags(tx, store.Tags)
		if err != nil {
			return err
		}
		if err := tx.Model(&existing).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("failed to replace tags: %w", err)
		}

		updates := map[string]interface{}{
			"name":        store.Name,
			"description": store.Description,
			"lng":         store.Lng,
			"lat":         store.Lat,
		}
		if store.Photo != "" {
			updates["photo"] = store.Photo
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update store %s: %w", store.ID, err)
		}

		return tx.Preload("Tags").First(&updated, "id = ?", store.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// List returns a page of stores, newest first.
func (r *GORMStoreRepository) List(offset, limit int) ([]models.Store, error) {
	var stores []models.Store
	err := r.db.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&stores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	return stores, nil
}

// Count returns the total number of stores.
func (r *GORMStoreRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Store{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count stores: %w", err)
	}
	return count, nil
}

// All returns every store, used to rebuild the search index at startup.
func (r *GORMStoreRepository) All() ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.Preload("Tags").Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to load all stores: %w", err)
	}
	return stores, nil
}

// ByTag returns the stores carrying the exact tag.
func (r *GORMStoreRepository) ByTag(tag string) ([]models.Store, error) {
	var stores []models.Store
	err := r.db.
		Joins("JOIN store_tags ON store_tags.store_id = stores.id").
		Joins("JOIN tags ON tags.id = store_tags.tag_id").
		Where("tags.name = ?", tag).
		Preload("Tags").
		Find(&stores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get stores by tag %s: %w", tag, err)
	}
	return stores, nil
}

// AnyTagged returns the stores that have at least one tag.
func (r *GORMStoreRepository) AnyTagged() ([]models.Store, error) {
	var stores []models.Store
	err := r.db.
		Where("EXISTS (SELECT 1 FROM store_tags WHERE store_tags.store_id = stores.id)").
		Preload("Tags").
		Find(&stores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tagged stores: %w", err)
	}
	return stores, nil
}

// TagCounts returns every tag in use with the number of stores carrying it,
// most used first.
func (r *GORMStoreRepository) TagCounts() ([]TagCount, error) {
	var counts []TagCount
	err := r.db.Table("tags").
		Select("tags.name AS tag, COUNT(store_tags.store_id) AS count").
		Joins("JOIN store_tags ON store_tags.tag_id = tags.id").
		Group("tags.name").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}
	return counts, nil
}

// ByIDs returns the stores whose IDs are in the given set.
func (r *GORMStoreRepository) ByIDs(ids []string) ([]models.Store, error) {
	if len(ids) == 0 {
		return []models.Store{}, nil
	}
	var stores []models.Store
	if err := r.db.Where("id IN ?", ids).Find(&stores).Error; err != nil {
		return nil, fmt.Errorf("failed to get stores by IDs: %w", err)
	}
	return stores, nil
}

// WithinBounds returns stores inside the lng/lat bounding box.
func (r *GORMStoreRepository) WithinBounds(minLng, maxLng, minLat, maxLat float64) ([]models.Store, error) {
	var stores []models.Store
	err := r.db.
		Where("lng BETWEEN ? AND ?", minLng, maxLng).
		Where("lat BETWEEN ? AND ?", minLat, maxLat).
		Find(&stores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get stores within bounds: %w", err)
	}
	return stores, nil
}

// Top ranks stores with at least minReviews reviews by average rating,
// best first.
func (r *GORMStoreRepository) Top(minReviews, limit int) ([]RankedStore, error) {
	var ranked []RankedStore
	err := r.db.Model(&models.Store{}).
		Select("stores.*, AVG(reviews.rating) AS average_rating, COUNT(reviews.id) AS review_count").
		Joins("JOIN reviews ON reviews.store_id = stores.id").
		Group("stores.id").
		Having("COUNT(reviews.id) >= ?", minReviews).
		Order("average_rating DESC").
		Limit(limit).
		Find(&ranked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank top stores: %w", err)
	}
	return ranked, nil
}
