package repositories

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
)

// MockStoreRepository is an in-memory implementation of StoreRepository.
// It mirrors the GORM implementation's contract (slug disambiguation,
// newest-first listing) so services can be tested without a database.
type MockStoreRepository struct {
	stores map[string]models.Store
	// Ratings holds per-store review ratings for Top; tests populate it
	// directly.
	Ratings map[string][]int
	mu      sync.RWMutex
}

// NewMockStoreRepository creates a new instance of MockStoreRepository.
func NewMockStoreRepository() *MockStoreRepository {
	return &MockStoreRepository{
		stores:  make(map[string]models.Store),
		Ratings: make(map[string][]int),
	}
}

// Create adds a new store, deriving a unique slug from its name.
func (r *MockStoreRepository) Create(store *models.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if store.ID == "" {
		store.ID = uuid.New().String()
	}
	base := slug.Make(store.Name)
	highest := 0
	for _, s := range r.stores {
		if s.Slug == base && highest < 1 {
			highest = 1
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(s.Slug, base+"-")); err == nil && n > highest {
			highest = n
		}
	}
	if highest == 0 {
		store.Slug = base
	} else {
		store.Slug = fmt.Sprintf("%s-%d", base, highest+1)
	}
	if store.CreatedAt.IsZero() {
		store.CreatedAt = time.Now()
	}
	r.stores[store.ID] = *store
	return nil
}

// GetByID returns a store by its ID.
func (r *MockStoreRepository) GetByID(id string) (*models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, ok := r.stores[id]
	if !ok {
		return nil, fmt.Errorf("store with ID %s: %w", id, ErrNotFound)
	}
	return &store, nil
}

// GetBySlug returns a store by its slug.
func (r *MockStoreRepository) GetBySlug(storeSlug string) (*models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stores {
		if s.Slug == storeSlug {
			store := s
			return &store, nil
		}
	}
	return nil, fmt.Errorf("store with slug %s: %w", storeSlug, ErrNotFound)
}

// Update modifies an existing store and returns the updated record. The
// slug is kept, and the photo is only replaced when set.
func (r *MockStoreRepository) Update(store *models.Store) (*models.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.stores[store.ID]
	if !ok {
		return nil, fmt.Errorf("store with ID %s for update: %w", store.ID, ErrNotFound)
	}
	existing.Name = store.Name
	existing.Description = store.Description
	existing.Lng = store.Lng
	existing.Lat = store.Lat
	existing.Tags = store.Tags
	if store.Photo != "" {
		existing.Photo = store.Photo
	}
	r.stores[store.ID] = existing
	updated := existing
	return &updated, nil
}

// List returns a page of stores, newest first.
func (r *MockStoreRepository) List(offset, limit int) ([]models.Store, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []models.Store{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Count returns the total number of stores.
func (r *MockStoreRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.stores)), nil
}

// All returns every store.
func (r *MockStoreRepository) All() ([]models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	storeList := make([]models.Store, 0, len(r.stores))
	for _, s := range r.stores {
		storeList = append(storeList, s)
	}
	return storeList, nil
}

// ByTag returns the stores carrying the exact tag.
func (r *MockStoreRepository) ByTag(tag string) ([]models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Store
	for _, s := range r.stores {
		for _, t := range s.Tags {
			if t.Name == tag {
				matched = append(matched, s)
				break
			}
		}
	}
	return matched, nil
}

// AnyTagged returns the stores that have at least one tag.
func (r *MockStoreRepository) AnyTagged() ([]models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Store
	for _, s := range r.stores {
		if len(s.Tags) > 0 {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// TagCounts returns every tag in use with its usage count, most used first.
func (r *MockStoreRepository) TagCounts() ([]TagCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byName := make(map[string]int)
	for _, s := range r.stores {
		for _, t := range s.Tags {
			byName[t.Name]++
		}
	}
	counts := make([]TagCount, 0, len(byName))
	for name, count := range byName {
		counts = append(counts, TagCount{Tag: name, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts, nil
}

// ByIDs returns the stores whose IDs are in the given set.
func (r *MockStoreRepository) ByIDs(ids []string) ([]models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Store, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.stores[id]; ok {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// WithinBounds returns stores inside the lng/lat bounding box.
func (r *MockStoreRepository) WithinBounds(minLng, maxLng, minLat, maxLat float64) ([]models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Store
	for _, s := range r.stores {
		if s.Lng >= minLng && s.Lng <= maxLng && s.Lat >= minLat && s.Lat <= maxLat {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// Top ranks stores with at least minReviews ratings by average rating.
func (r *MockStoreRepository) Top(minReviews, limit int) ([]RankedStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ranked []RankedStore
	for id, ratings := range r.Ratings {
		store, ok := r.stores[id]
		if !ok || len(ratings) < minReviews {
			continue
		}
		sum := 0
		for _, rating := range ratings {
			sum += rating
		}
		ranked = append(ranked, RankedStore{
			Store:         store,
			AverageRating: float64(sum) / float64(len(ratings)),
			ReviewCount:   len(ratings),
		})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].AverageRating > ranked[j].AverageRating })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
