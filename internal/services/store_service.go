package services

import (
	"errors"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
	"github.com/PrabuPro/restaurant-web-app/internal/repositories"
	"github.com/PrabuPro/restaurant-web-app/internal/search"
	"github.com/PrabuPro/restaurant-web-app/pkg/rabbitmq"
)

const (
	// PageSize is the number of stores per listing page.
	PageSize = 6
	// SearchLimit caps text search results.
	SearchLimit = 5
	// NearMaxDistanceMeters caps the "near me" query radius.
	NearMaxDistanceMeters = 10000
	// NearLimit caps "near me" results.
	NearLimit = 10
	// topMinReviews is the review count a store needs to be ranked.
	topMinReviews = 2
	topLimit      = 10

	earthRadiusMeters = 6371000
	metersPerDegree   = 111320 // one degree of latitude
)

// StorePage is one page of the store listing. When OutOfRange is set, the
// requested page is past the end and the caller should redirect to Pages.
type StorePage struct {
	Stores     []models.Store
	Page       int
	Pages      int
	Count      int64
	OutOfRange bool
}

// TagPage is the tag browse result: every tag with its usage count plus the
// stores matching the selected tag.
type TagPage struct {
	Tag    string
	Tags   []repositories.TagCount
	Stores []models.Store
}

// GeoPoint is a GeoJSON point, longitude first.
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NearStore is the display projection of a geospatial search result.
type NearStore struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    GeoPoint `json:"location"`
	Photo       string   `json:"photo,omitempty"`
}

// StoreService handles business logic related to stores.
type StoreService struct {
	storeRepo repositories.StoreRepository
	userRepo  repositories.UserRepository
	index     *search.Index
	mqClient  *rabbitmq.Client
}

// NewStoreService creates a new StoreService. The RabbitMQ client may be
// nil, in which case events are skipped.
func NewStoreService(storeRepo repositories.StoreRepository, userRepo repositories.UserRepository, index *search.Index, mqClient *rabbitmq.Client) *StoreService {
	return &StoreService{
		storeRepo: storeRepo,
		userRepo:  userRepo,
		index:     index,
		mqClient:  mqClient,
	}
}

// ListPage returns one page of stores, newest first. Pages are 1-based;
// anything below 1 is treated as page 1. The count and page queries have no
// dependency on each other, so they run concurrently.
func (s *StoreService) ListPage(page int) (*StorePage, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize

	var (
		stores            []models.Store
		count             int64
		listErr, countErr error
		wg                sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		stores, listErr = s.storeRepo.List(offset, PageSize)
	}()
	go func() {
		defer wg.Done()
		count, countErr = s.storeRepo.Count()
	}()
	wg.Wait()
	if listErr != nil {
		return nil, listErr
	}
	if countErr != nil {
		return nil, countErr
	}

	pages := int(math.Ceil(float64(count) / float64(PageSize)))
	if pages < 1 {
		pages = 1
	}
	result := &StorePage{Stores: stores, Page: page, Pages: pages, Count: count}
	if len(stores) == 0 && offset > 0 {
		result.OutOfRange = true
	}
	return result, nil
}

// Create persists a new store owned by authorID. The author always comes
// from the session, never from the submitted form.
func (s *StoreService) Create(store *models.Store, authorID string) (*models.Store, error) {
	store.AuthorID = authorID
	if err := s.storeRepo.Create(store); err != nil {
		return nil, err
	}
	s.indexStore(store)
	s.publish("store.created", map[string]interface{}{
		"store_id": store.ID,
		"slug":     store.Slug,
		"author":   store.AuthorID,
	})
	return store, nil
}

// GetByID loads a store by ID.
func (s *StoreService) GetByID(id string) (*models.Store, error) {
	store, err := s.storeRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return store, nil
}

// GetBySlug loads a store with author and reviews for the detail page.
func (s *StoreService) GetBySlug(slug string) (*models.Store, error) {
	store, err := s.storeRepo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return store, nil
}

// ConfirmOwner fails unless the store belongs to the user.
func (s *StoreService) ConfirmOwner(store *models.Store, userID string) error {
	if store.AuthorID != userID {
		return ErrNotOwner
	}
	return nil
}

// EditForm loads a store for editing, enforcing ownership.
func (s *StoreService) EditForm(id, userID string) (*models.Store, error) {
	store, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.ConfirmOwner(store, userID); err != nil {
		return nil, err
	}
	return store, nil
}

// Update applies changes to a store after enforcing ownership, and returns
// the post-update record.
func (s *StoreService) Update(id, userID string, store *models.Store) (*models.Store, error) {
	existing, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.ConfirmOwner(existing, userID); err != nil {
		return nil, err
	}

	store.ID = id
	updated, err := s.storeRepo.Update(store)
	if err != nil {
		return nil, err
	}
	s.indexStore(updated)
	return updated, nil
}

// ByTag returns the tag browse page. An empty tag selects every store that
// has at least one tag. The tag-count and store queries run concurrently.
func (s *StoreService) ByTag(tag string) (*TagPage, error) {
	var (
		tags               []repositories.TagCount
		stores             []models.Store
		tagsErr, storesErr error
		wg                 sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		tags, tagsErr = s.storeRepo.TagCounts()
	}()
	go func() {
		defer wg.Done()
		if tag == "" {
			stores, storesErr = s.storeRepo.AnyTagged()
		} else {
			stores, storesErr = s.storeRepo.ByTag(tag)
		}
	}()
	wg.Wait()
	if tagsErr != nil {
		return nil, tagsErr
	}
	if storesErr != nil {
		return nil, storesErr
	}
	return &TagPage{Tag: tag, Tags: tags, Stores: stores}, nil
}

// Search runs a relevance-scored text search and returns matching stores,
// best match first. A blank query or no matches yields an empty list.
func (s *StoreService) Search(q string, limit int) ([]models.Store, error) {
	if q == "" {
		return []models.Store{}, nil
	}
	hits, err := s.index.Search(q, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	stores, err := s.storeRepo.ByIDs(ids)
	if err != nil {
		return nil, err
	}

	// Restore the index's relevance order
	byID := make(map[string]models.Store, len(stores))
	for _, st := range stores {
		byID[st.ID] = st
	}
	ordered := make([]models.Store, 0, len(hits))
	for _, h := range hits {
		if st, ok := byID[h.ID]; ok {
			ordered = append(ordered, st)
		}
	}
	return ordered, nil
}

// Near returns stores within NearMaxDistanceMeters of the point, closest
// first, capped at NearLimit, projected to display fields. The repository
// prefilters with a bounding box; exact haversine distance is applied here.
func (s *StoreService) Near(lng, lat float64) ([]NearStore, error) {
	latDelta := float64(NearMaxDistanceMeters) / metersPerDegree
	lngScale := math.Cos(lat * math.Pi / 180)
	if lngScale < 0.01 {
		lngScale = 0.01 // polar latitudes: degenerate box, keep it finite
	}
	lngDelta := float64(NearMaxDistanceMeters) / (metersPerDegree * lngScale)

	candidates, err := s.storeRepo.WithinBounds(lng-lngDelta, lng+lngDelta, lat-latDelta, lat+latDelta)
	if err != nil {
		return nil, err
	}

	type scored struct {
		store    models.Store
		distance float64
	}
	within := make([]scored, 0, len(candidates))
	for _, st := range candidates {
		d := haversineMeters(lng, lat, st.Lng, st.Lat)
		if d <= NearMaxDistanceMeters {
			within = append(within, scored{store: st, distance: d})
		}
	}
	sort.Slice(within, func(i, j int) bool { return within[i].distance < within[j].distance })
	if len(within) > NearLimit {
		within = within[:NearLimit]
	}

	results := make([]NearStore, 0, len(within))
	for _, sc := range within {
		results = append(results, NearStore{
			Slug:        sc.store.Slug,
			Name:        sc.store.Name,
			Description: sc.store.Description,
			Location: GeoPoint{
				Type:        "Point",
				Coordinates: [2]float64{sc.store.Lng, sc.store.Lat},
			},
			Photo: sc.store.Photo,
		})
	}
	return results, nil
}

// haversineMeters is the great-circle distance between two lng/lat points.
func haversineMeters(lng1, lat1, lng2, lat2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ToggleHeart flips the store's membership in the user's heart set and
// returns the user with the updated set.
func (s *StoreService) ToggleHeart(userID, storeID string) (*models.User, error) {
	user, err := s.userRepo.ToggleHeart(userID, storeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Hearted returns the stores in the user's heart set.
func (s *StoreService) Hearted(userID string) ([]models.Store, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	stores := make([]models.Store, 0, len(user.Hearts))
	for _, st := range user.Hearts {
		stores = append(stores, *st)
	}
	return stores, nil
}

// Top ranks stores with at least two reviews by average rating.
func (s *StoreService) Top() ([]repositories.RankedStore, error) {
	return s.storeRepo.Top(topMinReviews, topLimit)
}

// RebuildIndex reindexes every store, called once at startup.
func (s *StoreService) RebuildIndex() error {
	stores, err := s.storeRepo.All()
	if err != nil {
		return err
	}
	docs := make([]search.Document, 0, len(stores))
	for i := range stores {
		docs = append(docs, search.DocumentFromStore(&stores[i]))
	}
	return s.index.Rebuild(docs)
}

// indexStore keeps the search index in sync; index failures are logged, not
// surfaced, since the store itself is already persisted.
func (s *StoreService) indexStore(store *models.Store) {
	if err := s.index.Upsert(search.DocumentFromStore(store)); err != nil {
		log.Printf("Warning: failed to index store %s: %v", store.ID, err)
	}
}

// publish emits a store lifecycle event when a broker is configured.
func (s *StoreService) publish(eventType string, data map[string]interface{}) {
	if s.mqClient == nil {
		return
	}
	if err := s.mqClient.PublishEvent(eventType, data); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", eventType, err)
	}
}
