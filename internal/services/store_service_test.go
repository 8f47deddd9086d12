package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
	"github.com/PrabuPro/restaurant-web-app/internal/repositories"
	"github.com/PrabuPro/restaurant-web-app/internal/search"
	"github.com/PrabuPro/restaurant-web-app/internal/services"
)

func newStoreService(t *testing.T) (*services.StoreService, *repositories.MockStoreRepository, *repositories.MockUserRepository) {
	t.Helper()
	storeRepo := repositories.NewMockStoreRepository()
	userRepo := repositories.NewMockUserRepository()
	index, err := search.New()
	require.NoError(t, err)
	return services.NewStoreService(storeRepo, userRepo, index, nil), storeRepo, userRepo
}

func seedStores(t *testing.T, svc *services.StoreService, n int) []*models.Store {
	t.Helper()
	stores := make([]*models.Store, 0, n)
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		store := &models.Store{Name: fmt.Sprintf("Store %d", i+1)}
		store.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		created, err := svc.Create(store, "author-1")
		require.NoError(t, err)
		stores = append(stores, created)
	}
	return stores
}

func TestStoreService_ListPage(t *testing.T) {
	svc, _, _ := newStoreService(t)
	seedStores(t, svc, 8)

	// Page one holds the newest six of eight stores
	page, err := svc.ListPage(1)
	require.NoError(t, err)
	assert.Equal(t, int64(8), page.Count)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.Stores, 6)
	assert.Equal(t, "Store 8", page.Stores[0].Name)
	assert.False(t, page.OutOfRange)

	// Page two holds the remaining two
	page, err = svc.ListPage(2)
	require.NoError(t, err)
	assert.Len(t, page.Stores, 2)
	assert.False(t, page.OutOfRange)

	// A page past the end is flagged so the handler can redirect
	page, err = svc.ListPage(5)
	require.NoError(t, err)
	assert.True(t, page.OutOfRange)
	assert.Equal(t, 2, page.Pages)

	// Page zero and negatives mean page one
	page, err = svc.ListPage(0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Stores, 6)
}

func TestStoreService_ListPageEmpty(t *testing.T) {
	svc, _, _ := newStoreService(t)

	page, err := svc.ListPage(1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pages)
	assert.Empty(t, page.Stores)
	assert.False(t, page.OutOfRange)
}

func TestStoreService_CreateForcesAuthor(t *testing.T) {
	svc, _, _ := newStoreService(t)

	store := &models.Store{Name: "Cafe Rio", AuthorID: "spoofed-author"}
	created, err := svc.Create(store, "session-user")
	require.NoError(t, err)
	assert.Equal(t, "session-user", created.AuthorID)
	assert.Equal(t, "cafe-rio", created.Slug)
}

func TestStoreService_CreateDisambiguatesSlugs(t *testing.T) {
	svc, _, _ := newStoreService(t)

	first, err := svc.Create(&models.Store{Name: "Cafe Rio"}, "author-1")
	require.NoError(t, err)
	second, err := svc.Create(&models.Store{Name: "Cafe Rio"}, "author-1")
	require.NoError(t, err)
	third, err := svc.Create(&models.Store{Name: "Cafe Rio"}, "author-1")
	require.NoError(t, err)

	assert.Equal(t, "cafe-rio", first.Slug)
	assert.Equal(t, "cafe-rio-2", second.Slug)
	assert.Equal(t, "cafe-rio-3", third.Slug)
}

func TestStoreService_UpdateEnforcesOwnership(t *testing.T) {
	svc, _, _ := newStoreService(t)

	created, err := svc.Create(&models.Store{Name: "Cafe Rio"}, "owner")
	require.NoError(t, err)

	_, err = svc.Update(created.ID, "intruder", &models.Store{Name: "Hijacked"})
	assert.ErrorIs(t, err, services.ErrNotOwner)

	_, err = svc.EditForm(created.ID, "intruder")
	assert.ErrorIs(t, err, services.ErrNotOwner)

	updated, err := svc.Update(created.ID, "owner", &models.Store{Name: "Cafe Rio Updated"})
	require.NoError(t, err)
	assert.Equal(t, "Cafe Rio Updated", updated.Name)
	assert.Equal(t, "cafe-rio", updated.Slug) // slug survives renames
}

func TestStoreService_UpdateMissingStore(t *testing.T) {
	svc, _, _ := newStoreService(t)

	_, err := svc.Update("no-such-id", "owner", &models.Store{Name: "Ghost"})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestStoreService_ByTag(t *testing.T) {
	svc, _, _ := newStoreService(t)

	_, err := svc.Create(&models.Store{Name: "A", Tags: []models.Tag{{Name: "Wifi"}, {Name: "Licensed"}}}, "author-1")
	require.NoError(t, err)
	_, err = svc.Create(&models.Store{Name: "B", Tags: []models.Tag{{Name: "Wifi"}}}, "author-1")
	require.NoError(t, err)
	_, err = svc.Create(&models.Store{Name: "C"}, "author-1")
	require.NoError(t, err)

	page, err := svc.ByTag("Wifi")
	require.NoError(t, err)
	assert.Equal(t, "Wifi", page.Tag)
	assert.Len(t, page.Stores, 2)
	require.Len(t, page.Tags, 2)
	assert.Equal(t, repositories.TagCount{Tag: "Wifi", Count: 2}, page.Tags[0])

	// No tag selects every tagged store
	page, err = svc.ByTag("")
	require.NoError(t, err)
	assert.Len(t, page.Stores, 2)
}

func TestStoreService_Search(t *testing.T) {
	svc, _, _ := newStoreService(t)

	coffee, err := svc.Create(&models.Store{Name: "Coffee Corner", Description: "espresso and pastries"}, "author-1")
	require.NoError(t, err)
	_, err = svc.Create(&models.Store{Name: "Burger Barn", Description: "we also serve coffee"}, "author-1")
	require.NoError(t, err)
	_, err = svc.Create(&models.Store{Name: "Salad Stop", Description: "greens only"}, "author-1")
	require.NoError(t, err)

	// Name matches outrank description matches
	results, err := svc.Search("coffee", services.SearchLimit)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, coffee.ID, results[0].ID)

	// A blank query is an empty result, not an error
	results, err = svc.Search("", services.SearchLimit)
	require.NoError(t, err)
	assert.Empty(t, results)

	// No matches is an empty result too
	results, err = svc.Search("sushi", services.SearchLimit)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStoreService_Near(t *testing.T) {
	svc, _, _ := newStoreService(t)

	// Around downtown Toronto; a degree of latitude is about 111km
	center := [2]float64{-79.38, 43.65}
	near, err := svc.Create(&models.Store{Name: "Near", Lng: center[0] + 0.01, Lat: center[1]}, "author-1")
	require.NoError(t, err)
	nearer, err := svc.Create(&models.Store{Name: "Nearer", Lng: center[0], Lat: center[1] + 0.001}, "author-1")
	require.NoError(t, err)
	_, err = svc.Create(&models.Store{Name: "Far", Lng: center[0] + 1, Lat: center[1]}, "author-1")
	require.NoError(t, err)

	results, err := svc.Near(center[0], center[1])
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, nearer.Slug, results[0].Slug)
	assert.Equal(t, near.Slug, results[1].Slug)
	assert.Equal(t, "Point", results[0].Location.Type)
	assert.Equal(t, nearer.Lng, results[0].Location.Coordinates[0])
}

func TestStoreService_NearCapsResults(t *testing.T) {
	svc, _, _ := newStoreService(t)

	for i := 0; i < services.NearLimit+3; i++ {
		_, err := svc.Create(&models.Store{
			Name: fmt.Sprintf("Store %d", i),
			Lng:  -79.38 + float64(i)*0.0001,
			Lat:  43.65,
		}, "author-1")
		require.NoError(t, err)
	}

	results, err := svc.Near(-79.38, 43.65)
	require.NoError(t, err)
	assert.Len(t, results, services.NearLimit)
}

func TestStoreService_ToggleHeart(t *testing.T) {
	svc, _, userRepo := newStoreService(t)

	require.NoError(t, userRepo.Create(&models.User{ID: "user-1", Name: "U", Email: "u@example.com"}))
	created, err := svc.Create(&models.Store{Name: "Cafe Rio"}, "author-1")
	require.NoError(t, err)

	// First toggle hearts the store
	user, err := svc.ToggleHeart("user-1", created.ID)
	require.NoError(t, err)
	assert.True(t, user.HasHearted(created.ID))

	// Second toggle removes it again
	user, err = svc.ToggleHeart("user-1", created.ID)
	require.NoError(t, err)
	assert.False(t, user.HasHearted(created.ID))

	_, err = svc.ToggleHeart("no-such-user", created.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestStoreService_Hearted(t *testing.T) {
	svc, _, userRepo := newStoreService(t)

	require.NoError(t, userRepo.Create(&models.User{ID: "user-1", Name: "U", Email: "u@example.com"}))
	created, err := svc.Create(&models.Store{Name: "Cafe Rio"}, "author-1")
	require.NoError(t, err)

	stores, err := svc.Hearted("user-1")
	require.NoError(t, err)
	assert.Empty(t, stores)

	_, err = svc.ToggleHeart("user-1", created.ID)
	require.NoError(t, err)

	stores, err = svc.Hearted("user-1")
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, created.ID, stores[0].ID)
}

func TestStoreService_Top(t *testing.T) {
	svc, storeRepo, _ := newStoreService(t)

	good, err := svc.Create(&models.Store{Name: "Good"}, "author-1")
	require.NoError(t, err)
	better, err := svc.Create(&models.Store{Name: "Better"}, "author-1")
	require.NoError(t, err)
	single, err := svc.Create(&models.Store{Name: "One Review"}, "author-1")
	require.NoError(t, err)

	storeRepo.Ratings[good.ID] = []int{3, 4}
	storeRepo.Ratings[better.ID] = []int{5, 5}
	storeRepo.Ratings[single.ID] = []int{5} // below the two-review floor

	ranked, err := svc.Top()
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, better.ID, ranked[0].ID)
	assert.Equal(t, 5.0, ranked[0].AverageRating)
	assert.Equal(t, 2, ranked[0].ReviewCount)
}
