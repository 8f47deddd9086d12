package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrabuPro/restaurant-web-app/internal/models"
	"github.com/PrabuPro/restaurant-web-app/internal/repositories"
	"github.com/PrabuPro/restaurant-web-app/internal/services"
)

func TestReviewService_Add(t *testing.T) {
	storeRepo := repositories.NewMockStoreRepository()
	reviewRepo := repositories.NewMockReviewRepository()
	svc := services.NewReviewService(reviewRepo, storeRepo, nil)

	store := &models.Store{Name: "Cafe Rio"}
	require.NoError(t, storeRepo.Create(store))

	review, err := svc.Add(store.ID, "user-1", 4, "Great tacos")
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, store.ID, review.StoreID)
	assert.Equal(t, "user-1", review.AuthorID)
	assert.Equal(t, 4, review.Rating)

	reviews, err := svc.ListByStore(store.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestReviewService_AddUnknownStore(t *testing.T) {
	storeRepo := repositories.NewMockStoreRepository()
	reviewRepo := repositories.NewMockReviewRepository()
	svc := services.NewReviewService(reviewRepo, storeRepo, nil)

	_, err := svc.Add("no-such-store", "user-1", 5, "Ghost review")
	assert.ErrorIs(t, err, services.ErrNotFound)
}
