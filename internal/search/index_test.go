package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrabuPro/restaurant-web-app/internal/search"
)

func newIndex(t *testing.T) *search.Index {
	t.Helper()
	idx, err := search.New()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndex_NameOutranksDescription(t *testing.T) {
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(search.Document{ID: "1", Name: "Coffee Corner", Description: "espresso bar"}))
	require.NoError(t, idx.Upsert(search.Document{ID: "2", Name: "Burger Barn", Description: "we also serve coffee"}))

	hits, err := idx.Search("coffee", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "1", hits[0].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestIndex_MatchesTags(t *testing.T) {
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(search.Document{ID: "1", Name: "Cafe Rio", Tags: []string{"Vegetarian"}}))

	hits, err := idx.Search("vegetarian", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "1", hits[0].ID)
}

func TestIndex_Limit(t *testing.T) {
	idx := newIndex(t)

	docs := []search.Document{
		{ID: "1", Name: "Taco Town"},
		{ID: "2", Name: "Taco Time"},
		{ID: "3", Name: "Taco Temple"},
	}
	require.NoError(t, idx.Rebuild(docs))

	hits, err := idx.Search("taco", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestIndex_UpsertReplacesAndDeleteRemoves(t *testing.T) {
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(search.Document{ID: "1", Name: "Noodle House"}))
	require.NoError(t, idx.Upsert(search.Document{ID: "1", Name: "Dumpling House"}))

	hits, err := idx.Search("noodle", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search("dumpling", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NoError(t, idx.Delete("1"))
	hits, err = idx.Search("dumpling", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
