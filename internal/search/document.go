// Package search provides full-text store search using Bleve. The index
// lives in memory: it is rebuilt from the database at startup and kept in
// sync on every store create and update.
package search

import "github.com/PrabuPro/restaurant-web-app/internal/models"

// Document is the indexed representation of a store.
type Document struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// DocumentFromStore maps a store to its search document.
func DocumentFromStore(store *models.Store) Document {
	return Document{
		ID:          store.ID,
		Name:        store.Name,
		Description: store.Description,
		Tags:        store.TagNames(),
	}
}
