package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Index wraps an in-memory Bleve index over store documents.
//
// Thread safety: all public methods are safe for concurrent use. The mutex
// protects index operations during a rebuild.
type Index struct {
	idx bleve.Index
	mu  sync.RWMutex
}

// Hit is a single search result: a store ID with its relevance score.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// New creates an empty in-memory index.
func New() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.idx.Close()
}

// Upsert indexes or reindexes a document.
func (i *Index) Upsert(doc Document) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if err := i.idx.Index(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to index store %s: %w", doc.ID, err)
	}
	return nil
}

// Delete removes a document from the index.
func (i *Index) Delete(id string) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if err := i.idx.Delete(id); err != nil {
		return fmt.Errorf("failed to remove store %s from index: %w", id, err)
	}
	return nil
}

// Rebuild indexes the given documents in one batch. It is called once at
// startup against a freshly created index; it does not remove documents
// that are already present.
func (i *Index) Rebuild(docs []Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.idx.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("failed to batch store %s: %w", doc.ID, err)
		}
	}
	if err := i.idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to rebuild search index: %w", err)
	}
	return nil
}

// Search returns up to limit hits for the query, best score first. Name
// matches outrank description and tag matches.
func (i *Index) Search(q string, limit int) ([]Hit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	nameQuery := bleve.NewMatchQuery(q)
	nameQuery.SetField("name")
	nameQuery.SetBoost(2)

	descQuery := bleve.NewMatchQuery(q)
	descQuery.SetField("description")

	tagQuery := bleve.NewMatchQuery(q)
	tagQuery.SetField("tags")

	req := bleve.NewSearchRequestOptions(
		bleve.NewDisjunctionQuery(nameQuery, descQuery, tagQuery),
		limit, 0, false,
	)
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}
