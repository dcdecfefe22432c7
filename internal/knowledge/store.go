// Package knowledge stores ingested datasets in a vector collection and
// retrieves the ones relevant to a question.
package knowledge

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a dataset id is not in the store.
var ErrNotFound = errors.New("dataset not found")

// ErrEmptyStore is returned by Retrieve when nothing has been ingested.
var ErrEmptyStore = errors.New("knowledge store is empty")

// Store persists datasets and searches them by similarity.
type Store interface {
	// AddDatasets adds or replaces datasets, keyed by id.
	AddDatasets(ctx context.Context, datasets []Dataset) error

	// Search performs a semantic search using the query text.
	Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error)

	// Get returns the stored document for a dataset id.
	Get(ctx context.Context, id string) (Document, error)

	// Delete removes a dataset.
	Delete(ctx context.Context, id string) error

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the number of stored datasets.
	Count() int

	// Stats summarises the stored datasets.
	Stats(ctx context.Context) (Stats, error)
}

// Stats counts stored datasets.
type Stats struct {
	Datasets   int            `json:"datasets"`
	Rows       int            `json:"rows"`
	Historical int            `json:"historical"`
	ByDomain   map[string]int `json:"by_domain"`
}
