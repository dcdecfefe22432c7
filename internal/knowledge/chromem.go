package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/me-e6/pengine/internal/embeddings"
)

const (
	collectionName = "datasets"
	storeFileName  = "chromem.gob.gz"
)

// ChromemStore implements Store using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
	embedFunc  chromem.EmbeddingFunc
	now        func() time.Time
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedder:   embedder,
		embedFunc:  ef,
		now:        time.Now,
	}, nil
}

func (s *ChromemStore) AddDatasets(ctx context.Context, datasets []Dataset) error {
	if len(datasets) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(datasets))
	for _, d := range datasets {
		if err := d.Validate(); err != nil {
			return err
		}
		doc, err := NewDocument(d, s.now())
		if err != nil {
			return err
		}
		docs = append(docs, chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: metadataToMap(doc.Metadata),
		})
	}

	return s.collection.AddDocuments(ctx, docs, runtime.NumCPU())
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	limit = min(limit, count)

	results, err := s.collection.Query(ctx, query, limit, buildWhereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

func (s *ChromemStore) Get(ctx context.Context, id string) (Document, error) {
	doc, err := s.collection.GetByID(ctx, id)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return Document{ID: doc.ID, Content: doc.Content, Metadata: mapToMetadata(doc.Metadata)}, nil
}

func (s *ChromemStore) Delete(ctx context.Context, id string) error {
	if _, err := s.collection.GetByID(ctx, id); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.collection.Delete(ctx, nil, nil, id)
}

func (s *ChromemStore) Persist(_ context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return s.db.ExportToFile(filepath.Join(dir, storeFileName), true, "")
}

// Load imports a persisted store. A directory without a store file leaves
// the store empty.
func (s *ChromemStore) Load(_ context.Context, dir string) error {
	path := filepath.Join(dir, storeFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := s.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Stats walks every stored document. chromem has no listing API, so this
// runs one similarity query sized to the whole collection.
func (s *ChromemStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByDomain: make(map[string]int)}
	count := s.collection.Count()
	if count == 0 {
		return st, nil
	}
	results, err := s.collection.Query(ctx, "dataset", count, nil, nil)
	if err != nil {
		return st, fmt.Errorf("listing datasets: %w", err)
	}
	for _, r := range results {
		md := mapToMetadata(r.Metadata)
		st.Datasets++
		st.Rows += md.RowCount
		st.ByDomain[md.Domain]++
		if md.HasHistoricalDepth {
			st.Historical++
		}
	}
	return st, nil
}
