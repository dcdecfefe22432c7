// Package embeddings turns dataset descriptions and questions into vectors
// for the knowledge store.
package embeddings

import "context"

const maxBatchSize = 100

// Embedder maps texts to vectors of a fixed size. Dataset text and query
// text must go through the same Embedder for similarities to mean anything.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// Name identifies the backend and model, e.g. "openai/text-embedding-3-small".
	Name() string
}

// inBatches calls embed on consecutive slices of at most size texts and
// concatenates the results, checking each batch returned one vector per text.
func inBatches(texts []string, size int, embed func(batch []string) ([][]float32, error)) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		batch := texts[start:min(start+size, len(texts))]
		vecs, err := embed(batch)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, errCount(len(vecs), len(batch))
		}
		out = append(out, vecs...)
	}
	return out, nil
}
