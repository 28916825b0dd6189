package service

import (
	"context"
	"fmt"

	"github.com/covercraft/docrag/internal/domain"
)

// DefaultTopK is the retrieval depth used when no k is configured.
const DefaultTopK = 3

// Retriever wraps a PassageStore with a fixed retrieval policy: embed
// the query, take the store's top-k by similarity. Result order is the
// store's similarity order; no re-ranking happens here.
type Retriever struct {
	embedder EmbeddingClient
	store    PassageStore
	topK     int
}

func NewRetriever(embedder EmbeddingClient, store PassageStore, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
	}
}

// Retrieve embeds queryText as a single-item batch and returns the k
// most similar passages from the collection. k <= 0 uses the
// retriever's configured depth.
func (r *Retriever) Retrieve(ctx context.Context, collection, queryText string, k int) ([]domain.ScoredPassage, error) {
	if k <= 0 {
		k = r.topK
	}

	vectors, err := r.embedder.EmbedBatch(ctx, []string{queryText})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for query", domain.ErrEmbeddingProvider, len(vectors))
	}

	return r.store.Query(ctx, collection, vectors[0], k)
}
