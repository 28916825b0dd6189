package service

import (
	"context"
	"fmt"

	"github.com/covercraft/docrag/internal/domain"
)

// EmbeddingClient defines the embedding capability consumed by services.
// EmbedBatch returns exactly one vector per input text, in input order.
type EmbeddingClient interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// PassageStore persists embedded passages under named collections and
// answers nearest-neighbor queries. UpsertBatch is atomic per call.
type PassageStore interface {
	UpsertBatch(ctx context.Context, collection string, passages []domain.PassageInput) ([]string, error)
	Query(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredPassage, error)
	Delete(ctx context.Context, collection string, ids []string) (int, error)
}

// IngestionService turns a document into stored passages: chunk, embed
// all chunks in one batch, write all passages in one atomic upsert.
//
// Ingestion is not idempotent: re-ingesting the same document creates
// duplicate passages. Callers that want replacement semantics must
// delete prior passages first.
type IngestionService struct {
	embedder EmbeddingClient
	store    PassageStore
	chunkCfg ChunkConfig
}

func NewIngestionService(embedder EmbeddingClient, store PassageStore, chunkCfg ChunkConfig) *IngestionService {
	if chunkCfg.MaxChars <= 0 {
		chunkCfg = DefaultChunkConfig()
	}
	return &IngestionService{
		embedder: embedder,
		store:    store,
		chunkCfg: chunkCfg,
	}
}

// Ingest writes the document's passages to the collection and returns
// the number of passages stored. If embedding or storage fails, no
// passages from this document are left behind.
func (s *IngestionService) Ingest(ctx context.Context, collection, text string) (int, error) {
	chunks, err := SplitDocument(text, s.chunkCfg)
	if err != nil {
		return 0, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingProvider, len(vectors), len(chunks))
	}

	passages := make([]domain.PassageInput, len(chunks))
	for i, c := range chunks {
		passages[i] = domain.PassageInput{
			ChunkIndex: c.Index,
			Content:    c.Text,
			Embedding:  vectors[i],
		}
	}

	ids, err := s.store.UpsertBatch(ctx, collection, passages)
	if err != nil {
		return 0, err
	}

	return len(ids), nil
}
