package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/covercraft/docrag/internal/domain"
)

// MemoryStore is an in-process passage store using brute-force cosine
// similarity. It implements the same contract as PassageRepository,
// including batch atomicity and the collection-not-found policy, and
// is safe for concurrent use. Used by tests and local experiments.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	dimension int
	passages  []domain.StoredPassage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) UpsertBatch(ctx context.Context, collection string, passages []domain.PassageInput) ([]string, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	dimension := len(passages[0].Embedding)
	for _, p := range passages {
		if len(p.Embedding) != dimension {
			return nil, domain.ErrDimensionMismatch
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		coll = &memoryCollection{dimension: dimension}
	} else if coll.dimension != dimension {
		return nil, domain.ErrDimensionMismatch
	}

	// All validation happens before any append, so a failed batch
	// leaves nothing queryable.
	now := time.Now().UTC()
	ids := make([]string, len(passages))
	stored := make([]domain.StoredPassage, len(passages))
	for i, p := range passages {
		id := uuid.NewString()
		embedding := make([]float32, len(p.Embedding))
		copy(embedding, p.Embedding)
		stored[i] = domain.StoredPassage{
			ID:         id,
			Collection: collection,
			ChunkIndex: p.ChunkIndex,
			Content:    p.Content,
			Embedding:  embedding,
			Metadata:   p.Metadata,
			CreatedAt:  now,
		}
		ids[i] = id
	}

	coll.passages = append(coll.passages, stored...)
	s.collections[collection] = coll
	return ids, nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredPassage, error) {
	if k <= 0 {
		k = defaultQueryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	if len(vector) != coll.dimension {
		return nil, domain.ErrDimensionMismatch
	}

	scored := make([]domain.ScoredPassage, len(coll.passages))
	for i, p := range coll.passages {
		scored[i] = domain.ScoredPassage{
			Passage: p,
			Score:   cosineSimilarity(p.Embedding, vector),
		}
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection string, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return 0, domain.ErrCollectionNotFound
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := coll.passages[:0]
	deleted := 0
	for _, p := range coll.passages {
		if _, ok := drop[p.ID]; ok {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	coll.passages = kept
	return deleted, nil
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
