package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/covercraft/docrag/internal/domain"
)

const defaultQueryLimit = 3

// PassageRepository is the durable passage store backed by Postgres
// with the pgvector extension. Similarity is cosine: score is
// 1 - cosine distance, so identical vectors score 1.0.
type PassageRepository struct {
	pool *pgxpool.Pool
}

func NewPassageRepository(pool *pgxpool.Pool) *PassageRepository {
	return &PassageRepository{pool: pool}
}

// UpsertBatch writes all passages to the collection in one
// transaction: either every passage becomes queryable or none do.
// The collection is created lazily on first write with the batch's
// vector dimension; later batches must match it.
func (r *PassageRepository) UpsertBatch(ctx context.Context, collection string, passages []domain.PassageInput) ([]string, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	dimension := len(passages[0].Embedding)
	for _, p := range passages {
		if len(p.Embedding) != dimension {
			return nil, domain.ErrDimensionMismatch
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	collectionID, err := ensureCollection(ctx, tx, collection, dimension)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ids := make([]string, len(passages))
	for i, p := range passages {
		id := uuid.NewString()
		_, err := tx.Exec(ctx,
			`INSERT INTO passages (id, collection_id, chunk_index, content, embedding, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, collectionID, p.ChunkIndex, p.Content, pgvector.NewVector(p.Embedding), nullableMetadata(p.Metadata), now,
		)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// Query returns at most k passages ordered by descending cosine
// similarity, ties broken by insertion order. Querying a collection
// that has never been written fails with ErrCollectionNotFound; this
// is deliberately distinct from an empty result on a known collection.
func (r *PassageRepository) Query(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredPassage, error) {
	if k <= 0 {
		k = defaultQueryLimit
	}

	collectionID, dimension, err := r.lookupCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dimension {
		return nil, domain.ErrDimensionMismatch
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, chunk_index, content, metadata, created_at, 1 - (embedding <=> $1) AS score
		 FROM passages
		 WHERE collection_id = $2
		 ORDER BY embedding <=> $1 ASC, created_at ASC, chunk_index ASC, id ASC
		 LIMIT $3`,
		pgvector.NewVector(vector), collectionID, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.ScoredPassage, 0, k)
	for rows.Next() {
		var sp domain.ScoredPassage
		var metadata map[string]string
		var score float64
		if err := rows.Scan(&sp.Passage.ID, &sp.Passage.ChunkIndex, &sp.Passage.Content, &metadata, &sp.Passage.CreatedAt, &score); err != nil {
			return nil, err
		}
		sp.Passage.Collection = collection
		sp.Passage.Metadata = metadata
		sp.Score = float32(score)
		results = append(results, sp)
	}
	return results, rows.Err()
}

// Delete removes passages by id from the collection and returns the
// number of rows removed. Out of the ingestion path; used for corpus
// maintenance.
func (r *PassageRepository) Delete(ctx context.Context, collection string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	collectionID, _, err := r.lookupCollection(ctx, collection)
	if err != nil {
		return 0, err
	}

	cmdTag, err := r.pool.Exec(ctx,
		`DELETE FROM passages WHERE collection_id = $1 AND id = ANY($2)`,
		collectionID, ids,
	)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func (r *PassageRepository) lookupCollection(ctx context.Context, collection string) (string, int, error) {
	var id string
	var dimension int
	err := r.pool.QueryRow(ctx,
		`SELECT id, dimension FROM collections WHERE name = $1`,
		collection,
	).Scan(&id, &dimension)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, domain.ErrCollectionNotFound
		}
		return "", 0, err
	}
	return id, dimension, nil
}

// ensureCollection creates the collection row if it does not exist and
// locks it for the duration of the transaction, so concurrent upserts
// to the same collection serialize on creation but ids never collide.
func ensureCollection(ctx context.Context, tx pgx.Tx, name string, dimension int) (string, error) {
	_, err := tx.Exec(ctx,
		`INSERT INTO collections (id, name, dimension, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO NOTHING`,
		uuid.NewString(), name, dimension, time.Now().UTC(),
	)
	if err != nil {
		return "", err
	}

	var id string
	var existing int
	err = tx.QueryRow(ctx,
		`SELECT id, dimension FROM collections WHERE name = $1 FOR UPDATE`,
		name,
	).Scan(&id, &existing)
	if err != nil {
		return "", err
	}
	if existing != dimension {
		return "", domain.ErrDimensionMismatch
	}
	return id, nil
}

func nullableMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}
