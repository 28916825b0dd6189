//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covercraft/docrag/internal/domain"
	"github.com/covercraft/docrag/internal/testutil"
)

const testDimension = 1536

// basisVector returns a 1536-dim unit vector along axis i.
func basisVector(i int) []float32 {
	v := make([]float32, testDimension)
	v[i] = 1
	return v
}

func setupRepo(t *testing.T) (*PassageRepository, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() {
		_ = pc.Terminate(context.Background())
	})

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)

	return NewPassageRepository(pool), pool
}

func TestPassageRepository_Integration(t *testing.T) {
	repo, pool := setupRepo(t)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		ids, err := repo.UpsertBatch(ctx, "notes", []domain.PassageInput{
			{ChunkIndex: 0, Content: "cats purr", Embedding: basisVector(0)},
			{ChunkIndex: 1, Content: "dogs bark", Embedding: basisVector(1)},
		})
		require.NoError(t, err)
		require.Len(t, ids, 2)

		results, err := repo.Query(ctx, "notes", basisVector(0), 1)
		require.NoError(t, err)
		require.Len(t, results, 1)

		assert.Equal(t, ids[0], results[0].Passage.ID)
		assert.Equal(t, "cats purr", results[0].Passage.Content)
		assert.Equal(t, 0, results[0].Passage.ChunkIndex)
		assert.InDelta(t, 1.0, results[0].Score, 1e-4)
	})

	t.Run("ordering and k bound", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		// Decreasing alignment with the query axis.
		var inputs []domain.PassageInput
		for i := 0; i < 5; i++ {
			v := basisVector(0)
			v[1] = float32(i)
			inputs = append(inputs, domain.PassageInput{ChunkIndex: i, Content: "passage", Embedding: v})
		}
		_, err := repo.UpsertBatch(ctx, "notes", inputs)
		require.NoError(t, err)

		results, err := repo.Query(ctx, "notes", basisVector(0), 3)
		require.NoError(t, err)
		require.Len(t, results, 3)

		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		}
		assert.Equal(t, 0, results[0].Passage.ChunkIndex)
	})

	t.Run("equal scores keep insertion order", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		ids, err := repo.UpsertBatch(ctx, "notes", []domain.PassageInput{
			{ChunkIndex: 0, Content: "first", Embedding: basisVector(0)},
			{ChunkIndex: 1, Content: "second", Embedding: basisVector(0)},
		})
		require.NoError(t, err)

		results, err := repo.Query(ctx, "notes", basisVector(0), 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, ids[0], results[0].Passage.ID)
		assert.Equal(t, ids[1], results[1].Passage.ID)
	})

	t.Run("unknown collection", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		_, err := repo.Query(ctx, "never-written", basisVector(0), 3)
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

		_, err = repo.Delete(ctx, "never-written", []string{"00000000-0000-0000-0000-000000000000"})
		assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
	})

	t.Run("query dimension mismatch", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		_, err := repo.UpsertBatch(ctx, "notes", []domain.PassageInput{
			{ChunkIndex: 0, Content: "passage", Embedding: basisVector(0)},
		})
		require.NoError(t, err)

		_, err = repo.Query(ctx, "notes", []float32{1, 0, 0}, 3)
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("mixed dimension batch stores nothing", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		_, err := repo.UpsertBatch(ctx, "notes", []domain.PassageInput{
			{ChunkIndex: 0, Content: "full", Embedding: basisVector(0)},
			{ChunkIndex: 1, Content: "short", Embedding: []float32{1, 0}},
		})
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

		var count int
		require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM passages").Scan(&count))
		assert.Zero(t, count)

		require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM collections").Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		ids, err := repo.UpsertBatch(ctx, "notes", []domain.PassageInput{
			{ChunkIndex: 0, Content: "keep", Embedding: basisVector(0)},
			{ChunkIndex: 1, Content: "drop", Embedding: basisVector(1)},
		})
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, "notes", []string{ids[1]})
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		results, err := repo.Query(ctx, "notes", basisVector(0), 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "keep", results[0].Passage.Content)
	})

	t.Run("metadata round trip", func(t *testing.T) {
		require.NoError(t, testutil.TruncateAll(ctx, pool))

		_, err := repo.UpsertBatch(ctx, "notes", []domain.PassageInput{
			{
				ChunkIndex: 0,
				Content:    "tagged",
				Embedding:  basisVector(0),
				Metadata:   map[string]string{"source": "upload"},
			},
		})
		require.NoError(t, err)

		results, err := repo.Query(ctx, "notes", basisVector(0), 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, map[string]string{"source": "upload"}, results[0].Passage.Metadata)
	})
}
