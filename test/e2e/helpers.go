//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/covercraft/docrag/internal/api/handlers"
	"github.com/covercraft/docrag/internal/repository"
	"github.com/covercraft/docrag/internal/server"
	"github.com/covercraft/docrag/internal/service"
	"github.com/covercraft/docrag/internal/testutil"
)

const testCollection = "docrag"

// E2ETestEnv holds all resources needed for end-to-end tests.
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	Pool       *pgxpool.Pool
	Server     *httptest.Server
	HTTPClient *http.Client
}

// SetupE2EEnv starts a pgvector container, runs migrations and serves
// the real router in-process. Embedding and generation are backed by
// deterministic local fakes so no network credentials are needed.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	repo := repository.NewPassageRepository(pool)
	embedder := &wordHashEmbedder{dimensions: 1536}
	generator := &echoGenerator{}

	chunkCfg := service.DefaultChunkConfig()
	ingestion := service.NewIngestionService(embedder, repo, chunkCfg)
	retriever := service.NewRetriever(embedder, repo, 3)
	answerer := service.NewAnswerer(retriever, generator)
	querySvc := service.NewQueryService(answerer)

	handler := handlers.NewDocumentHandler(ingestion, querySvc, repo, testCollection)
	ts := httptest.NewServer(server.NewRouter(server.RouterConfig{DocumentHandler: handler}))

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		Pool:       pool,
		Server:     ts,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources.
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// Reset truncates all tables between test cases.
func (e *E2ETestEnv) Reset() {
	if err := testutil.TruncateAll(e.Ctx, e.Pool); err != nil {
		e.T.Fatalf("failed to truncate tables: %v", err)
	}
}

// PostJSON performs a JSON request and returns status plus raw body.
func (e *E2ETestEnv) PostJSON(method, path string, body interface{}) (int, []byte) {
	e.T.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.T.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.Server.URL+path, reqBody)
	if err != nil {
		e.T.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response body: %v", err)
	}
	return resp.StatusCode, data
}

// wordHashEmbedder maps each word onto a hashed axis, so texts sharing
// words get similar vectors. Deterministic across runs.
type wordHashEmbedder struct {
	dimensions int
}

func (f *wordHashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, f.dimensions)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(strings.Trim(word, ".,!?")))
			vec[int(h.Sum32())%f.dimensions]++
		}
		normalize(vec)
		out[i] = vec
	}
	return out, nil
}

func normalize(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
}

// echoGenerator returns a canned answer that embeds the user prompt,
// so tests can assert the grounding context reached the model.
type echoGenerator struct{}

func (g *echoGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	return fmt.Sprintf("generated answer for: %s", user), nil
}
