package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/covercraft/docrag/internal/domain"
)

type MockIngestor struct {
	mock.Mock
}

func (m *MockIngestor) Ingest(ctx context.Context, collection, text string) (int, error) {
	args := m.Called(ctx, collection, text)
	return args.Int(0), args.Error(1)
}

type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) Query(ctx context.Context, collection, queryText string) (*domain.AnswerResult, error) {
	args := m.Called(ctx, collection, queryText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnswerResult), args.Error(1)
}

type MockPassageRemover struct {
	mock.Mock
}

func (m *MockPassageRemover) Delete(ctx context.Context, collection string, ids []string) (int, error) {
	args := m.Called(ctx, collection, ids)
	return args.Int(0), args.Error(1)
}

type handlerMocks struct {
	ingestor *MockIngestor
	querier  *MockQuerier
	remover  *MockPassageRemover
}

func newTestHandler() (*DocumentHandler, handlerMocks) {
	m := handlerMocks{
		ingestor: new(MockIngestor),
		querier:  new(MockQuerier),
		remover:  new(MockPassageRemover),
	}
	return NewDocumentHandler(m.ingestor, m.querier, m.remover, "docrag"), m
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestProcessDocument_Success(t *testing.T) {
	h, m := newTestHandler()
	m.ingestor.On("Ingest", mock.Anything, "docrag", "Cats purr.\n\nDogs bark.").Return(2, nil)

	rec := postJSON(t, h.ProcessDocument, `{"text":"Cats purr.\n\nDogs bark."}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ProcessDocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "document processed and embeddings stored", resp.Message)
	assert.Equal(t, 2, resp.Count)

	m.ingestor.AssertExpectations(t)
}

func TestProcessDocument_InvalidBody(t *testing.T) {
	h, m := newTestHandler()

	rec := postJSON(t, h.ProcessDocument, `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp DetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Detail)

	m.ingestor.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDocument_EmptyDocument(t *testing.T) {
	h, m := newTestHandler()
	m.ingestor.On("Ingest", mock.Anything, "docrag", "").Return(0, domain.ErrEmptyDocument)

	rec := postJSON(t, h.ProcessDocument, `{"text":""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp DetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Detail)
}

func TestProcessDocument_EmbeddingFailure(t *testing.T) {
	h, m := newTestHandler()
	m.ingestor.On("Ingest", mock.Anything, "docrag", "doc").
		Return(0, fmt.Errorf("%w: 503", domain.ErrEmbeddingProvider))

	rec := postJSON(t, h.ProcessDocument, `{"text":"doc"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp DetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Detail)
}

func TestProcessDocument_UpstreamTimeout(t *testing.T) {
	h, m := newTestHandler()
	m.ingestor.On("Ingest", mock.Anything, "docrag", "doc").
		Return(0, fmt.Errorf("%w: context deadline exceeded", domain.ErrUpstreamTimeout))

	rec := postJSON(t, h.ProcessDocument, `{"text":"doc"}`)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestQueryDocument_Success(t *testing.T) {
	h, m := newTestHandler()
	m.querier.On("Query", mock.Anything, "docrag", "what do cats do").
		Return(&domain.AnswerResult{
			Answer:  "Cats purr.",
			Sources: []string{"Cats purr when content.", "Cats sleep most of the day."},
		}, nil)

	rec := postJSON(t, h.QueryDocument, `{"query":"what do cats do"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp QueryDocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Cats purr.", resp.Answer)
	assert.Equal(t, []string{"Cats purr when content.", "Cats sleep most of the day."}, resp.Sources)
}

func TestQueryDocument_NilSourcesSerializeAsEmptyArray(t *testing.T) {
	h, m := newTestHandler()
	m.querier.On("Query", mock.Anything, "docrag", "q").
		Return(&domain.AnswerResult{Answer: "a"}, nil)

	rec := postJSON(t, h.QueryDocument, `{"query":"q"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sources":[]`)
}

func TestQueryDocument_MissingQuery(t *testing.T) {
	h, m := newTestHandler()

	rec := postJSON(t, h.QueryDocument, `{"query":""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	m.querier.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestQueryDocument_NoContext(t *testing.T) {
	h, m := newTestHandler()
	m.querier.On("Query", mock.Anything, "docrag", "unanswerable").
		Return(nil, domain.ErrNoContext)

	rec := postJSON(t, h.QueryDocument, `{"query":"unanswerable"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestQueryDocument_GenerationFailure(t *testing.T) {
	h, m := newTestHandler()
	m.querier.On("Query", mock.Anything, "docrag", "q").
		Return(nil, fmt.Errorf("%w: 500", domain.ErrGeneration))

	rec := postJSON(t, h.QueryDocument, `{"query":"q"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDeletePassages_Success(t *testing.T) {
	h, m := newTestHandler()
	m.remover.On("Delete", mock.Anything, "docrag", []string{"id-1", "id-2"}).Return(2, nil)

	req := httptest.NewRequest(http.MethodDelete, "/", bytes.NewBufferString(`{"ids":["id-1","id-2"]}`))
	rec := httptest.NewRecorder()
	h.DeletePassages(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp DeletePassagesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Deleted)
}

func TestDeletePassages_MissingIDs(t *testing.T) {
	h, m := newTestHandler()

	req := httptest.NewRequest(http.MethodDelete, "/", bytes.NewBufferString(`{"ids":[]}`))
	rec := httptest.NewRecorder()
	h.DeletePassages(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m.remover.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeletePassages_UnknownCollection(t *testing.T) {
	h, m := newTestHandler()
	m.remover.On("Delete", mock.Anything, "docrag", []string{"id-1"}).
		Return(0, domain.ErrCollectionNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/", bytes.NewBufferString(`{"ids":["id-1"]}`))
	rec := httptest.NewRecorder()
	h.DeletePassages(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
