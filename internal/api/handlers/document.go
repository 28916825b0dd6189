package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/covercraft/docrag/internal/api"
	"github.com/covercraft/docrag/internal/domain"
)

// Ingestor turns raw document text into stored passages.
type Ingestor interface {
	Ingest(ctx context.Context, collection, text string) (int, error)
}

// Querier answers a natural-language query from stored passages.
type Querier interface {
	Query(ctx context.Context, collection, queryText string) (*domain.AnswerResult, error)
}

// PassageRemover deletes stored passages for corpus maintenance.
type PassageRemover interface {
	Delete(ctx context.Context, collection string, ids []string) (int, error)
}

// DocumentHandler exposes ingestion, querying and passage maintenance
// over a single fixed collection.
type DocumentHandler struct {
	ingestor   Ingestor
	querier    Querier
	remover    PassageRemover
	collection string
}

func NewDocumentHandler(ingestor Ingestor, querier Querier, remover PassageRemover, collection string) *DocumentHandler {
	return &DocumentHandler{
		ingestor:   ingestor,
		querier:    querier,
		remover:    remover,
		collection: collection,
	}
}

type ProcessDocumentRequest struct {
	Text string `json:"text"`
}

type ProcessDocumentResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// DetailResponse is the error body for document processing failures.
type DetailResponse struct {
	Detail string `json:"detail"`
}

func (h *DocumentHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	var req ProcessDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.JSON(w, http.StatusBadRequest, DetailResponse{Detail: "invalid request body"})
		return
	}

	count, err := h.ingestor.Ingest(r.Context(), h.collection, req.Text)
	if err != nil {
		api.JSON(w, api.DomainErrorToHTTP(err), DetailResponse{Detail: err.Error()})
		return
	}

	api.JSON(w, http.StatusOK, ProcessDocumentResponse{
		Message: "document processed and embeddings stored",
		Count:   count,
	})
}

type QueryDocumentRequest struct {
	Query string `json:"query"`
}

type QueryDocumentResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

func (h *DocumentHandler) QueryDocument(w http.ResponseWriter, r *http.Request) {
	var req QueryDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.querier.Query(r.Context(), h.collection, req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}

	api.JSON(w, http.StatusOK, QueryDocumentResponse{
		Answer:  result.Answer,
		Sources: sources,
	})
}

type DeletePassagesRequest struct {
	IDs []string `json:"ids"`
}

type DeletePassagesResponse struct {
	Deleted int `json:"deleted"`
}

func (h *DocumentHandler) DeletePassages(w http.ResponseWriter, r *http.Request) {
	var req DeletePassagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		api.Error(w, http.StatusBadRequest, "ids are required")
		return
	}

	deleted, err := h.remover.Delete(r.Context(), h.collection, req.IDs)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, DeletePassagesResponse{Deleted: deleted})
}
