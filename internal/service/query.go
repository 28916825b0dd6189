package service

import (
	"context"

	"github.com/covercraft/docrag/internal/domain"
)

// AnswerProvider is the answering seam the query service binds to.
type AnswerProvider interface {
	Answer(ctx context.Context, collection, queryText string) (*domain.AnswerResult, error)
}

// QueryService is the orchestration seam the external interface binds
// to. It holds no state beyond its answerer.
type QueryService struct {
	answerer AnswerProvider
}

func NewQueryService(answerer AnswerProvider) *QueryService {
	return &QueryService{answerer: answerer}
}

func (s *QueryService) Query(ctx context.Context, collection, queryText string) (*domain.AnswerResult, error) {
	return s.answerer.Answer(ctx, collection, queryText)
}
