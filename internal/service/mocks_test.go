package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/covercraft/docrag/internal/domain"
)

type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type MockPassageStore struct {
	mock.Mock
}

func (m *MockPassageStore) UpsertBatch(ctx context.Context, collection string, passages []domain.PassageInput) ([]string, error) {
	args := m.Called(ctx, collection, passages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPassageStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredPassage, error) {
	args := m.Called(ctx, collection, vector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredPassage), args.Error(1)
}

func (m *MockPassageStore) Delete(ctx context.Context, collection string, ids []string) (int, error) {
	args := m.Called(ctx, collection, ids)
	return args.Int(0), args.Error(1)
}

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, collection, queryText string, k int) ([]domain.ScoredPassage, error) {
	args := m.Called(ctx, collection, queryText, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScoredPassage), args.Error(1)
}

type MockGenerationClient struct {
	mock.Mock
}

func (m *MockGenerationClient) Generate(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

type MockAnswerProvider struct {
	mock.Mock
}

func (m *MockAnswerProvider) Answer(ctx context.Context, collection, queryText string) (*domain.AnswerResult, error) {
	args := m.Called(ctx, collection, queryText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnswerResult), args.Error(1)
}
