package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/covercraft/docrag/internal/domain"
)

// GenerationClient defines the generative-model capability consumed by
// the answerer. Generate never returns an empty completion with a nil
// error.
type GenerationClient interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// PassageRetriever is the retrieval seam the answerer depends on.
type PassageRetriever interface {
	Retrieve(ctx context.Context, collection, queryText string, k int) ([]domain.ScoredPassage, error)
}

const answerSystemPrompt = "You answer questions using only the provided context passages. " +
	"If the context does not contain the answer, say that plainly instead of guessing."

// Answerer combines retrieval with a generative model to produce an
// answer grounded on stored passages. The returned sources are exactly
// the passages placed in the grounding context, in retrieval order.
type Answerer struct {
	retriever PassageRetriever
	generator GenerationClient
}

func NewAnswerer(retriever PassageRetriever, generator GenerationClient) *Answerer {
	return &Answerer{
		retriever: retriever,
		generator: generator,
	}
}

// Answer retrieves the top passages for queryText and asks the model
// for an answer grounded on them. An empty retrieval result fails with
// ErrNoContext rather than answering from nothing; this policy is
// deliberate and consistent across calls.
func (a *Answerer) Answer(ctx context.Context, collection, queryText string) (*domain.AnswerResult, error) {
	retrieved, err := a.retriever.Retrieve(ctx, collection, queryText, 0)
	if err != nil {
		return nil, err
	}
	if len(retrieved) == 0 {
		return nil, domain.ErrNoContext
	}

	sources := make([]string, len(retrieved))
	for i, r := range retrieved {
		sources[i] = r.Passage.Content
	}

	answer, err := a.generator.Generate(ctx, answerSystemPrompt, buildAnswerPrompt(queryText, sources))
	if err != nil {
		return nil, err
	}

	return &domain.AnswerResult{
		Answer:  answer,
		Sources: sources,
	}, nil
}

func buildAnswerPrompt(queryText string, sources []string) string {
	var b strings.Builder
	b.WriteString("Context passages:\n\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, s)
	}
	b.WriteString("Question: ")
	b.WriteString(queryText)
	return b.String()
}
