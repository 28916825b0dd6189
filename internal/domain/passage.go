package domain

import "time"

// Document is raw text handed to ingestion. It exists only for the
// duration of the ingestion call; only its chunks are persisted.
type Document struct {
	ID   string
	Text string
}

// Chunk is a contiguous, non-empty passage of a document's text.
// Index records its position in source order.
type Chunk struct {
	Index int
	Text  string
}

// PassageInput is one chunk plus its embedding, ready to be written
// to a collection.
type PassageInput struct {
	ChunkIndex int
	Content    string
	Embedding  []float32
	Metadata   map[string]string
}

// StoredPassage is the durable retrieval unit owned by the store.
type StoredPassage struct {
	ID         string
	Collection string
	ChunkIndex int
	Content    string
	Embedding  []float32
	Metadata   map[string]string
	CreatedAt  time.Time
}

// ScoredPassage pairs a stored passage with its similarity score for
// one query. Scores are cosine similarity; comparing scores produced
// under different metrics is meaningless.
type ScoredPassage struct {
	Passage StoredPassage
	Score   float32
}

// AnswerResult is a generated answer plus the literal text of every
// passage that was placed in the grounding context, in retrieval order.
type AnswerResult struct {
	Answer  string
	Sources []string
}
