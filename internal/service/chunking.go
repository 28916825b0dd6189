package service

import (
	"strings"
	"unicode"

	"github.com/covercraft/docrag/internal/domain"
)

// ChunkConfig controls how documents are split into passages.
type ChunkConfig struct {
	MaxChars int
	MinChars int
	Overlap  int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 1200,
		MinChars: 400,
		Overlap:  200,
	}
}

// SplitDocument splits document text into ordered, non-empty chunks.
// Paragraphs (blank-line separated) are the primary split unit; a
// paragraph longer than MaxChars is further split on a rune window
// that prefers to cut at whitespace. The same input and config always
// produce the same chunk sequence.
func SplitDocument(text string, cfg ChunkConfig) ([]domain.Chunk, error) {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}

	var chunks []domain.Chunk
	for _, paragraph := range splitParagraphs(text) {
		for _, piece := range splitBySize(paragraph, cfg) {
			chunks = append(chunks, domain.Chunk{Index: len(chunks), Text: piece})
		}
	}

	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	return chunks, nil
}

func splitParagraphs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(normalized, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

func splitBySize(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	pieces := make([]string, 0, 4)
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			cut := end
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		if end <= start {
			break
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			pieces = append(pieces, piece)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			nextStart = end - cfg.Overlap
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return pieces
}
