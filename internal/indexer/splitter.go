package indexer

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"medassist/internal/rag"
)

// Default chunking parameters, in characters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// Splitter cuts page text into overlapping chunks labeled with their origin.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

// NewSplitter creates a Splitter. Non-positive values fall back to the defaults.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = min(DefaultChunkOverlap, chunkSize/2)
	}

	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// SplitPages chunks each page separately so every chunk maps to exactly one page.
func (s *Splitter) SplitPages(filename string, pages []Page) ([]rag.Chunk, error) {
	var chunks []rag.Chunk
	for _, page := range pages {
		parts, err := s.splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", page.Number, err)
		}

		label := SourceLabel(filename, page.Number)
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			chunks = append(chunks, rag.Chunk{Text: part, SourceLabel: label})
		}
	}
	return chunks, nil
}

// SourceLabel formats the provenance label of a chunk.
func SourceLabel(filename string, page int) string {
	return fmt.Sprintf("%s p.%d", filename, page)
}
