package rag

import "strings"

const (
	// LabelKnowledgeBase heads evidence retrieved from the vector store.
	LabelKnowledgeBase = "From Medical Knowledge Base:"
	// LabelWebSearch heads evidence fetched by the web-search collaborator.
	LabelWebSearch = "From Web Search:"

	// ChunkSeparator separates passages from the same source.
	ChunkSeparator = "\n\n---\n\n"
	// SourceSeparator separates blocks from different sources.
	SourceSeparator = "\n\n==========\n\n"
)

// Source is one labeled evidence input to Compose.
type Source struct {
	Label    string
	Evidence EvidenceSet
}

// Compose merges the non-empty sources into one labeled text block.
// It returns "" when no source has evidence; callers must skip generation in that case.
func Compose(sources []Source) string {
	blocks := make([]string, 0, len(sources))
	for _, src := range sources {
		if len(src.Evidence) == 0 {
			continue
		}
		blocks = append(blocks, src.Label+"\n\n"+strings.Join(src.Evidence.Texts(), ChunkSeparator))
	}
	return strings.Join(blocks, SourceSeparator)
}
