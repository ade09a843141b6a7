package rag

import "strings"

// Dedup keeps the first occurrence of each distinct trimmed chunk text, preserving order.
// The returned set is never nil.
func Dedup(chunks []Chunk) EvidenceSet {
	unique := make(EvidenceSet, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		key := strings.TrimSpace(chunk.Text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, chunk)
	}
	return unique
}
