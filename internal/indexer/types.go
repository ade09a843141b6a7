package indexer

// IndexResult summarizes one indexed document.
type IndexResult struct {
	DocumentID string          `json:"document_id"`
	Filename   string          `json:"filename"`
	Pages      int             `json:"pages"`
	Chunks     int             `json:"chunks"`
	Duplicate  bool            `json:"duplicate"` // Same content was already indexed
	TokenStats ChunkTokenStats `json:"token_stats"`
}
