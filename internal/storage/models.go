package storage

import "time"

// DocumentRecord represents an uploaded PDF in the database.
type DocumentRecord struct {
	ID         string // UUID
	Filename   string // Original upload name
	StoredPath string // Location under the upload directory
	Hash       string // SHA256 hex string of file content
	PageCount  int
	ChunkCount int
	CreatedAt  time.Time
}

// ChunkRecord represents a chunk of document text, indexed for vector search.
type ChunkRecord struct {
	ID          string // UUID (same as vector point ID)
	DocumentID  string // UUID (foreign key to documents.id)
	ChunkIndex  int    // Index within document (starts at 0)
	SourceLabel string // Format: "<filename> p.<page>"
	Text        string
}

// HistoryRecord is one persisted query/report exchange.
type HistoryRecord struct {
	ID        int64
	EntryID   string // UUID shown to clients
	SessionID string
	Query     string
	Report    string // JSON-encoded report
	CreatedAt time.Time
}
