package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks medassist/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// Insert stores a new document. A missing ID is generated.
	// Returns ErrDuplicate if a document with the same hash exists.
	Insert(ctx context.Context, doc *DocumentRecord) error
	// GetByID gets a document by ID. Returns nil and ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*DocumentRecord, error)
	// GetByHash gets a document by content hash. Returns nil and ErrNotFound if not found.
	GetByHash(ctx context.Context, hash string) (*DocumentRecord, error)
	// UpdateCounts records the page and chunk counts after indexing.
	UpdateCounts(ctx context.Context, id string, pageCount, chunkCount int) error
	// List returns all documents, newest first.
	List(ctx context.Context) ([]DocumentRecord, error)
	// Delete removes a document and, by cascade, its chunks.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = "id, filename, stored_path, hash, page_count, chunk_count, created_at"

func scanDocument(row interface{ Scan(...any) error }) (*DocumentRecord, error) {
	var doc DocumentRecord
	err := row.Scan(&doc.ID, &doc.Filename, &doc.StoredPath, &doc.Hash, &doc.PageCount, &doc.ChunkCount, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Insert stores a new document. A missing ID is generated.
func (r *DocumentRepo) Insert(ctx context.Context, doc *DocumentRecord) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, stored_path, hash, page_count, chunk_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		doc.ID, doc.Filename, doc.StoredPath, doc.Hash, doc.PageCount, doc.ChunkCount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to insert document: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// GetByID gets a document by ID. Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*DocumentRecord, error) {
	doc, err := scanDocument(r.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// GetByHash gets a document by content hash. Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetByHash(ctx context.Context, hash string) (*DocumentRecord, error) {
	doc, err := scanDocument(r.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE hash = ?", hash,
	))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// UpdateCounts records the page and chunk counts after indexing.
func (r *DocumentRepo) UpdateCounts(ctx context.Context, id string, pageCount, chunkCount int) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE documents SET page_count = ?, chunk_count = ? WHERE id = ?",
		pageCount, chunkCount, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document counts: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all documents, newest first.
func (r *DocumentRepo) List(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY created_at DESC, filename",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []DocumentRecord{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// Delete removes a document and, by cascade, its chunks.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
