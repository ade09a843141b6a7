package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_history_store.go -package=mocks medassist/internal/storage HistoryStore

import (
	"context"
	"database/sql"
	"fmt"
)

// HistoryStore defines the interface for per-session history persistence.
type HistoryStore interface {
	// Append stores one exchange and sets its ID.
	Append(ctx context.Context, rec *HistoryRecord) error
	// ListBySession returns a session's exchanges oldest first.
	ListBySession(ctx context.Context, sessionID string) ([]HistoryRecord, error)
	// DeleteBySession removes every exchange of a session.
	DeleteBySession(ctx context.Context, sessionID string) error
}

// HistoryRepo provides methods for history operations.
// It implements the HistoryStore interface.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo creates a new HistoryRepo.
func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Append stores one exchange and sets its ID.
func (r *HistoryRepo) Append(ctx context.Context, rec *HistoryRecord) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO history (entry_id, session_id, query, report, created_at) VALUES (?, ?, ?, ?, ?)",
		rec.EntryID, rec.SessionID, rec.Query, rec.Report, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read history id: %w", err)
	}
	rec.ID = id
	return nil
}

// ListBySession returns a session's exchanges oldest first.
func (r *HistoryRepo) ListBySession(ctx context.Context, sessionID string) ([]HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, entry_id, session_id, query, report, created_at FROM history WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := []HistoryRecord{}
	for rows.Next() {
		var rec HistoryRecord
		if err := rows.Scan(&rec.ID, &rec.EntryID, &rec.SessionID, &rec.Query, &rec.Report, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// DeleteBySession removes every exchange of a session.
func (r *HistoryRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM history WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}
