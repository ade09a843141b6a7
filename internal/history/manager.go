package history

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"medassist/internal/contextutil"
	"medassist/internal/rag"
	"medassist/internal/storage"
)

const (
	// DefaultMaxSessions is the number of session logs kept in memory.
	DefaultMaxSessions = 10000
	// DefaultSessionTTL is how long an idle session log stays in memory.
	DefaultSessionTTL = 24 * time.Hour
)

// Manager owns the history log of every session.
// Session logs live in a bounded LRU cache; the least recently used ones are
// evicted past the capacity and idle ones after the TTL. When a store is
// configured, entries are written through to it and an evicted or unseen
// session is loaded from it again on demand. Store failures are logged and
// never returned.
type Manager struct {
	mu       sync.Mutex // serializes Log access
	sessions *expirable.LRU[string, *Log]
	store    storage.HistoryStore
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	maxSessions int
	ttl         time.Duration
}

// WithCapacity bounds the number of in-memory session logs and their idle lifetime.
func WithCapacity(maxSessions int, ttl time.Duration) Option {
	return func(o *managerOptions) {
		if maxSessions > 0 {
			o.maxSessions = maxSessions
		}
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// NewManager creates a Manager. store may be nil for in-memory history.
func NewManager(store storage.HistoryStore, opts ...Option) *Manager {
	options := managerOptions{maxSessions: DefaultMaxSessions, ttl: DefaultSessionTTL}
	for _, opt := range opts {
		opt(&options)
	}
	return &Manager{
		sessions: expirable.NewLRU[string, *Log](options.maxSessions, nil, options.ttl),
		store:    store,
		now:      time.Now,
	}
}

// Append records query and its report for sessionID and returns the new entry.
func (m *Manager) Append(ctx context.Context, sessionID, query string, report rag.Report) Entry {
	entry := Entry{
		ID:        uuid.New().String(),
		Query:     query,
		Result:    report,
		CreatedAt: m.now().UTC(),
	}

	log := m.sessionLog(ctx, sessionID, true)
	m.mu.Lock()
	log.Append(entry)
	// Re-adding refreshes the idle TTL.
	m.sessions.Add(sessionID, log)
	m.mu.Unlock()

	if m.store != nil {
		m.persist(ctx, sessionID, entry)
	}
	return entry
}

// Recent returns the last n entries of sessionID, oldest first.
func (m *Manager) Recent(ctx context.Context, sessionID string, n int) []Entry {
	log := m.sessionLog(ctx, sessionID, false)
	if log == nil {
		return []Entry{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return log.Recent(n)
}

// Sessions returns the number of session logs held in memory.
func (m *Manager) Sessions() int {
	return m.sessions.Len()
}

// Clear empties the history of sessionID.
func (m *Manager) Clear(ctx context.Context, sessionID string) {
	m.mu.Lock()
	if log, ok := m.sessions.Peek(sessionID); ok {
		log.Clear()
	}
	m.sessions.Remove(sessionID)
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.DeleteBySession(ctx, sessionID); err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to clear persisted history", "error", err)
		}
	}
}

// sessionLog returns the cached log for sessionID, loading it from the store on a miss.
// A session with no entries is only cached when create is set, so reads of
// unknown sessions leave nothing behind. Returns nil for such reads.
func (m *Manager) sessionLog(ctx context.Context, sessionID string, create bool) *Log {
	m.mu.Lock()
	log, ok := m.sessions.Get(sessionID)
	m.mu.Unlock()
	if ok {
		return log
	}

	entries := m.loadPersisted(ctx, sessionID)
	if len(entries) == 0 && !create {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have loaded the session meanwhile.
	if existing, ok := m.sessions.Get(sessionID); ok {
		return existing
	}
	log = &Log{}
	for _, e := range entries {
		log.Append(e)
	}
	m.sessions.Add(sessionID, log)
	return log
}

func (m *Manager) loadPersisted(ctx context.Context, sessionID string) []Entry {
	if m.store == nil {
		return nil
	}

	logger := contextutil.LoggerFromContext(ctx)
	records, err := m.store.ListBySession(ctx, sessionID)
	if err != nil {
		logger.WarnContext(ctx, "failed to load persisted history", "error", err)
		return nil
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		var report rag.Report
		if err := json.Unmarshal([]byte(rec.Report), &report); err != nil {
			logger.WarnContext(ctx, "skipping unreadable history entry", "entry_id", rec.EntryID, "error", err)
			continue
		}
		if report.Evidence == nil {
			report.Evidence = []string{}
		}
		entries = append(entries, Entry{
			ID:        rec.EntryID,
			Query:     rec.Query,
			Result:    report,
			CreatedAt: rec.CreatedAt,
		})
	}
	logger.DebugContext(ctx, "history hydrated", "entries", len(entries))
	return entries
}

func (m *Manager) persist(ctx context.Context, sessionID string, entry Entry) {
	logger := contextutil.LoggerFromContext(ctx)

	payload, err := json.Marshal(entry.Result)
	if err != nil {
		logger.WarnContext(ctx, "failed to encode history entry", "error", err)
		return
	}
	rec := &storage.HistoryRecord{
		EntryID:   entry.ID,
		SessionID: sessionID,
		Query:     entry.Query,
		Report:    string(payload),
		CreatedAt: entry.CreatedAt,
	}
	if err := m.store.Append(ctx, rec); err != nil {
		logger.WarnContext(ctx, "failed to persist history entry", "error", err)
	}
}
