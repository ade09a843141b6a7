package history

import (
	"time"

	"medassist/internal/rag"
)

const (
	// DisplayLimit is the number of entries shown to a session.
	DisplayLimit = 10
	// MaxEntries is the number of entries a Log keeps in memory; older ones are dropped.
	MaxEntries = 100
)

// Entry is one analyze exchange.
type Entry struct {
	ID        string     `json:"id"`
	Query     string     `json:"query"`
	Result    rag.Report `json:"result"`
	CreatedAt time.Time  `json:"created_at"`
}

// Log is an append-only sequence of entries for a single session.
// It is not safe for concurrent use; Manager serializes access.
type Log struct {
	entries []Entry
}

// Append adds e to the end of the log, dropping the oldest entry past MaxEntries.
func (l *Log) Append(e Entry) {
	l.entries = append(l.entries, e)
	if over := len(l.entries) - MaxEntries; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
}

// Recent returns the last n entries, oldest first.
func (l *Log) Recent(n int) []Entry {
	if n <= 0 {
		return []Entry{}
	}
	start := len(l.entries) - n
	if start < 0 {
		start = 0
	}
	return copyEntries(l.entries[start:])
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Clear removes every entry.
func (l *Log) Clear() {
	l.entries = nil
}

func copyEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
