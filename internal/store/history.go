package store

import (
	"fmt"
	"sync"
	"time"
)

// Entry is one dispatched console line.
type Entry struct {
	ID        string        `json:"id"`
	Line      string        `json:"line"`
	Command   string        `json:"command,omitempty"`
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration"`
	Source    string        `json:"source,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// HistoryStore records dispatched lines.
type HistoryStore interface {
	Record(e Entry) error
	// Recent returns up to limit entries, newest first. limit <= 0 means all.
	Recent(limit int) ([]Entry, error)
	Close() error
}

// SQLiteHistory implements HistoryStore on a DB.
type SQLiteHistory struct {
	db *DB
}

// NewSQLiteHistory creates a history store using the given database.
func NewSQLiteHistory(db *DB) *SQLiteHistory {
	return &SQLiteHistory{db: db}
}

func (h *SQLiteHistory) Record(e Entry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := h.db.sql.Exec(
		`INSERT INTO history (id, line, command, status, message, duration_us, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Line, e.Command, e.Status, e.Message, e.Duration.Microseconds(), e.Source,
		ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording history: %w", err)
	}
	return nil
}

func (h *SQLiteHistory) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.sql.Query(
		`SELECT id, line, command, status, message, duration_us, source, created_at
		 FROM history ORDER BY seq DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var us int64
		var ts string
		if err := rows.Scan(&e.ID, &e.Line, &e.Command, &e.Status, &e.Message, &us, &e.Source, &ts); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		e.Duration = time.Duration(us) * time.Microsecond
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

// MemoryHistory keeps at most max entries in process memory.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

// NewMemoryHistory creates an in-memory store. max <= 0 keeps everything.
func NewMemoryHistory(max int) *MemoryHistory {
	return &MemoryHistory{max: max}
}

func (m *MemoryHistory) Record(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if m.max > 0 && len(m.entries) > m.max {
		m.entries = append(m.entries[:0:0], m.entries[len(m.entries)-m.max:]...)
	}
	return nil
}

func (m *MemoryHistory) Recent(limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *MemoryHistory) Close() error { return nil }

var (
	_ HistoryStore = (*SQLiteHistory)(nil)
	_ HistoryStore = (*MemoryHistory)(nil)
)
