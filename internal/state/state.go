// ABOUTME: SQLite-backed store for per-article read/deleted state
// ABOUTME: Keys entries by feedURL::link and prunes them on a retention clock

package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harper/feedvault/internal/models"
)

// millisPerDay converts retentionDays into the prune cutoff.
const millisPerDay = 24 * 60 * 60 * 1000

// Entry is the state recorded for one article.
type Entry struct {
	Read       bool
	Deleted    bool
	LastUpdate int64 // epoch millis of the last state change, the retention clock
}

// Store persists article state. It never touches article files: "deleted"
// is a logical tombstone consulted before re-materializing content, not a
// file deletion.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the state database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS article_state (
		id TEXT PRIMARY KEY,
		read INTEGER NOT NULL DEFAULT 0,
		deleted INTEGER NOT NULL DEFAULT 0,
		last_update INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the state for an article, and whether any state exists.
func (s *Store) Get(feedURL, link string) (Entry, bool, error) {
	var e Entry
	row := s.db.QueryRow(
		`SELECT read, deleted, last_update FROM article_state WHERE id = ?`,
		models.StateKey(feedURL, link),
	)
	if err := row.Scan(&e.Read, &e.Deleted, &e.LastUpdate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("get article state: %w", err)
	}
	return e, true, nil
}

// MarkRead records an article as read, preserving its deleted flag.
func (s *Store) MarkRead(feedURL, link string) error {
	return s.setFlag(feedURL, link, "read", true)
}

// MarkUnread clears an article's read flag, preserving its deleted flag.
func (s *Store) MarkUnread(feedURL, link string) error {
	return s.setFlag(feedURL, link, "read", false)
}

// MarkDeleted tombstones an article so re-syncing never recreates it,
// preserving its read flag.
func (s *Store) MarkDeleted(feedURL, link string) error {
	return s.setFlag(feedURL, link, "deleted", true)
}

func (s *Store) setFlag(feedURL, link, column string, value bool) error {
	v := 0
	if value {
		v = 1
	}
	now := time.Now().UnixMilli()

	// column is one of the two fixed flag names, never user input.
	query := fmt.Sprintf(`
		INSERT INTO article_state (id, %s, last_update) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET %s = excluded.%s, last_update = excluded.last_update`,
		column, column, column)

	if _, err := s.db.Exec(query, models.StateKey(feedURL, link), v, now); err != nil {
		return fmt.Errorf("update article state: %w", err)
	}
	return nil
}

// Prune removes every entry whose last update is older than
// retentionDays, returning the number removed. Scheduling the call is the
// caller's responsibility.
func (s *Store) Prune(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UnixMilli() - int64(retentionDays)*millisPerDay

	result, err := s.db.Exec(`DELETE FROM article_state WHERE last_update < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune article state: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune article state: %w", err)
	}
	return removed, nil
}

// Count returns the number of state entries, for diagnostics.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM article_state`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count article state: %w", err)
	}
	return n, nil
}

// setLastUpdate backdates an entry's retention clock. Used by tests.
func (s *Store) setLastUpdate(feedURL, link string, ts int64) error {
	_, err := s.db.Exec(
		`UPDATE article_state SET last_update = ? WHERE id = ?`,
		ts, models.StateKey(feedURL, link),
	)
	return err
}
