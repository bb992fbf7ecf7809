package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/models"
)

// SQLiteStorage implements Storage using SQLite. One row per
// (post, run); the composite primary key is what enforces the
// append-only, no-duplicate guarantee.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// The ledger is a single-writer resource, and with :memory: paths
	// every pool connection would otherwise see its own database.
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: db}
	if err := storage.initDB(); err != nil {
		return nil, err
	}

	return storage, nil
}

// initDB initializes the database schema
func (s *SQLiteStorage) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS comment_history (
		post_id TEXT NOT NULL,
		observed_at TEXT NOT NULL,
		subreddit TEXT NOT NULL,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		episode_code TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		score INTEGER NOT NULL,
		comment_count INTEGER NOT NULL,
		PRIMARY KEY (post_id, observed_at)
	);

	CREATE INDEX IF NOT EXISTS idx_history_run ON comment_history(observed_at, post_id);
	CREATE INDEX IF NOT EXISTS idx_history_post ON comment_history(post_id, observed_at);
	`

	_, err := s.db.Exec(query)
	return err
}

// HasObservation checks whether an entry exists for this post at this run
func (s *SQLiteStorage) HasObservation(postID string, observedAt time.Time) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM comment_history WHERE post_id = ? AND observed_at = ?",
		postID, fmtTime(observedAt),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Append inserts one history entry. There is no upsert path: a key
// collision surfaces as ErrDuplicateObservation and the existing row
// is left untouched.
func (s *SQLiteStorage) Append(entry models.HistoryEntry) error {
	query := `
	INSERT INTO comment_history
		(post_id, observed_at, subreddit, title, category, episode_code, created_at, score, comment_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		entry.PostID,
		fmtTime(entry.ObservedAt),
		entry.Subreddit,
		entry.Title,
		string(entry.Category),
		entry.EpisodeCode,
		fmtTime(entry.CreatedAt),
		entry.Score,
		entry.CommentCount,
	)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateObservation
		}
	}
	return err
}

// HistoryFor returns the full growth curve for one post, ordered by observed_at
func (s *SQLiteStorage) HistoryFor(postID string) ([]models.HistoryEntry, error) {
	rows, err := s.db.Query(
		selectColumns+" WHERE post_id = ? ORDER BY observed_at",
		postID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// AllHistory returns the whole ledger ordered by (observed_at, post_id)
func (s *SQLiteStorage) AllHistory() ([]models.HistoryEntry, error) {
	rows, err := s.db.Query(selectColumns + " ORDER BY observed_at, post_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// LatestSnapshot maps each tracked post to its most recent entry
func (s *SQLiteStorage) LatestSnapshot() (map[string]models.HistoryEntry, error) {
	rows, err := s.db.Query(selectColumns + `
		WHERE (post_id, observed_at) IN (
			SELECT post_id, MAX(observed_at) FROM comment_history GROUP BY post_id
		)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	snapshot := make(map[string]models.HistoryEntry, len(entries))
	for _, e := range entries {
		snapshot[e.PostID] = e
	}
	return snapshot, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

const selectColumns = `SELECT post_id, observed_at, subreddit, title, category, episode_code, created_at, score, comment_count FROM comment_history`

func scanEntries(rows *sql.Rows) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var observedAt, createdAt, category string

		err := rows.Scan(
			&e.PostID,
			&observedAt,
			&e.Subreddit,
			&e.Title,
			&category,
			&e.EpisodeCode,
			&createdAt,
			&e.Score,
			&e.CommentCount,
		)
		if err != nil {
			return nil, err
		}

		e.Category = models.Category(category)
		e.ObservedAt, _ = time.Parse(time.RFC3339, observedAt)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// fmtTime stores timestamps as UTC RFC3339 so lexicographic ordering in
// SQL matches chronological ordering.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
