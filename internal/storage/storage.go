package storage

import (
	"errors"
	"time"

	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/models"
)

// ErrDuplicateObservation is returned by Append when an entry for the
// same (post_id, observed_at) key already exists. The ledger is
// append-only: a collision is skipped by the caller, never overwritten.
var ErrDuplicateObservation = errors.New("duplicate observation")

// Storage defines the interface for the comment-history ledger
type Storage interface {
	// HasObservation checks whether an entry exists for this post at this run
	HasObservation(postID string, observedAt time.Time) (bool, error)

	// Append adds one history entry. It fails with ErrDuplicateObservation
	// on a (post_id, observed_at) collision and never rewrites prior rows.
	Append(entry models.HistoryEntry) error

	// HistoryFor returns the full growth curve for one post,
	// ordered by observed_at
	HistoryFor(postID string) ([]models.HistoryEntry, error)

	// AllHistory returns the whole ledger ordered by (observed_at, post_id)
	AllHistory() ([]models.HistoryEntry, error)

	// LatestSnapshot maps each tracked post to its most recent entry
	LatestSnapshot() (map[string]models.HistoryEntry, error)

	// Close closes the storage connection
	Close() error
}
