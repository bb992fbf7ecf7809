package tracker

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/classifier"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/models"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/storage"
)

// Engine turns one retrieval batch into ledger entries and the derived
// selected-posts view. It holds no run state of its own: every run is a
// function of (batch, observedAt, store).
type Engine struct {
	classifier *classifier.Classifier
	store      storage.Storage
}

// New creates a tracking engine
func New(c *classifier.Classifier, s storage.Storage) *Engine {
	return &Engine{classifier: c, store: s}
}

// Run processes one retrieval batch at one observation instant.
// Malformed records and duplicate observations are counted in the
// summary and skipped; only a store failure aborts the run.
func (e *Engine) Run(batch []models.PostRecord, observedAt time.Time) (*models.RunSummary, error) {
	summary := &models.RunSummary{ObservedAt: observedAt, Seen: len(batch)}

	// One snapshot up front tells new posts from re-observed ones
	// without a per-post query.
	snapshot, err := e.store.LatestSnapshot()
	if err != nil {
		return nil, fmt.Errorf("history store unavailable: %w", err)
	}

	records := e.dedupe(batch, summary)

	for i := range records {
		records[i].Category = e.classifier.Classify(records[i])
		records[i].EpisodeCode = e.classifier.EpisodeCode(
			strings.TrimSpace(records[i].Title + " " + records[i].Flair))
	}

	for _, rec := range records {
		entry := models.HistoryEntry{
			PostID:       rec.ID,
			ObservedAt:   observedAt,
			Subreddit:    rec.Subreddit,
			Title:        rec.Title,
			Category:     rec.Category,
			EpisodeCode:  rec.EpisodeCode,
			CreatedAt:    rec.CreatedAt,
			Score:        rec.Score,
			CommentCount: rec.CommentCount,
		}

		err := e.store.Append(entry)
		switch {
		case err == nil:
			if _, seen := snapshot[rec.ID]; seen {
				summary.Reobserved++
			} else {
				summary.NewlyTracked++
			}
		case errors.Is(err, storage.ErrDuplicateObservation):
			log.Printf("Skipping duplicate observation for post %s at %s", rec.ID, observedAt.Format(time.RFC3339))
			summary.DuplicatesSkipped++
		default:
			return nil, fmt.Errorf("appending post %s: %w", rec.ID, err)
		}
	}

	summary.Posts = records
	summary.Selected = selectPosts(records)
	return summary, nil
}

// dedupe drops malformed records and collapses repeats of the same post
// within one batch (the same thread can match several search queries),
// keeping the copy with the higher comment count as the freshest read.
func (e *Engine) dedupe(batch []models.PostRecord, summary *models.RunSummary) []models.PostRecord {
	index := make(map[string]int, len(batch))
	var records []models.PostRecord

	for _, rec := range batch {
		if !rec.Valid() {
			summary.Malformed++
			continue
		}
		if i, ok := index[rec.ID]; ok {
			if rec.CommentCount > records[i].CommentCount {
				records[i] = rec
			}
			continue
		}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}

	return records
}

// selectPosts builds the per-run notable view: episode discussion plus
// high-engagement posts, most commented first, older posts winning ties
// so sustained threads beat brand-new ones.
func selectPosts(records []models.PostRecord) []models.PostRecord {
	var selected []models.PostRecord
	for _, rec := range records {
		if rec.Category == models.CategoryEpisodeDiscussion || rec.Category == models.CategoryHighEngagement {
			selected = append(selected, rec)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].CommentCount != selected[j].CommentCount {
			return selected[i].CommentCount > selected[j].CommentCount
		}
		return selected[i].CreatedAt.Before(selected[j].CreatedAt)
	})

	return selected
}
