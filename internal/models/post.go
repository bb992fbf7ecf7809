package models

import "time"

// Category is the closed set of discussion categories a post can be
// assigned. Exactly one category is assigned per observation.
type Category string

const (
	CategoryEpisodeDiscussion Category = "episode_discussion"
	CategoryTrailerOrTeaser   Category = "trailer_or_teaser"
	CategoryHighEngagement    Category = "high_engagement_non_episode"
	CategoryUnclassified      Category = "unclassified"
)

// PostRecord is one sampled observation of a Reddit post's metadata.
type PostRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"` // fullname, e.g. t3_abc123
	Subreddit    string    `json:"subreddit"`
	Title        string    `json:"title"`
	Flair        string    `json:"flair,omitempty"`
	Author       string    `json:"author"`
	Permalink    string    `json:"permalink"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"`
	Score        int       `json:"score"`
	CommentCount int       `json:"comment_count"`

	// Derived per observation, not part of the raw payload.
	Category    Category `json:"category,omitempty"`
	EpisodeCode string   `json:"episode_code,omitempty"`
}

// Valid reports whether the record carries the fields every history
// entry requires. Invalid records are dropped from a batch, never fatal.
func (p PostRecord) Valid() bool {
	return p.ID != "" && !p.CreatedAt.IsZero()
}

// HistoryEntry is one immutable row of the comment-history ledger:
// a post's state as seen by one tracking run. Entries are only ever
// appended, never rewritten or deleted.
type HistoryEntry struct {
	PostID       string    `json:"post_id"`
	ObservedAt   time.Time `json:"observed_at"`
	Subreddit    string    `json:"subreddit"`
	Title        string    `json:"title"`
	Category     Category  `json:"category"`
	EpisodeCode  string    `json:"episode_code,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Score        int       `json:"score"`
	CommentCount int       `json:"comment_count"`
}

// RunSummary reports what one tracking run did. Per-record problems
// (malformed input, duplicate observations) show up here as counts
// rather than aborting the run.
type RunSummary struct {
	ObservedAt        time.Time    `json:"observed_at"`
	Seen              int          `json:"seen"`
	Malformed         int          `json:"malformed"`
	NewlyTracked      int          `json:"newly_tracked"`
	Reobserved        int          `json:"reobserved"`
	DuplicatesSkipped int          `json:"duplicates_skipped"`
	Selected          []PostRecord `json:"selected"`

	// Posts is the deduplicated, classified batch behind the counts.
	// Exporters read it; it is not part of the JSON summary.
	Posts []PostRecord `json:"-"`
}
