package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/models"
)

// Exporter renders already-classified, already-merged data into the
// out directory: CSV tables plus the HTML dashboard. It never touches
// the ledger itself; it only formats query results.
type Exporter struct {
	dir      string
	slug     string
	showName string
	otherN   int
}

// New creates an exporter writing under dir
func New(dir, slug, showName string, otherN int) *Exporter {
	return &Exporter{dir: dir, slug: slug, showName: showName, otherN: otherN}
}

func (e *Exporter) path(suffix string) string {
	return filepath.Join(e.dir, fmt.Sprintf("%s_%s", e.slug, suffix))
}

// WriteAllPosts writes every post from the latest batch
func (e *Exporter) WriteAllPosts(posts []models.PostRecord) error {
	rows := [][]string{{"id", "subreddit", "created_iso", "title", "category", "episode_code", "num_comments", "score", "author", "permalink", "url"}}
	for _, p := range posts {
		rows = append(rows, []string{
			p.ID, p.Subreddit, isoTime(p.CreatedAt), p.Title,
			string(p.Category), p.EpisodeCode,
			strconv.Itoa(p.CommentCount), strconv.Itoa(p.Score),
			p.Author, p.Permalink, p.URL,
		})
	}
	return writeCSV(e.path("all_posts.csv"), rows)
}

// WriteEpisodePosts writes the episode threads sorted by episode code,
// then creation time
func (e *Exporter) WriteEpisodePosts(posts []models.PostRecord) error {
	eps := EpisodePosts(posts)
	rows := [][]string{{"episode_code", "subreddit", "id", "created_iso", "title", "num_comments", "score", "permalink"}}
	for _, p := range eps {
		rows = append(rows, []string{
			p.EpisodeCode, p.Subreddit, p.ID, isoTime(p.CreatedAt), p.Title,
			strconv.Itoa(p.CommentCount), strconv.Itoa(p.Score), p.Permalink,
		})
	}
	return writeCSV(e.path("episode_posts.csv"), rows)
}

// WriteSelectedPosts writes the selected view, with the best trailer
// thread on top when one exists
func (e *Exporter) WriteSelectedPosts(selected []models.PostRecord, trailer *models.PostRecord) error {
	rows := [][]string{{"category", "subreddit", "episode_code", "id", "created_iso", "title", "num_comments", "score", "permalink"}}
	appendRow := func(p models.PostRecord) {
		rows = append(rows, []string{
			string(p.Category), p.Subreddit, p.EpisodeCode, p.ID, isoTime(p.CreatedAt),
			p.Title, strconv.Itoa(p.CommentCount), strconv.Itoa(p.Score), p.Permalink,
		})
	}
	if trailer != nil {
		appendRow(*trailer)
	}
	for _, p := range selected {
		appendRow(p)
	}
	return writeCSV(e.path("selected_posts.csv"), rows)
}

// WriteHistory exports the whole ledger ordered by (observed_at, post_id)
func (e *Exporter) WriteHistory(entries []models.HistoryEntry) error {
	rows := [][]string{{"observed_at", "post_id", "subreddit", "category", "episode_code", "title", "num_comments", "score", "created_iso"}}
	for _, h := range entries {
		rows = append(rows, []string{
			isoTime(h.ObservedAt), h.PostID, h.Subreddit, string(h.Category), h.EpisodeCode,
			h.Title, strconv.Itoa(h.CommentCount), strconv.Itoa(h.Score), isoTime(h.CreatedAt),
		})
	}
	return writeCSV(e.path("comment_history.csv"), rows)
}

// BestTrailer picks the most discussed trailer thread, score breaking
// ties. Returns nil when the batch has none.
func BestTrailer(posts []models.PostRecord) *models.PostRecord {
	var best *models.PostRecord
	for i := range posts {
		p := &posts[i]
		if p.Category != models.CategoryTrailerOrTeaser {
			continue
		}
		if best == nil ||
			p.CommentCount > best.CommentCount ||
			(p.CommentCount == best.CommentCount && p.Score > best.Score) {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	picked := *best
	return &picked
}

// EpisodePosts filters episode threads and orders them by episode code,
// then creation time
func EpisodePosts(posts []models.PostRecord) []models.PostRecord {
	var eps []models.PostRecord
	for _, p := range posts {
		if p.Category == models.CategoryEpisodeDiscussion {
			eps = append(eps, p)
		}
	}
	sort.SliceStable(eps, func(i, j int) bool {
		if eps[i].EpisodeCode != eps[j].EpisodeCode {
			return eps[i].EpisodeCode < eps[j].EpisodeCode
		}
		return eps[i].CreatedAt.Before(eps[j].CreatedAt)
	})
	return eps
}

// OtherNotable returns the top n posts that are neither episode threads
// nor trailers, most commented first
func OtherNotable(posts []models.PostRecord, n int) []models.PostRecord {
	var others []models.PostRecord
	for _, p := range posts {
		if p.Category == models.CategoryEpisodeDiscussion || p.Category == models.CategoryTrailerOrTeaser {
			continue
		}
		others = append(others, p)
	}
	sort.SliceStable(others, func(i, j int) bool {
		if others[i].CommentCount != others[j].CommentCount {
			return others[i].CommentCount > others[j].CommentCount
		}
		return others[i].Score > others[j].Score
	})
	if len(others) > n {
		others = others[:n]
	}
	return others
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
