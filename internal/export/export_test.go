package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/config"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/models"
)

func classified(id, title string, category models.Category, episodeCode string, comments, score int) models.PostRecord {
	return models.PostRecord{
		ID:           id,
		Subreddit:    "television",
		Title:        title,
		Permalink:    "https://www.reddit.com/r/television/comments/" + id,
		CreatedAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Score:        score,
		CommentCount: comments,
		Category:     category,
		EpisodeCode:  episodeCode,
	}
}

func TestBestTrailer(t *testing.T) {
	posts := []models.PostRecord{
		classified("p1", "1x01 discussion", models.CategoryEpisodeDiscussion, "1x01", 500, 100),
		classified("t1", "Teaser", models.CategoryTrailerOrTeaser, "", 40, 10),
		classified("t2", "Official Trailer", models.CategoryTrailerOrTeaser, "", 90, 5),
		classified("t3", "Trailer repost", models.CategoryTrailerOrTeaser, "", 90, 80),
	}

	best := BestTrailer(posts)
	require.NotNil(t, best)
	assert.Equal(t, "t3", best.ID) // equal comments, higher score

	assert.Nil(t, BestTrailer(posts[:1]))
}

func TestEpisodePostsOrdering(t *testing.T) {
	posts := []models.PostRecord{
		classified("b", "1x02", models.CategoryEpisodeDiscussion, "1x02", 10, 1),
		classified("a", "1x01", models.CategoryEpisodeDiscussion, "1x01", 10, 1),
		classified("x", "Trailer", models.CategoryTrailerOrTeaser, "", 99, 1),
	}

	eps := EpisodePosts(posts)
	require.Len(t, eps, 2)
	assert.Equal(t, "a", eps[0].ID)
	assert.Equal(t, "b", eps[1].ID)
}

func TestOtherNotable(t *testing.T) {
	posts := []models.PostRecord{
		classified("e1", "1x01", models.CategoryEpisodeDiscussion, "1x01", 999, 1),
		classified("t1", "Trailer", models.CategoryTrailerOrTeaser, "", 999, 1),
		classified("o1", "Ratings news", models.CategoryHighEngagement, "", 500, 10),
		classified("o2", "Fan art", models.CategoryUnclassified, "", 5, 2),
		classified("o3", "Casting rumor", models.CategoryUnclassified, "", 80, 3),
	}

	others := OtherNotable(posts, 2)
	require.Len(t, others, 2)
	assert.Equal(t, "o1", others[0].ID)
	assert.Equal(t, "o3", others[1].ID)
}

func TestWriteAllPosts(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, "test_show", "Test Show", 5)

	posts := []models.PostRecord{
		classified("p1", "1x01 discussion", models.CategoryEpisodeDiscussion, "1x01", 120, 10),
		classified("p2", "Official Trailer", models.CategoryTrailerOrTeaser, "", 40, 5),
	}
	require.NoError(t, e.WriteAllPosts(posts))

	f, err := os.Open(filepath.Join(dir, "test_show_all_posts.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "p1", rows[1][0])
	assert.Equal(t, "episode_discussion", rows[1][4])
	assert.Equal(t, "1x01", rows[1][5])
	assert.Equal(t, "120", rows[1][6])
}

func TestWriteSelectedPostsTrailerFirst(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, "test_show", "Test Show", 5)

	selected := []models.PostRecord{
		classified("p3", "Ratings record", models.CategoryHighEngagement, "", 500, 3000),
		classified("p1", "1x01 discussion", models.CategoryEpisodeDiscussion, "1x01", 120, 10),
	}
	trailer := classified("t1", "Official Trailer", models.CategoryTrailerOrTeaser, "", 40, 5)

	require.NoError(t, e.WriteSelectedPosts(selected, &trailer))

	f, err := os.Open(filepath.Join(dir, "test_show_selected_posts.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "t1", rows[1][3])
	assert.Equal(t, "p3", rows[2][3])
	assert.Equal(t, "p1", rows[3][3])
}

func TestWriteHistory(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, "test_show", "Test Show", 5)

	entries := []models.HistoryEntry{
		{
			PostID:       "p1",
			ObservedAt:   time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			Subreddit:    "television",
			Title:        "1x01 discussion",
			Category:     models.CategoryEpisodeDiscussion,
			EpisodeCode:  "1x01",
			CreatedAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Score:        10,
			CommentCount: 120,
		},
	}
	require.NoError(t, e.WriteHistory(entries))

	f, err := os.Open(filepath.Join(dir, "test_show_comment_history.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-10T12:00:00Z", rows[1][0])
	assert.Equal(t, "p1", rows[1][1])
}

func TestHistorySeriesSplit(t *testing.T) {
	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	entries := []models.HistoryEntry{
		{PostID: "e1", ObservedAt: base, EpisodeCode: "1x01", Title: "1x01", CommentCount: 40},
		{PostID: "o1", ObservedAt: base, Title: "Ratings news", CommentCount: 10},
		{PostID: "e1", ObservedAt: base.Add(6 * time.Hour), EpisodeCode: "1x01", Title: "1x01", CommentCount: 90},
	}

	episodes, others := historySeries(entries)
	require.Len(t, episodes, 1)
	require.Len(t, others, 1)
	assert.Equal(t, "1x01", episodes[0].Label)
	require.Len(t, episodes[0].Points, 2)
	assert.Equal(t, 40, episodes[0].Points[0].Comments)
	assert.Equal(t, 90, episodes[0].Points[1].Comments)
	assert.Equal(t, "Ratings news", others[0].Label)
}

func TestGrowthChart(t *testing.T) {
	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	series := []chartSeries{{
		Label: "1x01",
		Points: []chartPoint{
			{At: base, Comments: 40},
			{At: base.Add(6 * time.Hour), Comments: 90},
		},
	}}

	svg := string(growthChart(series))
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, "polyline")
	assert.Contains(t, svg, "1x01")

	// A single snapshot has no curve to draw.
	assert.Empty(t, string(growthChart([]chartSeries{{
		Label:  "1x01",
		Points: []chartPoint{{At: base, Comments: 40}},
	}})))
}

func TestDashboardHTML(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, "test_show", "Test Show", 5)

	posts := []models.PostRecord{
		classified("p1", "1x01 discussion", models.CategoryEpisodeDiscussion, "1x01", 120, 10),
		classified("t1", "Official Trailer", models.CategoryTrailerOrTeaser, "", 40, 5),
	}

	data := e.Dashboard(posts, nil, config.SearchConfig{
		Subreddits: []string{"television"},
		QueryTerms: []string{"Test Show"},
		Sort:       "new",
		TimeFilter: "all",
	})
	assert.Equal(t, 2, data.TotalPosts)
	assert.Equal(t, 1, data.EpisodeThreads)
	assert.Equal(t, 1, data.TrailerHits)
	assert.Equal(t, 160, data.TotalComments)
	require.NotNil(t, data.Trailer)

	html, err := e.DashboardHTML(data)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Test Show: Reddit tracking")
	assert.Contains(t, string(html), "1x01 discussion")

	require.NoError(t, e.WriteDashboard(data))
	_, err = os.Stat(filepath.Join(dir, "dashboard_test_show.html"))
	assert.NoError(t, err)
}
