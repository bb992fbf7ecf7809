package export

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/config"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/models"
)

// DashboardData is everything the static dashboard page needs.
type DashboardData struct {
	ShowName   string
	Subreddits []string
	QueryTerms []string
	Generated  string
	Sort       string
	TimeFilter string

	TotalPosts     int
	EpisodeThreads int
	TrailerHits    int
	TotalComments  int

	Trailer  *models.PostRecord
	Episodes []models.PostRecord
	Others   []models.PostRecord

	EpisodeChart    template.HTML
	NonEpisodeChart template.HTML
}

// Dashboard assembles the page data from the latest classified batch
// and the full ledger.
func (e *Exporter) Dashboard(posts []models.PostRecord, history []models.HistoryEntry, search config.SearchConfig) DashboardData {
	data := DashboardData{
		ShowName:   e.showName,
		Subreddits: search.Subreddits,
		QueryTerms: search.QueryTerms,
		Generated:  time.Now().UTC().Format(time.RFC3339),
		Sort:       search.Sort,
		TimeFilter: search.TimeFilter,
		TotalPosts: len(posts),
		Trailer:    BestTrailer(posts),
		Episodes:   EpisodePosts(posts),
		Others:     OtherNotable(posts, e.otherN),
	}

	for _, p := range posts {
		data.TotalComments += p.CommentCount
		if p.Category == models.CategoryTrailerOrTeaser {
			data.TrailerHits++
		}
	}
	data.EpisodeThreads = len(data.Episodes)

	episodeSeries, otherSeries := historySeries(history)
	data.EpisodeChart = growthChart(episodeSeries)
	data.NonEpisodeChart = growthChart(otherSeries)

	return data
}

// DashboardHTML renders the page into memory, for serving over HTTP.
func (e *Exporter) DashboardHTML(data DashboardData) ([]byte, error) {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDashboard renders the page to out/dashboard_<slug>.html.
func (e *Exporter) WriteDashboard(data DashboardData) error {
	html, err := e.DashboardHTML(data)
	if err != nil {
		return err
	}
	path := filepath.Join(e.dir, fmt.Sprintf("dashboard_%s.html", e.slug))
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, html, 0o644)
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>RewindOS: {{.ShowName}} Reddit tracker</title>
  <style>
    body { font-family: system-ui, Arial, sans-serif; margin: 24px; }
    .muted { color: #666; }
    .grid { display: grid; grid-template-columns: repeat(4, minmax(0, 1fr)); gap: 12px; margin: 16px 0 22px; }
    .card { border: 1px solid #ddd; border-radius: 12px; padding: 12px; }
    .kpi { font-size: 22px; font-weight: 700; }
    table { border-collapse: collapse; width: 100%; margin: 12px 0 24px; }
    th, td { border: 1px solid #ddd; padding: 8px; vertical-align: top; }
    th { background: #f6f6f6; text-align: left; }
    svg { max-width: 100%; border: 1px solid #ddd; border-radius: 10px; padding: 6px; }
    code { background: #f6f6f6; padding: 2px 6px; border-radius: 6px; }
  </style>
</head>
<body>
  <h1>{{.ShowName}}: Reddit tracking</h1>
  <p class="muted">
    Subreddits: <code>{{range $i, $s := .Subreddits}}{{if $i}}, {{end}}r/{{$s}}{{end}}</code><br/>
    Query terms: <code>{{range $i, $q := .QueryTerms}}{{if $i}}, {{end}}{{$q}}{{end}}</code><br/>
    Generated: <code>{{.Generated}}</code> · Sort: <code>{{.Sort}}</code> · Time filter: <code>{{.TimeFilter}}</code><br/>
    Data source: Reddit public JSON search endpoint (no OAuth key).
  </p>

  <div class="grid">
    <div class="card"><div class="muted">Posts found</div><div class="kpi">{{.TotalPosts}}</div></div>
    <div class="card"><div class="muted">Episode threads</div><div class="kpi">{{.EpisodeThreads}}</div></div>
    <div class="card"><div class="muted">Trailer hits</div><div class="kpi">{{.TrailerHits}}</div></div>
    <div class="card"><div class="muted">Total comments (snapshot)</div><div class="kpi">{{.TotalComments}}</div></div>
  </div>

  {{if .Trailer}}
  <h2>Official Trailer / Teaser (best match)</h2>
  <table>
    <thead><tr><th>Title</th><th>Subreddit</th><th>Comments</th><th>Score</th><th>Created (UTC)</th></tr></thead>
    <tbody>
      <tr>
        <td><a href="{{.Trailer.Permalink}}" target="_blank" rel="noopener">{{.Trailer.Title}}</a></td>
        <td>r/{{.Trailer.Subreddit}}</td>
        <td style="text-align:right">{{.Trailer.CommentCount}}</td>
        <td style="text-align:right">{{.Trailer.Score}}</td>
        <td>{{.Trailer.CreatedAt.UTC.Format "2006-01-02T15:04:05Z07:00"}}</td>
      </tr>
    </tbody>
  </table>
  {{end}}

  <h2>Episode discussion threads detected</h2>
  <table>
    <thead>
      <tr><th>Episode</th><th>Subreddit</th><th>Title</th><th>Comments</th><th>Score</th><th>Created (UTC)</th></tr>
    </thead>
    <tbody>
      {{range .Episodes}}
      <tr>
        <td>{{.EpisodeCode}}</td>
        <td>r/{{.Subreddit}}</td>
        <td><a href="{{.Permalink}}" target="_blank" rel="noopener">{{.Title}}</a></td>
        <td style="text-align:right">{{.CommentCount}}</td>
        <td style="text-align:right">{{.Score}}</td>
        <td>{{.CreatedAt.UTC.Format "2006-01-02T15:04:05Z07:00"}}</td>
      </tr>
      {{else}}
      <tr><td colspan="6" class="muted">No episode threads detected by title pattern.</td></tr>
      {{end}}
    </tbody>
  </table>

  <h2>Other notable posts (top by comments)</h2>
  <table>
    <thead>
      <tr><th>Category</th><th>Subreddit</th><th>Title</th><th>Comments</th><th>Score</th><th>Created (UTC)</th></tr>
    </thead>
    <tbody>
      {{range .Others}}
      <tr>
        <td>{{.Category}}</td>
        <td>r/{{.Subreddit}}</td>
        <td><a href="{{.Permalink}}" target="_blank" rel="noopener">{{.Title}}</a></td>
        <td style="text-align:right">{{.CommentCount}}</td>
        <td style="text-align:right">{{.Score}}</td>
        <td>{{.CreatedAt.UTC.Format "2006-01-02T15:04:05Z07:00"}}</td>
      </tr>
      {{else}}
      <tr><td colspan="6" class="muted">No additional posts selected.</td></tr>
      {{end}}
    </tbody>
  </table>

  <h2>Comment growth over time</h2>
  <p class="muted">
    These charts need multiple snapshots. Re-run on a schedule (cron / Task Scheduler)
    to build up the comment history ledger.
  </p>

  <h3>Episode discussions</h3>
  {{if .EpisodeChart}}{{.EpisodeChart}}{{else}}<p class="muted">Not enough history yet.</p>{{end}}

  <h3>Non-episode posts</h3>
  {{if .NonEpisodeChart}}{{.NonEpisodeChart}}{{else}}<p class="muted">Not enough history yet.</p>{{end}}
</body>
</html>
`))
