package export

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/models"
)

// chartSeries is one post's comment-count curve across runs.
type chartSeries struct {
	Label  string
	Points []chartPoint
}

type chartPoint struct {
	At       time.Time
	Comments int
}

var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

const (
	chartWidth  = 720
	chartHeight = 300
	padLeft     = 52
	padRight    = 16
	padTop      = 12
	padBottom   = 28
)

// historySeries splits the ledger into episode and non-episode growth
// curves. A post counts as an episode series when any of its entries
// carries an episode code; labels are the episode code or a truncated
// title.
func historySeries(entries []models.HistoryEntry) (episodes, others []chartSeries) {
	order := []string{}
	byPost := map[string][]models.HistoryEntry{}
	for _, e := range entries {
		if _, ok := byPost[e.PostID]; !ok {
			order = append(order, e.PostID)
		}
		byPost[e.PostID] = append(byPost[e.PostID], e)
	}

	for _, id := range order {
		rows := byPost[id]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].ObservedAt.Before(rows[j].ObservedAt) })

		s := chartSeries{}
		episodeCode := ""
		for _, r := range rows {
			if r.EpisodeCode != "" {
				episodeCode = r.EpisodeCode
			}
			s.Points = append(s.Points, chartPoint{At: r.ObservedAt, Comments: r.CommentCount})
		}

		if episodeCode != "" {
			s.Label = episodeCode
			episodes = append(episodes, s)
		} else {
			s.Label = truncate(rows[len(rows)-1].Title, 45)
			others = append(others, s)
		}
	}
	return episodes, others
}

// growthChart renders comment curves as a standalone inline SVG. With
// fewer than two snapshots there is nothing to plot and it returns "".
func growthChart(series []chartSeries) template.HTML {
	minT, maxT := time.Time{}, time.Time{}
	maxC := 0
	points := 0
	for _, s := range series {
		for _, p := range s.Points {
			if minT.IsZero() || p.At.Before(minT) {
				minT = p.At
			}
			if p.At.After(maxT) {
				maxT = p.At
			}
			if p.Comments > maxC {
				maxC = p.Comments
			}
			points++
		}
	}
	if len(series) == 0 || points < 2 || !maxT.After(minT) {
		return ""
	}
	if maxC == 0 {
		maxC = 1
	}

	span := maxT.Sub(minT).Seconds()
	x := func(t time.Time) float64 {
		return padLeft + t.Sub(minT).Seconds()/span*float64(chartWidth-padLeft-padRight)
	}
	y := func(c int) float64 {
		return float64(chartHeight-padBottom) - float64(c)/float64(maxC)*float64(chartHeight-padTop-padBottom)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" role="img">`, chartWidth, chartHeight)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#999"/>`, padLeft, chartHeight-padBottom, chartWidth-padRight, chartHeight-padBottom)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#999"/>`, padLeft, padTop, padLeft, chartHeight-padBottom)
	fmt.Fprintf(&b, `<text x="%d" y="%.1f" font-size="11" text-anchor="end" fill="#666">%d</text>`, padLeft-6, y(maxC)+4, maxC)
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11" text-anchor="end" fill="#666">0</text>`, padLeft-6, chartHeight-padBottom+4)
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11" fill="#666">%s</text>`, padLeft, chartHeight-8, minT.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11" text-anchor="end" fill="#666">%s</text>`, chartWidth-padRight, chartHeight-8, maxT.UTC().Format("2006-01-02 15:04"))

	for i, s := range series {
		color := palette[i%len(palette)]
		if len(s.Points) == 1 {
			p := s.Points[0]
			fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`, x(p.At), y(p.Comments), color)
		} else {
			coords := make([]string, 0, len(s.Points))
			for _, p := range s.Points {
				coords = append(coords, fmt.Sprintf("%.1f,%.1f", x(p.At), y(p.Comments)))
			}
			fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(coords, " "), color)
		}
		last := s.Points[len(s.Points)-1]
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" font-size="11" fill="%s">%s</text>`,
			x(last.At)+4, y(last.Comments)+4, color, template.HTMLEscapeString(s.Label))
	}

	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}

func truncate(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "…"
}
