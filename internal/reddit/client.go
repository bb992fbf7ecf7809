package reddit

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/config"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/models"
)

const maxRetries = 5

// Client fetches post metadata from Reddit's public JSON search
// endpoint, one query per (subreddit, term) pair. No OAuth: this is
// best-effort polling of the anonymous search API, so the collector is
// rate-limited and retries politely on 429s.
type Client struct {
	collector *colly.Collector
	baseURL   string
	cfg       config.SearchConfig
}

// NewClient creates a new Reddit search client
func NewClient(cfg config.SearchConfig) *Client {
	c := colly.NewCollector(
		colly.AllowedDomains("www.reddit.com", "reddit.com"),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	// Set rate limiting to be respectful
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*reddit.com*",
		Delay:       2 * time.Second,
		RandomDelay: 1 * time.Second,
	})

	return &Client{
		collector: c,
		baseURL:   cfg.BaseURL,
		cfg:       cfg,
	}
}

// FetchPosts runs every configured (subreddit, query term) search and
// returns the combined batch. The same post showing up under several
// queries is passed through as-is; batch dedupe is the tracking
// engine's job. A failed query is logged and skipped so one bad
// subreddit doesn't sink the whole run.
func (c *Client) FetchPosts() ([]models.PostRecord, error) {
	var batch []models.PostRecord

	for _, subreddit := range c.cfg.Subreddits {
		for _, term := range c.cfg.QueryTerms {
			posts, err := c.search(subreddit, term)
			if err != nil {
				log.Printf("Error searching r/%s for %q: %v", subreddit, term, err)
				continue
			}
			batch = append(batch, posts...)
		}
	}

	return batch, nil
}

// search fetches one search.json page for a single subreddit and term
func (c *Client) search(subreddit, term string) ([]models.PostRecord, error) {
	params := url.Values{}
	params.Set("q", term)
	params.Set("restrict_sr", "1")
	params.Set("sort", c.cfg.Sort)
	params.Set("t", c.cfg.TimeFilter)
	params.Set("limit", strconv.Itoa(c.cfg.Limit))
	params.Set("raw_json", "1")

	searchURL := fmt.Sprintf("%s/r/%s/search.json?%s", c.baseURL, subreddit, params.Encode())

	// Clone the collector for this specific request
	co := c.collector.Clone()

	var posts []models.PostRecord
	var fetchErr error
	attempts := 0

	co.OnResponse(func(r *colly.Response) {
		var page listing
		if err := json.Unmarshal(r.Body, &page); err != nil {
			fetchErr = fmt.Errorf("decoding search response: %w", err)
			return
		}
		for _, child := range page.Data.Children {
			posts = append(posts, child.Data.toRecord(subreddit))
		}
	})

	co.OnError(func(r *colly.Response, err error) {
		if r != nil && (r.StatusCode == 429 || r.StatusCode >= 500) && attempts < maxRetries {
			attempts++
			wait := backoff(attempts)
			log.Printf("HTTP %d from %s, waiting %s (attempt %d/%d)", r.StatusCode, searchURL, wait, attempts, maxRetries)
			time.Sleep(wait)
			if retryErr := r.Request.Retry(); retryErr == nil {
				return
			}
		}
		fetchErr = err
	})

	co.OnRequest(func(r *colly.Request) {
		log.Printf("Searching r/%s for %q (limit=%d, sort=%s, t=%s)", subreddit, term, c.cfg.Limit, c.cfg.Sort, c.cfg.TimeFilter)
	})

	if err := co.Visit(searchURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	return posts, nil
}

// backoff caps exponential waits at one minute, matching the
// Retry-After ceiling Reddit tends to send.
func backoff(attempt int) time.Duration {
	wait := time.Duration(1<<uint(attempt)) * time.Second
	if wait > time.Minute {
		wait = time.Minute
	}
	return wait
}

// listing mirrors the slice of Reddit's search payload this tracker
// reads. Everything else in the response is ignored.
type listing struct {
	Data struct {
		Children []struct {
			Data childData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type childData struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Subreddit     string  `json:"subreddit"`
	Title         string  `json:"title"`
	LinkFlairText string  `json:"link_flair_text"`
	Author        string  `json:"author"`
	Permalink     string  `json:"permalink"`
	URL           string  `json:"url"`
	CreatedUTC    float64 `json:"created_utc"`
	Score         int     `json:"score"`
	NumComments   int     `json:"num_comments"`
}

func (d childData) toRecord(fallbackSubreddit string) models.PostRecord {
	subreddit := d.Subreddit
	if subreddit == "" {
		subreddit = fallbackSubreddit
	}
	name := d.Name
	if name == "" && d.ID != "" {
		name = "t3_" + d.ID
	}

	var createdAt time.Time
	if d.CreatedUTC > 0 {
		createdAt = time.Unix(int64(d.CreatedUTC), 0).UTC()
	}

	return models.PostRecord{
		ID:           d.ID,
		Name:         name,
		Subreddit:    subreddit,
		Title:        d.Title,
		Flair:        d.LinkFlairText,
		Author:       d.Author,
		Permalink:    "https://www.reddit.com" + d.Permalink,
		URL:          d.URL,
		CreatedAt:    createdAt,
		Score:        d.Score,
		CommentCount: d.NumComments,
	}
}
