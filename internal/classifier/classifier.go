package classifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/config"
	"github.com/jjf3/rewindOS-SFA2-Television-Tracker/internal/models"
)

var spaces = regexp.MustCompile(`\s+`)

// Classifier assigns each observed post to exactly one discussion
// category. Classification is pure: same record in, same category out,
// no I/O, and it never fails (unmatched posts are Unclassified).
type Classifier struct {
	seasonEpisode    []*regexp.Regexp
	episodeOnly      []*regexp.Regexp
	trailerKeywords  []string
	commentThreshold int
	scoreThreshold   int
}

// New compiles the configured patterns into a Classifier. Pattern
// compilation is the only thing that can fail; a bad regex in config
// should stop startup, not be skipped silently.
func New(cfg config.ClassifierConfig) (*Classifier, error) {
	c := &Classifier{
		commentThreshold: cfg.CommentThreshold,
		scoreThreshold:   cfg.ScoreThreshold,
	}
	for _, k := range cfg.TrailerKeywords {
		c.trailerKeywords = append(c.trailerKeywords, strings.ToLower(strings.TrimSpace(k)))
	}
	for _, p := range cfg.SeasonEpisodePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("season/episode pattern %q: %w", p, err)
		}
		c.seasonEpisode = append(c.seasonEpisode, re)
	}
	for _, p := range cfg.EpisodeOnlyPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("episode-only pattern %q: %w", p, err)
		}
		c.episodeOnly = append(c.episodeOnly, re)
	}
	return c, nil
}

// Classify maps a post to its category. Precedence: episode reference,
// then trailer keyword, then the engagement threshold, then Unclassified.
// An episode thread that also mentions a trailer is still episode
// discussion. A post with zero comments never promotes to high
// engagement no matter its score.
func (c *Classifier) Classify(post models.PostRecord) models.Category {
	text := normalize(post.Title + " " + post.Flair)

	if c.EpisodeCode(text) != "" {
		return models.CategoryEpisodeDiscussion
	}

	lower := strings.ToLower(text)
	for _, k := range c.trailerKeywords {
		if k != "" && strings.Contains(lower, k) {
			return models.CategoryTrailerOrTeaser
		}
	}

	if post.CommentCount > 0 &&
		(post.CommentCount > c.commentThreshold || post.Score > c.scoreThreshold) {
		return models.CategoryHighEngagement
	}

	return models.CategoryUnclassified
}

// EpisodeCode extracts a normalized episode reference from a title:
// "1x02" when both season and episode are present, "E03" when only an
// episode number is. Season+episode patterns win over episode-only
// mentions. Returns "" when no pattern matches.
func (c *Classifier) EpisodeCode(title string) string {
	t := normalize(title)

	for _, re := range c.seasonEpisode {
		m := re.FindStringSubmatch(t)
		if len(m) < 3 {
			continue
		}
		season, err1 := strconv.Atoi(m[1])
		episode, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			continue
		}
		return fmt.Sprintf("%dx%02d", season, episode)
	}

	for _, re := range c.episodeOnly {
		m := re.FindStringSubmatch(t)
		if len(m) < 2 {
			continue
		}
		episode, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return fmt.Sprintf("E%02d", episode)
	}

	return ""
}

func normalize(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
