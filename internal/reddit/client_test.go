package reddit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
  "kind": "Listing",
  "data": {
    "children": [
      {
        "kind": "t3",
        "data": {
          "id": "abc123",
          "name": "t3_abc123",
          "subreddit": "television",
          "title": "S01E01 discussion",
          "link_flair_text": "Episode Discussion",
          "author": "someone",
          "permalink": "/r/television/comments/abc123/s01e01_discussion/",
          "url": "https://www.reddit.com/r/television/comments/abc123/",
          "created_utc": 1709251200.0,
          "score": 321,
          "num_comments": 120
        }
      },
      {
        "kind": "t3",
        "data": {
          "id": "def456",
          "title": "Official Trailer",
          "author": "else",
          "permalink": "/r/television/comments/def456/",
          "created_utc": 1709337600.0,
          "score": 12,
          "num_comments": 4
        }
      }
    ]
  }
}`

func TestListingDecode(t *testing.T) {
	var page listing
	require.NoError(t, json.Unmarshal([]byte(samplePayload), &page))
	require.Len(t, page.Data.Children, 2)

	rec := page.Data.Children[0].Data.toRecord("television")
	assert.Equal(t, "abc123", rec.ID)
	assert.Equal(t, "t3_abc123", rec.Name)
	assert.Equal(t, "television", rec.Subreddit)
	assert.Equal(t, "S01E01 discussion", rec.Title)
	assert.Equal(t, "Episode Discussion", rec.Flair)
	assert.Equal(t, "https://www.reddit.com/r/television/comments/abc123/s01e01_discussion/", rec.Permalink)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rec.CreatedAt)
	assert.Equal(t, 321, rec.Score)
	assert.Equal(t, 120, rec.CommentCount)
	assert.True(t, rec.Valid())
}

func TestToRecordFallbacks(t *testing.T) {
	// Missing name and subreddit get filled in; missing created_utc
	// leaves the record invalid so the engine drops it.
	d := childData{ID: "def456", Title: "Official Trailer"}
	rec := d.toRecord("startrek")
	assert.Equal(t, "t3_def456", rec.Name)
	assert.Equal(t, "startrek", rec.Subreddit)
	assert.True(t, rec.CreatedAt.IsZero())
	assert.False(t, rec.Valid())
}

func TestBackoffCapped(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 32*time.Second, backoff(5))
	assert.Equal(t, time.Minute, backoff(10))
}
