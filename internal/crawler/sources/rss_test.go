package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarintel/internal/config"
	"solarintel/internal/crawler"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Solar Search</title>
    <item>
      <title>Utility scale solar approved</title>
      <link>https://news.example/1</link>
      <description>&lt;b&gt;Big&lt;/b&gt; project</description>
      <pubDate>Sun, 01 Jun 2025 12:30:00 GMT</pubDate>
    </item>
    <item>
      <title>No date</title>
      <link>https://news.example/2</link>
    </item>
  </channel>
</rss>`

func TestRSS_Fetch(t *testing.T) {
	var gotQ string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	r := NewRSS(config.SourceConfig{
		Endpoint: srv.URL + "/rss/search?q={query}",
		Query:    "utility scale solar",
	}, crawler.NewScraper(time.Second))

	items, err := r.Fetch(context.Background(), crawler.Request{})
	require.NoError(t, err)

	assert.Equal(t, "utility scale solar", gotQ)
	require.Len(t, items, 2)
	assert.Equal(t, "Utility scale solar approved", items[0].Title)
	assert.Equal(t, "https://news.example/1", items[0].Link)
	assert.Equal(t, "Solar Search", items[0].Source)
	assert.Equal(t, "2025-06-01T12:30:00Z", items[0].PublishedAt)
	assert.Contains(t, items[0].Snippet, "Big")
	assert.Empty(t, items[1].PublishedAt)
}

func TestRSS_Fetch_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer srv.Close()

	_, err := NewRSS(config.SourceConfig{Endpoint: srv.URL}, crawler.NewScraper(time.Second)).
		Fetch(context.Background(), crawler.Request{})
	assert.ErrorIs(t, err, crawler.ErrMalformedBody)
}
