package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"solarintel/internal/config"
	"solarintel/internal/crawler"
	"solarintel/internal/models"
	"solarintel/pkg/utils"
)

// QueryPlaceholder is replaced by the URL-escaped rendered query in feed and page endpoints.
const QueryPlaceholder = "{query}"

// RSS reads an RSS or Atom feed, typically a search feed.
type RSS struct {
	cfg     config.SourceConfig
	scraper *crawler.Scraper
	parser  *gofeed.Parser
}

var _ crawler.Source = (*RSS)(nil)

// NewRSS creates a feed source.
func NewRSS(cfg config.SourceConfig, scraper *crawler.Scraper) *RSS {
	return &RSS{cfg: cfg, scraper: scraper, parser: gofeed.NewParser()}
}

// Name returns the configured source name.
func (r *RSS) Name() string {
	return utils.FirstNonEmpty(r.cfg.Name, r.cfg.Endpoint)
}

// Fetch downloads and parses the feed.
func (r *RSS) Fetch(ctx context.Context, req crawler.Request) ([]models.RawItem, error) {
	query := crawler.RenderQuery(r.cfg.Query, req.Subject)
	endpoint := expandEndpoint(r.cfg.Endpoint, query)

	body, _, _, err := r.scraper.Get(ctx, endpoint, crawler.GetOptions{
		Headers:            userAgentHeaders(r.cfg.UserAgent),
		InsecureSkipVerify: r.cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, err
	}

	feed, err := r.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", crawler.ErrMalformedBody, err)
	}

	items := make([]models.RawItem, 0, len(feed.Items))

	for _, item := range feed.Items {
		published := item.Published
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC().Format(time.RFC3339)
		} else if item.UpdatedParsed != nil {
			published = item.UpdatedParsed.UTC().Format(time.RFC3339)
		}

		snippet := item.Description
		if snippet == "" {
			snippet = item.Content
		}

		items = append(items, models.RawItem{
			Title:       item.Title,
			Snippet:     snippet,
			Source:      utils.FirstNonEmpty(r.cfg.Name, feed.Title),
			Link:        item.Link,
			PublishedAt: published,
			Query:       query,
		})
	}

	return items, nil
}

func expandEndpoint(endpoint, query string) string {
	return strings.ReplaceAll(endpoint, QueryPlaceholder, url.QueryEscape(query))
}
