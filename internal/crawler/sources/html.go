package sources

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"solarintel/internal/config"
	"solarintel/internal/crawler"
	"solarintel/internal/models"
	"solarintel/pkg/utils"
)

// HTML scrapes a site search page with CSS selectors.
type HTML struct {
	cfg     config.SourceConfig
	scraper *crawler.Scraper
}

var _ crawler.Source = (*HTML)(nil)

// NewHTML creates a page source.
func NewHTML(cfg config.SourceConfig, scraper *crawler.Scraper) *HTML {
	return &HTML{cfg: cfg, scraper: scraper}
}

// Name returns the configured source name.
func (h *HTML) Name() string {
	return utils.FirstNonEmpty(h.cfg.Name, h.cfg.Endpoint)
}

// Fetch downloads the page and extracts one item per matching element.
// Elements without title text or link are skipped.
func (h *HTML) Fetch(ctx context.Context, req crawler.Request) ([]models.RawItem, error) {
	query := crawler.RenderQuery(h.cfg.Query, req.Subject)
	endpoint := expandEndpoint(h.cfg.Endpoint, query)

	body, _, _, err := h.scraper.Get(ctx, endpoint, crawler.GetOptions{
		Headers:            userAgentHeaders(h.cfg.UserAgent),
		InsecureSkipVerify: h.cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", crawler.ErrMalformedBody, err)
	}

	base := utils.FirstNonEmpty(h.cfg.Base, endpoint)
	sel := h.cfg.Selectors

	var items []models.RawItem

	doc.Find(sel.Item).Each(func(_ int, s *goquery.Selection) {
		title := utils.NormalizeWhitespace(pick(s, sel.Title).Text())

		href, _ := pick(s, sel.Link).Attr("href")
		link := utils.ResolveURL(base, href)

		if title == "" || link == "" {
			return
		}

		var snippet string
		if sel.Snippet != "" {
			snippet = utils.NormalizeWhitespace(s.Find(sel.Snippet).First().Text())
		}

		items = append(items, models.RawItem{
			Title:   title,
			Snippet: snippet,
			Source:  h.Name(),
			Link:    link,
			Query:   query,
		})
	})

	return items, nil
}

// pick returns the first match of selector inside s, or s itself when selector is empty.
func pick(s *goquery.Selection, selector string) *goquery.Selection {
	if selector == "" {
		return s
	}

	return s.Find(selector).First()
}
