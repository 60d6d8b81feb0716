package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"solarintel/internal/config"
	"solarintel/internal/crawler"
	"solarintel/internal/models"
	"solarintel/pkg/utils"
)

// NewsAPI queries the NewsAPI everything or top-headlines endpoints.
type NewsAPI struct {
	cfg     config.SourceConfig
	scraper *crawler.Scraper
	apiKey  string
}

var _ crawler.CredentialedSource = (*NewsAPI)(nil)

// NewNewsAPI creates a NewsAPI source.
func NewNewsAPI(cfg config.SourceConfig, scraper *crawler.Scraper, apiKey string) *NewsAPI {
	return &NewsAPI{cfg: cfg, scraper: scraper, apiKey: apiKey}
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// Name returns the configured source name.
func (n *NewsAPI) Name() string {
	return utils.FirstNonEmpty(n.cfg.Name, "NewsAPI")
}

// HasCredential reports whether an API key is configured.
func (n *NewsAPI) HasCredential() bool {
	return n.apiKey != ""
}

// URL builds the request URL for req.
func (n *NewsAPI) URL(req crawler.Request) (string, error) {
	u, err := url.Parse(n.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}

	q := u.Query()

	if query := crawler.RenderQuery(n.cfg.Query, req.Subject); query != "" {
		q.Set("q", query)
	}

	if n.cfg.Language != "" {
		q.Set("language", n.cfg.Language)
	}

	pageSize := n.cfg.PageSize
	if pageSize < 1 || pageSize > config.NewsAPIMaxPageSize {
		pageSize = config.NewsAPIMaxPageSize
	}

	q.Set("pageSize", strconv.Itoa(pageSize))

	if n.cfg.SortBy != "" {
		q.Set("sortBy", n.cfg.SortBy)
	}

	if n.cfg.SubjectParam != "" && req.HasSubject() {
		q.Set(n.cfg.SubjectParam, req.Subject.QueryValue())
	}

	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Fetch issues one request and maps its articles.
func (n *NewsAPI) Fetch(ctx context.Context, req crawler.Request) ([]models.RawItem, error) {
	if !n.HasCredential() {
		return nil, crawler.ErrMissingCredential
	}

	endpoint, err := n.URL(req)
	if err != nil {
		return nil, err
	}

	headers := userAgentHeaders(n.cfg.UserAgent)
	if headers == nil {
		headers = map[string]string{}
	}

	headers["X-Api-Key"] = n.apiKey

	body, _, _, err := n.scraper.Get(ctx, endpoint, crawler.GetOptions{
		Headers:            headers,
		InsecureSkipVerify: n.cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, err
	}

	var resp newsAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", crawler.ErrMalformedBody, err)
	}

	if resp.Status != "ok" {
		return nil, fmt.Errorf("%w: status %q: %s %s", crawler.ErrMalformedBody, resp.Status, resp.Code, resp.Message)
	}

	query := crawler.RenderQuery(n.cfg.Query, req.Subject)
	items := make([]models.RawItem, 0, len(resp.Articles))

	for _, a := range resp.Articles {
		items = append(items, models.RawItem{
			Title:       a.Title,
			Snippet:     a.Description,
			Source:      a.Source.Name,
			Link:        a.URL,
			PublishedAt: a.PublishedAt,
			Query:       query,
		})
	}

	return items, nil
}
