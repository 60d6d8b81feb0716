// Package sources implements the upstream source kinds: NewsAPI, RSS/Atom feeds and HTML search pages.
package sources

import (
	"errors"
	"fmt"

	"solarintel/internal/config"
	"solarintel/internal/crawler"
)

// ErrUnknownKind is returned for an unrecognised source kind.
var ErrUnknownKind = errors.New("unknown source kind")

// Build constructs the source described by cfg. apiKey is only used by
// credentialed kinds.
func Build(cfg config.SourceConfig, scraper *crawler.Scraper, apiKey string) (crawler.Source, error) {
	switch cfg.Kind {
	case config.KindNewsAPI:
		return NewNewsAPI(cfg, scraper, apiKey), nil
	case config.KindRSS:
		return NewRSS(cfg, scraper), nil
	case config.KindHTML:
		return NewHTML(cfg, scraper), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

// BuildAll constructs every source of a pipeline.
func BuildAll(cfgs []config.SourceConfig, scraper *crawler.Scraper, apiKey string) ([]crawler.Source, error) {
	out := make([]crawler.Source, 0, len(cfgs))

	for i, cfg := range cfgs {
		src, err := Build(cfg, scraper, apiKey)
		if err != nil {
			return nil, fmt.Errorf("source[%d]: %w", i, err)
		}

		out = append(out, src)
	}

	return out, nil
}

func userAgentHeaders(ua string) map[string]string {
	if ua == "" {
		return nil
	}

	return map[string]string{"User-Agent": ua}
}
