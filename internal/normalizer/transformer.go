package normalizer

import (
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"solarintel/internal/models"
	"solarintel/pkg/utils"
)

// maxSnippetRunes caps stored snippet length.
const maxSnippetRunes = 500

// timestampLayouts are tried in order. Layouts without a zone parse as UTC.
// Fractional seconds are accepted after any seconds field.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

// ParseTimestamp parses s with the permissive layout list. Failure yields an
// unknown timestamp, never the current time.
func ParseTimestamp(s string) models.Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Timestamp{}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.KnownTime(t.UTC())
		}
	}

	return models.Timestamp{}
}

// Transformer maps upstream items onto records.
type Transformer struct {
	converter *md.Converter
}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{
		converter: md.NewConverter("", true, nil),
	}
}

// Transform converts a raw item collected at collectedAt into a record.
func (t *Transformer) Transform(raw models.RawItem, collectedAt time.Time) models.Record {
	return models.Record{
		CollectedAt: models.KnownTime(collectedAt.UTC()),
		PublishedAt: ParseTimestamp(raw.PublishedAt),
		Title:       utils.NormalizeWhitespace(raw.Title),
		Source:      utils.NormalizeWhitespace(raw.Source),
		Link:        strings.TrimSpace(raw.Link),
		GroupKey:    strings.TrimSpace(raw.GroupKey),
		Snippet:     t.CleanSnippet(raw.Snippet),
		Query:       strings.TrimSpace(raw.Query),
	}
}

// CleanSnippet strips markup from an upstream description.
func (t *Transformer) CleanSnippet(s string) string {
	if strings.ContainsRune(s, '<') {
		if converted, err := t.converter.ConvertString(s); err == nil {
			s = converted
		}
	}

	return utils.TruncateRunes(utils.NormalizeWhitespace(s), maxSnippetRunes)
}
