package normalizer

import (
	"strings"

	"solarintel/internal/models"
)

// synonyms maps each canonical column to the source column names it accepts,
// in priority order. Table order is also claim order: a source column is
// assigned to the first canonical field that lists it.
var synonyms = []struct {
	canonical string
	accepts   []string
}{
	{models.ColumnDateScraped, []string{"Date Scraped", "date_scraped", "scraped_date", "collected_at", "published_at"}},
	{models.ColumnPublishedAt, []string{"Published At", "published_at", "publishedAt", "pub_date"}},
	{models.ColumnTitle, []string{"Title", "title", "headline"}},
	{models.ColumnSource, []string{"Source", "source", "publisher"}},
	{models.ColumnLink, []string{"Link", "link", "url", "URL", "article_url"}},
	{models.ColumnSnippet, []string{"Snippet", "snippet", "description", "summary"}},
	{models.ColumnQuery, []string{"Query", "query"}},
	{models.ColumnCompany, []string{"Company", "company"}},
	{models.ColumnCountry, []string{"Country", "country"}},
}

// ColumnMap maps a canonical column name to its index in a source header.
type ColumnMap map[string]int

// Has reports whether the canonical column was resolved.
func (m ColumnMap) Has(canonical string) bool {
	_, ok := m[canonical]

	return ok
}

// GroupColumn returns the canonical group column present in the header, if any.
func (m ColumnMap) GroupColumn() string {
	switch {
	case m.Has(models.ColumnCompany):
		return models.ColumnCompany
	case m.Has(models.ColumnCountry):
		return models.ColumnCountry
	default:
		return ""
	}
}

func (m ColumnMap) value(row []string, canonical string) string {
	idx, ok := m[canonical]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// ResolveColumns resolves a source header against the synonym table.
// Unknown source columns are ignored. No canonical column appears twice.
func ResolveColumns(header []string) ColumnMap {
	index := make(map[string]int, len(header))

	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	claimed := make(map[int]bool, len(header))
	cols := make(ColumnMap, len(synonyms))

	for _, entry := range synonyms {
		for _, name := range entry.accepts {
			idx, ok := index[name]
			if !ok || claimed[idx] {
				continue
			}

			cols[entry.canonical] = idx
			claimed[idx] = true

			break
		}
	}

	return cols
}

// NormalizeRows maps tabular rows with an arbitrary header into records.
// Rows with every cell empty are skipped. Unparsable timestamps become unknown.
func NormalizeRows(header []string, rows [][]string) []models.Record {
	cols := ResolveColumns(header)
	group := cols.GroupColumn()
	records := make([]models.Record, 0, len(rows))

	for _, row := range rows {
		if blankRow(row) {
			continue
		}

		rec := models.Record{
			CollectedAt: ParseTimestamp(cols.value(row, models.ColumnDateScraped)),
			PublishedAt: ParseTimestamp(cols.value(row, models.ColumnPublishedAt)),
			Title:       cols.value(row, models.ColumnTitle),
			Source:      cols.value(row, models.ColumnSource),
			Link:        cols.value(row, models.ColumnLink),
			Snippet:     cols.value(row, models.ColumnSnippet),
			Query:       cols.value(row, models.ColumnQuery),
		}

		if group != "" {
			rec.GroupKey = cols.value(row, group)
		}

		records = append(records, rec)
	}

	return records
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
