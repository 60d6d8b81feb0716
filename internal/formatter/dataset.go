package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"solarintel/internal/models"
	"solarintel/internal/store"
)

const defaultTitleWidth = 80

// View selects and shapes the rows of a dataset rendering.
type View struct {
	Title       string
	GroupColumn string
	Group       string
	Limit       int
	TitleWidth  int
}

// Filter returns the records of ds matching the view's group, newest first.
// The input dataset is not modified.
func Filter(ds models.Dataset, v View) []models.Record {
	out := make([]models.Record, 0, ds.Len())

	for _, rec := range ds.Records {
		if v.Group != "" && !strings.EqualFold(rec.GroupKey, v.Group) {
			continue
		}

		out = append(out, rec)
	}

	store.SortNewestFirst(out)

	if v.Limit > 0 && len(out) > v.Limit {
		out = out[:v.Limit]
	}

	return out
}

// Groups returns the distinct group keys of ds in first-seen order.
func Groups(ds models.Dataset) []string {
	seen := make(map[string]bool)

	var groups []string

	for _, rec := range ds.Records {
		if rec.GroupKey == "" || seen[rec.GroupKey] {
			continue
		}

		seen[rec.GroupKey] = true
		groups = append(groups, rec.GroupKey)
	}

	return groups
}

// RenderDataset renders ds as a Markdown document with a summary line and an aligned table.
func RenderDataset(ds models.Dataset, v View) string {
	records := Filter(ds, v)

	titleWidth := v.TitleWidth
	if titleWidth <= 0 {
		titleWidth = defaultTitleWidth
	}

	header := []string{models.ColumnDateScraped}
	if v.GroupColumn != "" {
		header = append(header, v.GroupColumn)
	}

	header = append(header, models.ColumnTitle, models.ColumnSource, models.ColumnPublishedAt, models.ColumnLink)

	rows := make([][]string, 0, len(records))

	for _, rec := range records {
		row := []string{dateCell(rec.CollectedAt)}
		if v.GroupColumn != "" {
			row = append(row, rec.GroupKey)
		}

		row = append(row,
			runewidth.Truncate(rec.Title, titleWidth, "…"),
			rec.Source,
			dateCell(rec.PublishedAt),
			rec.Link,
		)
		rows = append(rows, row)
	}

	var sb strings.Builder

	if v.Title != "" {
		sb.WriteString("# " + v.Title + "\n\n")
	}

	fmt.Fprintf(&sb, "Showing %d of %d records", len(records), ds.Len())

	if v.Group != "" {
		fmt.Fprintf(&sb, " for %s %q", strings.ToLower(v.GroupColumn), v.Group)
	}

	sb.WriteString("\n\n")
	sb.WriteString(Table(header, rows))

	return FormatMarkdown(sb.String())
}

// RenderEntities renders de-collided entities and the map centre.
func RenderEntities(entities []models.LocatedEntity, centerLat, centerLon float64) string {
	rows := make([][]string, 0, len(entities))

	for _, e := range entities {
		rows = append(rows, []string{
			e.Name,
			strconv.FormatFloat(e.Lat, 'f', 6, 64),
			strconv.FormatFloat(e.Lon, 'f', 6, 64),
			e.Link,
		})
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Map centre: %.4f, %.4f (%d entities)\n\n", centerLat, centerLon, len(entities))
	sb.WriteString(Table([]string{"Name", "Lat", "Lon", "Link"}, rows))

	return FormatMarkdown(sb.String())
}

// Table builds an unaligned Markdown table. Pipes in cells are escaped.
func Table(header []string, rows [][]string) string {
	var sb strings.Builder

	writeRow := func(cells []string) {
		sb.WriteString("|")

		for _, c := range cells {
			sb.WriteString(" " + escapeCell(c) + " |")
		}

		sb.WriteString("\n")
	}

	writeRow(header)

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}

	writeRow(sep)

	for _, r := range rows {
		writeRow(r)
	}

	return sb.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")

	return strings.ReplaceAll(s, "|", `\|`)
}

func dateCell(t models.Timestamp) string {
	if !t.Valid {
		return "unknown"
	}

	return t.Time.UTC().Format("2006-01-02 15:04")
}
