package store

import (
	"sort"

	"solarintel/internal/models"
)

// MergeOptions controls key derivation and output ordering.
type MergeOptions struct {
	KeyMode       KeyMode
	SortPublished bool
}

// MergeStats summarises one merge.
type MergeStats struct {
	Existing   int
	Incoming   int
	Added      int
	Duplicates int
	Total      int
}

// Merge concatenates existing then batch and keeps the first record seen for
// each key. With SortPublished the result is ordered newest published first,
// unknown published times last, ties broken by collection time.
func Merge(existing models.Dataset, batch []models.Record, opts MergeOptions) (models.Dataset, MergeStats) {
	stats := MergeStats{
		Existing: existing.Len(),
		Incoming: len(batch),
	}

	seen := make(map[string]bool, existing.Len()+len(batch))
	out := make([]models.Record, 0, existing.Len()+len(batch))

	for _, rec := range existing.Records {
		k := Key(rec, opts.KeyMode)
		if seen[k] {
			continue
		}

		seen[k] = true
		out = append(out, rec)
	}

	for _, rec := range batch {
		k := Key(rec, opts.KeyMode)
		if seen[k] {
			stats.Duplicates++

			continue
		}

		seen[k] = true
		out = append(out, rec)
		stats.Added++
	}

	if opts.SortPublished {
		SortNewestFirst(out)
	}

	stats.Total = len(out)

	return models.Dataset{Records: out}, stats
}

// SortNewestFirst orders records by published time descending, unknown last,
// then by collection time descending. The sort is stable.
func SortNewestFirst(records []models.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]

		if a.PublishedAt.Valid != b.PublishedAt.Valid {
			return a.PublishedAt.Valid
		}

		if a.PublishedAt.Valid && !a.PublishedAt.Time.Equal(b.PublishedAt.Time) {
			return a.PublishedAt.Time.After(b.PublishedAt.Time)
		}

		return a.CollectedAt.After(b.CollectedAt)
	})
}
