package store

import "solarintel/internal/models"

// KeyMode selects how a record's uniqueness key is derived.
type KeyMode string

// Key modes.
const (
	KeyLink      KeyMode = "link"
	KeyTitleLink KeyMode = "title_link"
)

const keySeparator = "\x1f"

// Key returns the uniqueness key of rec. In link mode the link is the key,
// falling back to title plus link when the link is empty. In title_link mode
// the key is always the title and link together.
func Key(rec models.Record, mode KeyMode) string {
	if mode != KeyTitleLink && rec.Link != "" {
		return rec.Link
	}

	return rec.Title + keySeparator + rec.Link
}
