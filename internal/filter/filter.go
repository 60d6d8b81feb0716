// Package filter decides which upstream items are relevant enough to keep.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"solarintel/internal/models"
	"solarintel/pkg/utils"
)

// ErrUnknownPreset is returned for an unrecognised preset name.
var ErrUnknownPreset = errors.New("unknown filter preset")

// Preset names.
const (
	PresetKeyword     = "keyword"
	PresetTitlePhrase = "title_phrase"
)

// FieldSet selects which item fields a filter inspects.
type FieldSet uint8

// Fields.
const (
	FieldTitle FieldSet = 1 << iota
	FieldSnippet
)

// Has reports whether f includes field.
func (f FieldSet) Has(field FieldSet) bool {
	return f&field != 0
}

// Filter accepts an item when any phrase occurs, case-insensitively, in the
// concatenation of the selected fields. An empty phrase list accepts everything.
type Filter struct {
	phrases []string
	fields  FieldSet
}

// New builds a filter. Phrases are trimmed and lowercased; blanks are discarded.
func New(phrases []string, fields FieldSet) *Filter {
	f := &Filter{fields: fields}

	for _, p := range phrases {
		p = strings.ToLower(utils.NormalizeWhitespace(p))
		if p != "" {
			f.phrases = append(f.phrases, p)
		}
	}

	return f
}

// FromPreset builds a filter from a preset name.
func FromPreset(name string, phrases []string) (*Filter, error) {
	switch name {
	case PresetKeyword, "":
		return Keyword(phrases), nil
	case PresetTitlePhrase:
		return TitlePhrase(phrases), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
}

// Keyword matches on title and snippet.
func Keyword(phrases []string) *Filter {
	return New(phrases, FieldTitle|FieldSnippet)
}

// TitlePhrase matches on the title only.
func TitlePhrase(phrases []string) *Filter {
	return New(phrases, FieldTitle)
}

// Accept reports whether item is relevant. Runs of whitespace in the item
// count as a single space, as they do once the record is normalized.
func (f *Filter) Accept(item models.RawItem) bool {
	if len(f.phrases) == 0 {
		return true
	}

	var parts []string
	if f.fields.Has(FieldTitle) {
		parts = append(parts, item.Title)
	}

	if f.fields.Has(FieldSnippet) {
		parts = append(parts, item.Snippet)
	}

	text := strings.ToLower(utils.NormalizeWhitespace(strings.Join(parts, " ")))

	for _, p := range f.phrases {
		if strings.Contains(text, p) {
			return true
		}
	}

	return false
}

// Apply keeps accepted items in order and counts the rest.
func (f *Filter) Apply(items []models.RawItem) (kept []models.RawItem, rejected int) {
	kept = make([]models.RawItem, 0, len(items))

	for _, item := range items {
		if f.Accept(item) {
			kept = append(kept, item)
		} else {
			rejected++
		}
	}

	return kept, rejected
}
