// Package models defines data structures shared by the collector, the store and the display boundary.
package models

import "time"

// Canonical dataset column names.
const (
	ColumnDateScraped = "Date Scraped"
	ColumnPublishedAt = "Published At"
	ColumnTitle       = "Title"
	ColumnSource      = "Source"
	ColumnLink        = "Link"
	ColumnSnippet     = "Snippet"
	ColumnQuery       = "Query"
	ColumnCompany     = "Company"
	ColumnCountry     = "Country"
)

// Timestamp is a point in time that may be unknown.
// An unknown timestamp is never replaced by the current time.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// KnownTime wraps t as a valid Timestamp.
func KnownTime(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true}
}

// String formats the timestamp as RFC3339, or "" when unknown.
func (t Timestamp) String() string {
	if !t.Valid {
		return ""
	}

	return t.Time.UTC().Format(time.RFC3339)
}

// After reports whether t is later than u. Unknown sorts before everything.
func (t Timestamp) After(u Timestamp) bool {
	switch {
	case !t.Valid:
		return false
	case !u.Valid:
		return true
	default:
		return t.Time.After(u.Time)
	}
}

// Record is one collected headline.
type Record struct {
	CollectedAt Timestamp `json:"collectedAt"`
	PublishedAt Timestamp `json:"publishedAt"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Link        string    `json:"link"`
	GroupKey    string    `json:"groupKey,omitempty"`
	Snippet     string    `json:"snippet,omitempty"`
	Query       string    `json:"query,omitempty"`
}

// RawItem is an upstream item before filtering and normalization.
// All fields are the source's text, unparsed.
type RawItem struct {
	Title       string
	Snippet     string
	Source      string
	Link        string
	PublishedAt string
	GroupKey    string
	Query       string
}

// Dataset is the full collection of records for one pipeline.
type Dataset struct {
	Records []Record
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.Records)
}
