package normalizer

import (
	"testing"
	"time"

	"solarintel/internal/models"
)

func TestNewProcessor(t *testing.T) {
	p := NewProcessor(nil)
	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor(nil)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	items := []models.RawItem{
		{Title: "First", Link: "https://a"},
		{Title: "", Link: "https://b"},
		{Title: "Third", Link: ""},
		{Title: "Fourth", Link: "https://d", PublishedAt: "2025-05-31"},
	}

	records, dropped := p.Process(items, now)

	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	if records[0].Title != "First" || records[1].Title != "Fourth" {
		t.Errorf("order not preserved: %q, %q", records[0].Title, records[1].Title)
	}

	if !records[1].PublishedAt.Valid {
		t.Error("expected parsed published time")
	}
}

func TestProcessor_Process_Empty(t *testing.T) {
	records, dropped := NewProcessor(nil).Process(nil, time.Now())
	if len(records) != 0 || dropped != 0 {
		t.Errorf("expected empty result, got %d records, %d dropped", len(records), dropped)
	}
}
