package normalizer

import (
	"errors"
	"testing"

	"solarintel/internal/models"
)

func TestNewValidator(t *testing.T) {
	v := NewValidator()
	if v == nil {
		t.Fatal("NewValidator returned nil")
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		rec     models.Record
		wantErr error
	}{
		{"valid", models.Record{Title: "t", Link: "https://x"}, nil},
		{"missing title", models.Record{Link: "https://x"}, ErrMissingTitle},
		{"missing link", models.Record{Title: "t"}, ErrMissingLink},
		{"missing both", models.Record{}, ErrMissingTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.rec)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
