package normalizer

import (
	"errors"

	"solarintel/internal/models"
)

// Validation errors.
var (
	ErrMissingTitle = errors.New("record has no title")
	ErrMissingLink  = errors.New("record has no link")
)

// Validator checks required record fields.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks if a record meets requirements.
func (v *Validator) Validate(rec models.Record) error {
	if rec.Title == "" {
		return ErrMissingTitle
	}

	if rec.Link == "" {
		return ErrMissingLink
	}

	return nil
}
