// Package normalizer maps upstream items and legacy tabular rows onto canonical records.
package normalizer

import (
	"time"

	"solarintel/internal/logger"
	"solarintel/internal/models"
)

// Processor handles record transformation and validation.
type Processor struct {
	validator   *Validator
	transformer *Transformer
	log         *logger.Logger
}

// NewProcessor creates a new processor instance.
func NewProcessor(log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Discard()
	}

	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
		log:         log,
	}
}

// Process transforms and validates a batch. Invalid items are logged and
// dropped; the rest of the batch is returned in input order.
func (p *Processor) Process(items []models.RawItem, collectedAt time.Time) (records []models.Record, dropped int) {
	records = make([]models.Record, 0, len(items))

	for i, item := range items {
		rec := p.transformer.Transform(item, collectedAt)

		if err := p.validator.Validate(rec); err != nil {
			p.log.Warn("dropping invalid item",
				"index", i,
				"subject", item.GroupKey,
				"link", item.Link,
				"error", err,
			)

			dropped++

			continue
		}

		records = append(records, rec)
	}

	return records, dropped
}
