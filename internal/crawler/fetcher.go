// Package crawler fans queries out to upstream sources and collects raw items.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"solarintel/internal/logger"
	"solarintel/internal/models"
)

const defaultMaxConcurrency = 4

// SubjectResult is the outcome of one (source, subject) fetch.
type SubjectResult struct {
	Source   string
	Subject  models.Subject
	Items    []models.RawItem
	Err      error
	Duration time.Duration
}

// Fetcher issues one request per source and subject.
type Fetcher struct {
	sources        []Source
	maxConcurrency int
	log            *logger.Logger
}

// NewFetcher creates a fetcher. maxConcurrency below 1 means the default.
func NewFetcher(sources []Source, maxConcurrency int, log *logger.Logger) *Fetcher {
	if maxConcurrency < 1 {
		maxConcurrency = defaultMaxConcurrency
	}

	if log == nil {
		log = logger.Discard()
	}

	return &Fetcher{
		sources:        sources,
		maxConcurrency: maxConcurrency,
		log:            log,
	}
}

// CheckCredentials returns ErrMissingCredential naming the first source that needs a key it lacks.
func (f *Fetcher) CheckCredentials() error {
	for _, src := range f.sources {
		if cs, ok := src.(CredentialedSource); ok && !cs.HasCredential() {
			return fmt.Errorf("%w: source %s", ErrMissingCredential, src.Name())
		}
	}

	return nil
}

// FetchAll runs every source for every subject, or once per source when
// subjects is empty. Results are ordered by source then subject regardless of
// completion order. A failed request yields an empty result with Err set and
// never affects the others.
func (f *Fetcher) FetchAll(ctx context.Context, subjects []models.Subject) []SubjectResult {
	if len(subjects) == 0 {
		subjects = []models.Subject{{}}
	}

	results := make([]SubjectResult, len(f.sources)*len(subjects))

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, f.maxConcurrency)
	)

	for si, src := range f.sources {
		for qi, subject := range subjects {
			idx := si*len(subjects) + qi
			src, subject := src, subject

			wg.Add(1)

			go func() {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				results[idx] = f.fetchOne(ctx, src, subject)
			}()
		}
	}

	wg.Wait()

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, src Source, subject models.Subject) (res SubjectResult) {
	res = SubjectResult{Source: src.Name(), Subject: subject}
	start := time.Now()

	defer func() {
		panicked := false

		if r := recover(); r != nil {
			panicked = true
			res.Items = nil
			res.Err = fmt.Errorf("source panicked: %v", r)
		}

		res.Duration = time.Since(start)
		f.logResult(ctx, res, panicked)
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err

		return res
	}

	items, err := src.Fetch(ctx, Request{Subject: subject})
	if err != nil {
		res.Err = err

		return res
	}

	for i := range items {
		if subject.Name != "" {
			items[i].GroupKey = subject.Name
		}
	}

	res.Items = items

	return res
}

// logResult logs success at debug, failure at warn and a panic at error.
func (f *Fetcher) logResult(ctx context.Context, res SubjectResult, panicked bool) {
	level, msg := slog.LevelDebug, "fetch complete"
	args := []any{
		"source", res.Source,
		"subject", res.Subject.Name,
		"duration", res.Duration.String(),
	}

	switch {
	case panicked:
		level, msg = slog.LevelError, "fetch panicked"
		args = append(args, "error", res.Err)
	case res.Err != nil:
		level, msg = slog.LevelWarn, "fetch failed"
		args = append(args, "error", res.Err)
	default:
		args = append(args, "items", len(res.Items))
	}

	f.log.Log(ctx, level, msg, args...)
}

// Items flattens results into one batch in result order.
func Items(results []SubjectResult) []models.RawItem {
	var n int
	for _, r := range results {
		n += len(r.Items)
	}

	items := make([]models.RawItem, 0, n)
	for _, r := range results {
		items = append(items, r.Items...)
	}

	return items
}

// Failures counts results with an error.
func Failures(results []SubjectResult) int {
	var n int

	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}

	return n
}
