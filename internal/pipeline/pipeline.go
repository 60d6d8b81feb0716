// Package pipeline wires fetch, filter, normalize and merge into one collection cycle.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"solarintel/internal/config"
	"solarintel/internal/crawler"
	"solarintel/internal/crawler/sources"
	"solarintel/internal/filter"
	"solarintel/internal/logger"
	"solarintel/internal/models"
	"solarintel/internal/normalizer"
	"solarintel/internal/scheduler"
	"solarintel/internal/store"
)

// Report summarises one cycle.
type Report struct {
	RunID    string
	Fetched  int
	Failed   int
	Rejected int
	Dropped  int
	Merge    store.MergeStats
	Duration time.Duration
}

// Pipeline collects one dataset.
type Pipeline struct {
	name      string
	subjects  []models.Subject
	fetcher   *crawler.Fetcher
	filter    *filter.Filter
	processor *normalizer.Processor
	store     store.Store
	mergeOpts store.MergeOptions
	needsKey  bool
	log       *logger.Logger
	now       func() time.Time
}

// New builds a pipeline from its configuration.
func New(cfg *config.Config, p config.PipelineConfig, log *logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.Discard()
	}

	log = log.With("pipeline", p.Name)

	scraper := crawler.NewScraper(cfg.GetTimeout())

	srcs, err := sources.BuildAll(p.Sources, scraper, cfg.NewsAPIKey())
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.Name, err)
	}

	flt, err := filter.FromPreset(p.Filter.Preset, p.Filter.Phrases)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.Name, err)
	}

	st, err := store.Open(p.Store, cfg.DatasetPath(&p), p.Name, LayoutFor(p))
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.Name, err)
	}

	return &Pipeline{
		name:      p.Name,
		subjects:  p.Subjects,
		fetcher:   crawler.NewFetcher(srcs, cfg.HTTP.MaxConcurrency, log),
		filter:    flt,
		processor: normalizer.NewProcessor(log),
		store:     st,
		mergeOpts: MergeOptionsFor(p),
		needsKey:  p.NeedsCredential(),
		log:       log,
		now:       time.Now,
	}, nil
}

// LayoutFor maps pipeline settings onto a store layout.
func LayoutFor(p config.PipelineConfig) store.Layout {
	return store.Layout{
		GroupColumn: p.GroupColumn,
		KeyMode:     store.KeyMode(p.DedupKey),
		KeepQuery:   p.KeepQuery,
		KeepSnippet: p.KeepSnippet,
	}
}

// MergeOptionsFor maps pipeline settings onto merge options.
func MergeOptionsFor(p config.PipelineConfig) store.MergeOptions {
	return store.MergeOptions{
		KeyMode:       store.KeyMode(p.DedupKey),
		SortPublished: p.Sort == config.SortPublishedDesc,
	}
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// Store returns the dataset store.
func (p *Pipeline) Store() store.Store {
	return p.store
}

// Close releases the store.
func (p *Pipeline) Close() error {
	return p.store.Close()
}

// Check verifies the dataset location is writable.
func (p *Pipeline) Check() error {
	return store.Check(p.store.Path())
}

// Cycle runs fetch, filter, normalize and merge once.
// A missing credential returns crawler.ErrMissingCredential before any request.
// A persistence failure returns an error wrapping store.ErrPersist and leaves
// the stored dataset unchanged.
func (p *Pipeline) Cycle(ctx context.Context, cycle int64) (Report, error) {
	start := time.Now()
	report := Report{RunID: uuid.NewString()}
	log := p.log.With("cycle", cycle, "run_id", report.RunID)

	if p.needsKey {
		if err := p.fetcher.CheckCredentials(); err != nil {
			return report, err
		}
	}

	results := p.fetcher.FetchAll(ctx, p.subjects)
	items := crawler.Items(results)
	report.Fetched = len(items)
	report.Failed = crawler.Failures(results)

	kept, rejected := p.filter.Apply(items)
	report.Rejected = rejected

	records, dropped := p.processor.Process(kept, p.now())
	report.Dropped = dropped

	stats, err := store.MergeAndPersist(ctx, p.store, records, p.mergeOpts)
	report.Merge = stats
	report.Duration = time.Since(start)

	if err != nil {
		return report, err
	}

	if len(records) == 0 {
		log.Info("no new headlines",
			"fetched", report.Fetched,
			"failed_requests", report.Failed,
			"rejected", report.Rejected,
		)

		return report, nil
	}

	log.Info("headlines merged",
		"fetched", report.Fetched,
		"failed_requests", report.Failed,
		"rejected", report.Rejected,
		"dropped", report.Dropped,
		"added", stats.Added,
		"duplicates", stats.Duplicates,
		"total", stats.Total,
		"duration", report.Duration.String(),
	)

	return report, nil
}

// Job adapts Cycle to a scheduler job.
func (p *Pipeline) Job() scheduler.Job {
	return func(ctx context.Context, cycle int64) error {
		_, err := p.Cycle(ctx, cycle)

		return err
	}
}

// RunAll runs one scheduler per pipeline until ctx is done.
func RunAll(ctx context.Context, pipelines []*Pipeline, interval time.Duration, log *logger.Logger, opts ...scheduler.Option) error {
	if log == nil {
		log = logger.Discard()
	}

	schedulers := make([]*scheduler.Scheduler, 0, len(pipelines))

	for _, p := range pipelines {
		s, err := scheduler.New(p.Name(), interval, p.Job(), append([]scheduler.Option{scheduler.WithLogger(log)}, opts...)...)
		if err != nil {
			return fmt.Errorf("pipeline %s: %w", p.Name(), err)
		}

		schedulers = append(schedulers, s)
	}

	var wg sync.WaitGroup

	for _, s := range schedulers {
		s := s
		log.Info("scheduler started", "pipeline", s.Name(), "interval", s.Interval().String())

		wg.Add(1)

		go func() {
			defer wg.Done()
			_ = s.Run(ctx)
		}()
	}

	wg.Wait()

	return ctx.Err()
}
