package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"solarintel/internal/config"
	"solarintel/internal/crawler"
	"solarintel/internal/pipeline"
)

var errUnknownPipeline = errors.New("unknown pipeline")

// selectPipelines returns the named pipelines, or every enabled one when names is empty.
func (a *app) selectPipelines(names []string) ([]config.PipelineConfig, error) {
	if len(names) == 0 {
		return a.cfg.GetEnabledPipelines(), nil
	}

	selected := make([]config.PipelineConfig, 0, len(names))

	for _, name := range names {
		p, ok := a.cfg.GetPipeline(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errUnknownPipeline, name)
		}

		selected = append(selected, p)
	}

	return selected, nil
}

// buildPipelines constructs the selected pipelines and checks that every
// dataset location is writable.
func (a *app) buildPipelines(names []string) ([]*pipeline.Pipeline, error) {
	cfgs, err := a.selectPipelines(names)
	if err != nil {
		return nil, err
	}

	built := make([]*pipeline.Pipeline, 0, len(cfgs))

	for _, pc := range cfgs {
		p, err := pipeline.New(a.cfg, pc, a.log)
		if err == nil {
			err = p.Check()
			if err != nil {
				_ = p.Close()
			}
		}

		if err != nil {
			closeAll(built)

			return nil, err
		}

		built = append(built, p)
	}

	return built, nil
}

func closeAll(pipelines []*pipeline.Pipeline) {
	for _, p := range pipelines {
		_ = p.Close()
	}
}

func newRunCmd(a *app) *cobra.Command {
	var interval string

	cmd := &cobra.Command{
		Use:   "run [pipeline...]",
		Short: "Poll continuously until interrupted",
		Long:  "Run one cycle per pipeline immediately, then one per interval. Cycles of the same pipeline never overlap.",
		RunE: func(cmd *cobra.Command, args []string) error {
			every := a.cfg.GetInterval()

			if interval != "" {
				d, err := time.ParseDuration(interval)
				if err != nil || d <= 0 {
					return fmt.Errorf("%w: %q", config.ErrInvalidInterval, interval)
				}

				every = d
			}

			pipelines, err := a.buildPipelines(args)
			if err != nil {
				return err
			}
			defer closeAll(pipelines)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.log.Info("worker started", "pipelines", len(pipelines), "interval", every.String())

			err = pipeline.RunAll(ctx, pipelines, every, a.log)
			if errors.Is(err, context.Canceled) {
				a.log.Info("worker stopped")

				return nil
			}

			return err
		},
	}

	cmd.Flags().StringVar(&interval, "interval", "", "override scheduler.interval (e.g. 30m)")

	return cmd
}

func newOnceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "once [pipeline...]",
		Short: "Run a single cycle of each pipeline and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipelines, err := a.buildPipelines(args)
			if err != nil {
				return err
			}
			defer closeAll(pipelines)

			out := cmd.OutOrStdout()
			failed := 0

			for _, p := range pipelines {
				report, err := p.Cycle(cmd.Context(), 1)

				switch {
				case errors.Is(err, crawler.ErrMissingCredential):
					warnColor.Fprintf(out, "%-14s skipped: %v\n", p.Name(), err)
				case err != nil:
					failed++

					errColor.Fprintf(out, "%-14s failed: %v\n", p.Name(), err)
				default:
					okColor.Fprintf(out, "%-14s +%d new, %d duplicate, %d total (fetched %d, rejected %d, dropped %d, failed requests %d)\n",
						p.Name(), report.Merge.Added, report.Merge.Duplicates, report.Merge.Total,
						report.Fetched, report.Rejected, report.Dropped, report.Failed)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d pipeline(s) failed", failed)
			}

			return nil
		},
	}
}
