// Package runner wires scanning, loading, clustering and reporting into a
// single report run over a submissions tree.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/thebtf/simgroup/internal/clustering"
	"github.com/thebtf/simgroup/internal/config"
	"github.com/thebtf/simgroup/internal/loader"
	"github.com/thebtf/simgroup/internal/report"
	"github.com/thebtf/simgroup/internal/watcher"
)

// ReportTitle is the heading of every generated report.
const ReportTitle = "Code Similarity Analysis Report"

// Runner produces similarity reports for one configuration.
type Runner struct {
	cfg     *config.Config
	scanner *loader.Scanner
	loader  loader.Loader
	engine  *clustering.Engine
	logger  zerolog.Logger
	now     func() time.Time
}

// New validates cfg and builds a runner.
func New(cfg *config.Config, logger zerolog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scanner, err := loader.NewScanner(cfg.Extensions, cfg.IgnoreDirs, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", clustering.ErrInvalidConfig, err)
	}

	engine, err := clustering.NewEngine(cfg.Clustering, logger)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:     cfg,
		scanner: scanner,
		loader:  loader.NewFSLoader(cfg.Lenient, logger),
		engine:  engine,
		logger:  logger.With().Str("component", "runner").Logger(),
		now:     time.Now,
	}, nil
}

// Run scans the root and clusters each extension separately, one report
// section per extension.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	refs, err := r.scanner.Scan(ctx, r.cfg.Root)
	if err != nil {
		return nil, err
	}

	artifacts, err := loader.LoadAll(ctx, r.loader, refs)
	if err != nil {
		return nil, err
	}

	rep := report.New(ReportTitle, r.now())
	if len(artifacts) == 0 {
		r.logger.Warn().Str("root", r.cfg.Root).Msg("No artifacts found")
		return rep, nil
	}

	for _, bucket := range loader.Partition(refs, artifacts) {
		result, err := r.engine.Cluster(ctx, bucket.Artifacts)
		if err != nil {
			return nil, fmt.Errorf("cluster .%s files: %w", bucket.Ext, err)
		}
		rep.Add(bucket.Ext, result)
	}

	r.logger.Info().
		Int("artifacts", len(artifacts)).
		Int("sections", len(rep.Sections)).
		Int("high", rep.Summary.High).
		Msg("Report generated")
	return rep, nil
}

// Write renders rep in the configured format.
func (r *Runner) Write(w io.Writer, rep *report.Report) error {
	if r.cfg.Format == config.FormatJSON {
		return report.WriteJSON(w, rep)
	}
	return report.WriteText(w, rep)
}

// RunOnce runs and writes the report to the configured output, or to stdout
// when none is set.
func (r *Runner) RunOnce(ctx context.Context, stdout io.Writer) (err error) {
	rep, err := r.Run(ctx)
	if err != nil {
		return err
	}

	if r.cfg.Output == "" {
		return r.Write(stdout, rep)
	}

	f, err := os.Create(r.cfg.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	if err := r.Write(f, rep); err != nil {
		return err
	}
	r.logger.Info().Str("path", r.cfg.Output).Msg("Report written")
	return nil
}

// Watch runs once, then again after every change under the root, until ctx is
// done. Failed runs are logged and do not stop watching.
func (r *Runner) Watch(ctx context.Context, stdout io.Writer, opts ...watcher.Option) error {
	trigger := make(chan struct{}, 1)
	onChange := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	base := []watcher.Option{watcher.WithIgnore(r.scanner.IgnoresDir)}
	if r.cfg.Output != "" {
		base = append(base, watcher.WithSkipFile(r.cfg.Output))
	}
	opts = append(base, opts...)
	w, err := watcher.New(r.cfg.Root, onChange, r.logger, opts...)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer func() {
		if err := w.Stop(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to stop watcher")
		}
	}()

	r.runLogged(ctx, stdout)
	r.logger.Info().Str("root", r.cfg.Root).Msg("Watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			r.runLogged(ctx, stdout)
		}
	}
}

func (r *Runner) runLogged(ctx context.Context, stdout io.Writer) {
	if err := r.RunOnce(ctx, stdout); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error().Err(err).Msg("Report run failed")
	}
}
