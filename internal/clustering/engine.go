// Package clustering runs similarity clustering passes over loaded artifacts.
//
// The engine assumes artifact content is already normalized (for example by an
// external formatter) and never rewrites it. It performs no I/O.
package clustering

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/simgroup/pkg/models"
	"github.com/thebtf/simgroup/pkg/similarity"
)

const meterName = "github.com/thebtf/simgroup/internal/clustering"

// Engine clusters artifacts according to its Options.
type Engine struct {
	opts   Options
	score  similarity.ScoreFunc
	logger zerolog.Logger

	comparisons metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewEngine validates opts and creates an engine.
// Metrics go to the global OpenTelemetry meter provider.
func NewEngine(opts Options, logger zerolog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers == 0 {
		opts.Workers = DefaultOptions().Workers
	}

	var scoreOpts []similarity.Option
	if opts.AutoJunk {
		scoreOpts = append(scoreOpts, similarity.WithAutoJunk(true))
	}

	e := &Engine{
		opts:   opts,
		score:  similarity.Scorer(scoreOpts...),
		logger: logger.With().Str("component", "clustering").Logger(),
	}
	e.initMetrics()
	return e, nil
}

func (e *Engine) initMetrics() {
	meter := otel.Meter(meterName)

	counter, err := meter.Int64Counter("simgroup.comparisons",
		metric.WithDescription("Similarity comparisons performed"))
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to create comparisons counter")
		counter = noop.Int64Counter{}
	}
	e.comparisons = counter

	hist, err := meter.Float64Histogram("simgroup.cluster.duration",
		metric.WithDescription("Duration of a clustering pass"),
		metric.WithUnit("s"))
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to create duration histogram")
		hist = noop.Float64Histogram{}
	}
	e.duration = hist
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Cluster groups artifacts according to the engine mode.
//
// Representative mode depends on artifact order; exhaustive mode does not,
// except for tie-breaking in presentation order. Invalid input wraps
// ErrInvalidInput, oversized input wraps ErrResourceExhausted, and a canceled or
// timed-out context aborts the pass without a partial result.
func (e *Engine) Cluster(ctx context.Context, artifacts []models.Artifact) (*models.ClusterResult, error) {
	if err := e.validateInput(artifacts); err != nil {
		return nil, err
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	e.logger.Debug().
		Str("mode", string(e.opts.Mode)).
		Float64("threshold", e.opts.Threshold).
		Int("artifacts", len(artifacts)).
		Msg("Clustering started")

	start := time.Now()
	result := &models.ClusterResult{
		Mode:          e.opts.Mode,
		Threshold:     e.opts.Threshold,
		MetricVersion: e.opts.metricVersion(),
		Digest:        e.digest(artifacts),
	}

	var err error
	switch e.opts.Mode {
	case models.ModeExhaustive:
		err = e.clusterExhaustive(ctx, artifacts, result)
	default:
		result.Groups, result.Comparisons, err = similarity.ClusterRepresentative(ctx, artifacts, e.opts.Threshold, e.score)
	}

	attrs := metric.WithAttributes(attribute.String("mode", string(e.opts.Mode)))
	e.comparisons.Add(ctx, int64(result.Comparisons), attrs)
	elapsed := time.Since(start)
	e.duration.Record(ctx, elapsed.Seconds(), attrs)

	if err != nil {
		e.logger.Warn().Err(err).Int("comparisons", result.Comparisons).Msg("Clustering aborted")
		return nil, fmt.Errorf("clustering aborted: %w", err)
	}

	e.logger.Info().
		Str("mode", string(e.opts.Mode)).
		Int("artifacts", len(artifacts)).
		Int("groups", len(result.Groups)).
		Int("reported", len(result.Reported())).
		Int("comparisons", result.Comparisons).
		Dur("duration", elapsed).
		Msg("Clustering complete")

	return result, nil
}

// clusterExhaustive scores every pair on a bounded worker pool, then merges on
// the calling goroutine.
func (e *Engine) clusterExhaustive(ctx context.Context, artifacts []models.Artifact, result *models.ClusterResult) error {
	tri, err := e.scorePairs(ctx, artifacts)
	if err != nil {
		return err
	}
	result.Comparisons = tri.Len()
	result.Groups, result.Pairs = similarity.ClusterPairs(artifacts, tri, e.opts.Threshold)
	return nil
}

// scorePairs fills the score triangle. Each task owns one row, so writes never overlap.
// Cancellation is checked between rows.
func (e *Engine) scorePairs(ctx context.Context, artifacts []models.Artifact) (*similarity.Triangle, error) {
	n := len(artifacts)
	tri := similarity.NewTriangle(n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := 0; i < n-1; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < n; j++ {
				tri.Set(i, j, e.score(artifacts[i].Content, artifacts[j].Content))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tri, nil
}

func (e *Engine) validateInput(artifacts []models.Artifact) error {
	if len(artifacts) == 0 {
		return fmt.Errorf("%w: no artifacts", ErrInvalidInput)
	}

	seen := make(map[models.ArtifactID]struct{}, len(artifacts))
	for i, a := range artifacts {
		if a.ID == "" {
			return fmt.Errorf("%w: artifact %d has an empty identifier", ErrInvalidInput, i)
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: duplicate artifact %q", ErrInvalidInput, a.ID)
		}
		seen[a.ID] = struct{}{}

		if e.opts.MaxArtifactRunes > 0 && len(a.Content) > e.opts.MaxArtifactRunes {
			if runes := utf8.RuneCountInString(a.Content); runes > e.opts.MaxArtifactRunes {
				return fmt.Errorf("%w: artifact %q has %d runes, limit %d",
					ErrResourceExhausted, a.ID, runes, e.opts.MaxArtifactRunes)
			}
		}
	}

	if e.opts.Mode == models.ModeExhaustive && e.opts.MaxPairs > 0 {
		n := len(artifacts)
		if pairs := n * (n - 1) / 2; pairs > e.opts.MaxPairs {
			return fmt.Errorf("%w: %d artifacts need %d pairs, limit %d",
				ErrResourceExhausted, n, pairs, e.opts.MaxPairs)
		}
	}
	return nil
}

// digest fingerprints the policy and the ordered input.
func (e *Engine) digest(artifacts []models.Artifact) string {
	h, _ := blake2b.New256(nil)

	writeField := func(s string) {
		var size [8]byte
		binary.BigEndian.PutUint64(size[:], uint64(len(s)))
		_, _ = h.Write(size[:])
		_, _ = h.Write([]byte(s))
	}

	writeField(string(e.opts.Mode))
	writeField(strconv.FormatFloat(e.opts.Threshold, 'g', -1, 64))
	writeField(e.opts.metricVersion())
	for _, a := range artifacts {
		writeField(string(a.ID))
		writeField(a.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}
