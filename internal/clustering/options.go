package clustering

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/thebtf/simgroup/pkg/models"
)

const (
	// DefaultThreshold is the minimum similarity for two artifacts to be grouped.
	DefaultThreshold = 0.8

	// DefaultMaxArtifactRunes caps a single artifact's length. Scoring is O(n*m).
	DefaultMaxArtifactRunes = 1 << 20

	// DefaultMaxPairs caps the number of pairs scored in exhaustive mode.
	DefaultMaxPairs = 50_000_000
)

// Options configures an Engine.
type Options struct {
	// Threshold is the minimum score for grouping, in (0, 1].
	Threshold float64 `json:"threshold" yaml:"threshold"`
	// Mode selects the clustering policy.
	Mode models.Mode `json:"mode" yaml:"mode"`
	// Workers bounds concurrent pair scoring in exhaustive mode.
	Workers int `json:"workers" yaml:"workers"`
	// MaxArtifactRunes rejects inputs with a longer artifact (0 = unlimited).
	MaxArtifactRunes int `json:"max_artifact_runes" yaml:"max_artifact_runes"`
	// MaxPairs rejects exhaustive runs needing more pair scores (0 = unlimited).
	MaxPairs int `json:"max_pairs" yaml:"max_pairs"`
	// AutoJunk enables the popular-element heuristic of the matcher.
	AutoJunk bool `json:"auto_junk" yaml:"auto_junk"`
	// Timeout bounds the whole pass (0 = none).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		Threshold:        DefaultThreshold,
		Mode:             models.ModeRepresentative,
		Workers:          runtime.NumCPU(),
		MaxArtifactRunes: DefaultMaxArtifactRunes,
		MaxPairs:         DefaultMaxPairs,
	}
}

// Validate checks the options. Errors wrap ErrInvalidConfig.
func (o Options) Validate() error {
	if math.IsNaN(o.Threshold) || o.Threshold <= 0 || o.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside (0, 1]", ErrInvalidConfig, o.Threshold)
	}
	if !o.Mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, o.Mode)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if o.MaxArtifactRunes < 0 || o.MaxPairs < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// metricVersion names the metric variant recorded in results.
func (o Options) metricVersion() string {
	if o.AutoJunk {
		return models.MetricVersion + "+autojunk"
	}
	return models.MetricVersion
}
