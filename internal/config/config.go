// Package config provides configuration management for simgroup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thebtf/simgroup/internal/clustering"
	"github.com/thebtf/simgroup/pkg/models"
)

const (
	// FormatText renders the report as a table.
	FormatText = "text"
	// FormatJSON renders the report as JSON.
	FormatJSON = "json"

	// DefaultRoot is the directory scanned for submissions.
	DefaultRoot = "./test-data"
)

// DefaultExtensions are the file extensions compared by default.
var DefaultExtensions = []string{"html", "css", "js", "py"}

// DefaultIgnoreDirs are directory name patterns skipped while scanning.
var DefaultIgnoreDirs = []string{"node_modules", `^\.`}

// Config holds the application configuration.
type Config struct {
	// Scan settings
	Root       string   `yaml:"root"`
	Extensions []string `yaml:"extensions"`
	IgnoreDirs []string `yaml:"ignore_dirs"` // regular expressions, matched case-insensitively
	Lenient    bool     `yaml:"lenient"`     // unreadable files become empty instead of failing

	// Output settings
	Format string `yaml:"format"`
	Output string `yaml:"output"` // empty = stdout

	Clustering clustering.Options `yaml:"clustering"`
}

// DataDir returns the per-user configuration directory (~/.simgroup).
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".simgroup")
}

// SettingsPath returns the default settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Root:       DefaultRoot,
		Extensions: append([]string(nil), DefaultExtensions...),
		IgnoreDirs: append([]string(nil), DefaultIgnoreDirs...),
		Format:     FormatText,
		Clustering: clustering.DefaultOptions(),
	}
}

// Load reads the YAML file at path over the defaults, then applies SIMGROUP_*
// environment overrides. An empty path means SettingsPath(); a missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = SettingsPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides cfg from environment variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("SIMGROUP_ROOT"); ok && v != "" {
		cfg.Root = v
	}
	if v, ok := lookup("SIMGROUP_EXTENSIONS"); ok && v != "" {
		cfg.Extensions = splitTrim(v)
	}
	if v, ok := lookup("SIMGROUP_FORMAT"); ok && v != "" {
		cfg.Format = v
	}
	if v, ok := lookup("SIMGROUP_MODE"); ok && v != "" {
		cfg.Clustering.Mode = models.Mode(v)
	}
	if v, ok := lookup("SIMGROUP_THRESHOLD"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SIMGROUP_THRESHOLD: %w", err)
		}
		cfg.Clustering.Threshold = f
	}
	if v, ok := lookup("SIMGROUP_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SIMGROUP_WORKERS: %w", err)
		}
		cfg.Clustering.Workers = n
	}
	if v, ok := lookup("SIMGROUP_LENIENT"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SIMGROUP_LENIENT: %w", err)
		}
		cfg.Lenient = b
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("%w: root must be set", clustering.ErrInvalidConfig)
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		return fmt.Errorf("%w: unknown format %q", clustering.ErrInvalidConfig, c.Format)
	}
	return c.Clustering.Validate()
}

// splitTrim splits a comma-separated string and trims whitespace.
func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
