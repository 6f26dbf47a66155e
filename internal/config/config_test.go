package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/simgroup/internal/clustering"
	"github.com/thebtf/simgroup/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultRoot, cfg.Root)
	assert.Equal(t, DefaultExtensions, cfg.Extensions)
	assert.Equal(t, DefaultIgnoreDirs, cfg.IgnoreDirs)
	assert.Equal(t, FormatText, cfg.Format)
	assert.False(t, cfg.Lenient)
	assert.Equal(t, clustering.DefaultThreshold, cfg.Clustering.Threshold)
	assert.Equal(t, models.ModeRepresentative, cfg.Clustering.Mode)
	assert.NoError(t, cfg.Validate())

	// Defaults must not share backing arrays with the package variables.
	cfg.Extensions[0] = "changed"
	assert.NotEqual(t, "changed", DefaultExtensions[0])
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simgroup.yaml")
	content := `root: ./clones
extensions: [css, js]
lenient: true
format: json
clustering:
  threshold: 0.65
  mode: exhaustive-pairwise
  workers: 3
  auto_junk: true
  timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./clones", cfg.Root)
	assert.Equal(t, []string{"css", "js"}, cfg.Extensions)
	assert.Equal(t, DefaultIgnoreDirs, cfg.IgnoreDirs)
	assert.True(t, cfg.Lenient)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, 0.65, cfg.Clustering.Threshold)
	assert.Equal(t, models.ModeExhaustive, cfg.Clustering.Mode)
	assert.Equal(t, 3, cfg.Clustering.Workers)
	assert.True(t, cfg.Clustering.AutoJunk)
	assert.Equal(t, 30*time.Second, cfg.Clustering.Timeout)
	// Unset nested fields keep their defaults.
	assert.Equal(t, clustering.DefaultMaxArtifactRunes, cfg.Clustering.MaxArtifactRunes)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clustering: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simgroup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: ./from-file\n"), 0o600))

	t.Setenv("SIMGROUP_ROOT", "./from-env")
	t.Setenv("SIMGROUP_THRESHOLD", "0.9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./from-env", cfg.Root)
	assert.Equal(t, 0.9, cfg.Clustering.Threshold)
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name: "all overrides",
			env: map[string]string{
				"SIMGROUP_EXTENSIONS": " css , html ,",
				"SIMGROUP_FORMAT":     "json",
				"SIMGROUP_MODE":       "exhaustive-pairwise",
				"SIMGROUP_WORKERS":    "2",
				"SIMGROUP_LENIENT":    "true",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"css", "html"}, cfg.Extensions)
				assert.Equal(t, FormatJSON, cfg.Format)
				assert.Equal(t, models.ModeExhaustive, cfg.Clustering.Mode)
				assert.Equal(t, 2, cfg.Clustering.Workers)
				assert.True(t, cfg.Lenient)
			},
		},
		{
			name: "empty values are ignored",
			env:  map[string]string{"SIMGROUP_ROOT": "", "SIMGROUP_THRESHOLD": ""},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultRoot, cfg.Root)
				assert.Equal(t, clustering.DefaultThreshold, cfg.Clustering.Threshold)
			},
		},
		{name: "bad threshold", env: map[string]string{"SIMGROUP_THRESHOLD": "high"}, wantErr: true},
		{name: "bad workers", env: map[string]string{"SIMGROUP_WORKERS": "many"}, wantErr: true},
		{name: "bad lenient", env: map[string]string{"SIMGROUP_LENIENT": "maybe"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := applyEnv(cfg, func(key string) (string, bool) {
				v, ok := tt.env[key]
				return v, ok
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty root", mutate: func(c *Config) { c.Root = "" }},
		{name: "unknown format", mutate: func(c *Config) { c.Format = "html" }},
		{name: "threshold out of range", mutate: func(c *Config) { c.Clustering.Threshold = 2 }},
		{name: "unknown mode", mutate: func(c *Config) { c.Clustering.Mode = "fuzzy" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), clustering.ErrInvalidConfig)
		})
	}
}

func TestSplitTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitTrim(" a, ,b "))
	assert.Empty(t, splitTrim(""))
}
