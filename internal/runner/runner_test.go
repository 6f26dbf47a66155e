package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/simgroup/internal/clustering"
	"github.com/thebtf/simgroup/internal/config"
	"github.com/thebtf/simgroup/internal/report"
	"github.com/thebtf/simgroup/internal/watcher"
	"github.com/thebtf/simgroup/pkg/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func submissions(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lab1-alice", "main.py"), "print(1)\n")
	writeFile(t, filepath.Join(root, "lab1-bob", "main.py"), "print(1)\n")
	writeFile(t, filepath.Join(root, "lab1-carol", "main.py"), "def f(): return 2\n")
	writeFile(t, filepath.Join(root, "lab1-carol", "style.css"), "body { margin: 0; }\n")
	writeFile(t, filepath.Join(root, "lab1-carol", "node_modules", "dep.py"), "print(1)\n")
	return root
}

func newRunner(t *testing.T, mutate func(*config.Config)) *Runner {
	t.Helper()
	cfg := config.Default()
	cfg.Root = submissions(t)
	if mutate != nil {
		mutate(cfg)
	}
	r, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return r
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Clustering.Threshold = 0
	_, err := New(cfg, zerolog.Nop())
	assert.ErrorIs(t, err, clustering.ErrInvalidConfig)

	cfg = config.Default()
	cfg.IgnoreDirs = []string{"["}
	_, err = New(cfg, zerolog.Nop())
	assert.ErrorIs(t, err, clustering.ErrInvalidConfig)
}

func TestRunner_Run(t *testing.T) {
	r := newRunner(t, nil)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Sections, 2)
	assert.Equal(t, "css", rep.Sections[0].Name)
	assert.Empty(t, rep.Sections[0].Rows)

	py := rep.Sections[1]
	assert.Equal(t, "py", py.Name)
	assert.Equal(t, 3, py.Artifacts)
	assert.Equal(t, 2, py.Comparisons)
	require.Len(t, py.Rows, 1)

	root := r.cfg.Root
	assert.Equal(t, filepath.Join(root, "lab1-alice", "main.py")+" (alice)", py.Rows[0].First)
	assert.Equal(t, filepath.Join(root, "lab1-bob", "main.py")+" (bob)", py.Rows[0].Second)
	assert.Equal(t, "100%", py.Rows[0].Percent)
	assert.Equal(t, report.SeverityHigh, py.Rows[0].Severity)
	assert.Equal(t, report.Summary{Total: 1, High: 1}, rep.Summary)
}

func TestRunner_RunExhaustive(t *testing.T) {
	r := newRunner(t, func(c *config.Config) { c.Clustering.Mode = models.ModeExhaustive })

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	py := rep.Sections[1]
	assert.Equal(t, models.ModeExhaustive, py.Mode)
	assert.Equal(t, 3, py.Comparisons)
	require.Len(t, py.Rows, 1)
}

func TestRunner_RunEmptyTree(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()
	r, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Sections)
}

func TestRunner_RunErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Root = filepath.Join(t.TempDir(), "missing")
	r, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	r = newRunner(t, func(c *config.Config) { c.Clustering.MaxArtifactRunes = 5 })
	_, err = r.Run(context.Background())
	assert.ErrorIs(t, err, clustering.ErrResourceExhausted)
}

func TestRunner_RunOnceStdout(t *testing.T) {
	r := newRunner(t, nil)

	var buf bytes.Buffer
	require.NoError(t, r.RunOnce(context.Background(), &buf))
	assert.Contains(t, buf.String(), ReportTitle)
	assert.Contains(t, buf.String(), "Review Required")
}

func TestRunner_RunOnceJSONFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	r := newRunner(t, func(c *config.Config) {
		c.Format = config.FormatJSON
		c.Output = out
	})

	var stdout bytes.Buffer
	require.NoError(t, r.RunOnce(context.Background(), &stdout))
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var rep report.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, ReportTitle, rep.Title)
	assert.Equal(t, 1, rep.Summary.High)
}

func TestRunner_Watch(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	r := newRunner(t, func(c *config.Config) {
		c.Format = config.FormatJSON
		c.Output = out
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, &bytes.Buffer{}, watcher.WithDebounce(20*time.Millisecond)) }()

	summary := func() report.Summary {
		data, err := os.ReadFile(out)
		if err != nil {
			return report.Summary{}
		}
		var rep report.Report
		if json.Unmarshal(data, &rep) != nil {
			return report.Summary{}
		}
		return rep.Summary
	}

	require.Eventually(t, func() bool { return summary().High == 1 }, 3*time.Second, 20*time.Millisecond)

	writeFile(t, filepath.Join(r.cfg.Root, "lab1-dave", "main.py"), "print(1)\n")
	require.Eventually(t, func() bool { return summary().High == 2 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}
}
