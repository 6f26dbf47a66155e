// Package loader discovers and reads artifacts from a local submissions tree.
//
// The expected layout is one directory per submission under the root, named
// "<prefix>-<author>" (for example "lab7-alice"). Content is returned as found on
// disk; any normalization must happen before the scan.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Ref points at an artifact file on disk.
type Ref struct {
	Path   string
	Origin string
	Ext    string
}

// Scanner walks a submissions root and collects artifact refs.
type Scanner struct {
	extensions map[string]bool
	ignore     []*regexp.Regexp
	logger     zerolog.Logger
}

// NewScanner creates a scanner. An empty extension list accepts every file.
// ignoreDirs are regular expressions matched case-insensitively against
// directory names.
func NewScanner(extensions, ignoreDirs []string, logger zerolog.Logger) (*Scanner, error) {
	s := &Scanner{
		extensions: make(map[string]bool, len(extensions)),
		logger:     logger.With().Str("component", "scanner").Logger(),
	}
	for _, ext := range extensions {
		s.extensions[normalizeExt(ext)] = true
	}
	for _, pattern := range ignoreDirs {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("compile ignore pattern %q: %w", pattern, err)
		}
		s.ignore = append(s.ignore, re)
	}
	return s, nil
}

// OriginFromDir derives the author from a submission directory name: the part
// after the last "-", or the whole name when there is none.
func OriginFromDir(name string) string {
	if i := strings.LastIndex(name, "-"); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return name
}

// Scan returns the refs under root in lexical order. Files directly under root
// are not submissions and are skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Ref, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read submissions root: %w", err)
	}

	var refs []Ref
	for _, entry := range entries {
		if !entry.IsDir() {
			s.logger.Debug().Str("path", entry.Name()).Msg("Skipping non-directory at root")
			continue
		}
		if s.IgnoresDir(entry.Name()) {
			continue
		}

		found, err := s.scanSubmission(ctx, filepath.Join(root, entry.Name()), OriginFromDir(entry.Name()))
		if err != nil {
			return nil, err
		}
		refs = append(refs, found...)
	}

	s.logger.Debug().Str("root", root).Int("files", len(refs)).Msg("Scan complete")
	return refs, nil
}

func (s *Scanner) scanSubmission(ctx context.Context, dir, origin string) ([]Ref, error) {
	var refs []Ref
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.logger.Warn().Err(walkErr).Str("path", path).Msg("walk submission")
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			if path != dir && s.IgnoresDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		ext := normalizeExt(filepath.Ext(d.Name()))
		if len(s.extensions) > 0 && !s.extensions[ext] {
			return nil
		}

		refs = append(refs, Ref{Path: path, Origin: origin, Ext: ext})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return refs, nil
}

// IgnoresDir reports whether a directory name matches an ignore pattern.
func (s *Scanner) IgnoresDir(name string) bool {
	for _, re := range s.ignore {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
