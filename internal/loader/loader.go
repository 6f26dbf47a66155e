package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thebtf/simgroup/pkg/models"
)

// ErrRead is returned when an artifact cannot be read.
var ErrRead = errors.New("read artifact")

// Loader returns the text content of an artifact.
type Loader interface {
	Load(ctx context.Context, ref Ref) (string, error)
}

// FSLoader reads artifacts from the local file system.
type FSLoader struct {
	lenient bool
	logger  zerolog.Logger
}

// NewFSLoader creates a file system loader. In lenient mode an unreadable file
// yields empty content and a warning instead of an error.
func NewFSLoader(lenient bool, logger zerolog.Logger) *FSLoader {
	return &FSLoader{
		lenient: lenient,
		logger:  logger.With().Str("component", "loader").Logger(),
	}
}

// Load reads the file at ref.Path. Invalid UTF-8 sequences are dropped.
func (l *FSLoader) Load(ctx context.Context, ref Ref) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		if l.lenient {
			l.logger.Warn().Err(err).Str("path", ref.Path).Msg("Unreadable artifact, using empty content")
			return "", nil
		}
		return "", fmt.Errorf("%w %s: %w", ErrRead, ref.Path, err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// LoadAll loads every ref in order. The first failure aborts.
func LoadAll(ctx context.Context, l Loader, refs []Ref) ([]models.Artifact, error) {
	artifacts := make([]models.Artifact, 0, len(refs))
	for _, ref := range refs {
		content, err := l.Load(ctx, ref)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, models.Artifact{
			ID:      models.ArtifactID(ref.Path),
			Content: content,
			Origin:  ref.Origin,
		})
	}
	return artifacts, nil
}

// Bucket is a set of artifacts sharing one extension.
type Bucket struct {
	Ext       string
	Artifacts []models.Artifact
}

// Partition splits artifacts by the extension of their ref, keeping input order
// within each bucket. Buckets are sorted by extension.
func Partition(refs []Ref, artifacts []models.Artifact) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for i, a := range artifacts {
		ext := refs[i].Ext
		pos, ok := index[ext]
		if !ok {
			pos = len(buckets)
			index[ext] = pos
			buckets = append(buckets, Bucket{Ext: ext})
		}
		buckets[pos].Artifacts = append(buckets[pos].Artifacts, a)
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Ext < buckets[j].Ext
	})
	return buckets
}
