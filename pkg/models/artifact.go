// Package models contains domain models for simgroup.
package models

import "unicode/utf8"

// ArtifactID identifies an artifact within a run (typically a file path).
type ArtifactID string

// Artifact is a unit of text submitted for comparison.
// Content is expected to be pre-normalized by the caller (e.g. an external formatter).
type Artifact struct {
	ID      ArtifactID `json:"id"`
	Content string     `json:"-"`
	// Origin names the submitter or author. Used only for report labels.
	Origin string `json:"origin,omitempty"`
}

// NewArtifact creates an artifact with no origin.
func NewArtifact(id, content string) Artifact {
	return Artifact{ID: ArtifactID(id), Content: content}
}

// Len returns the content length in runes, the unit the similarity metric compares.
func (a Artifact) Len() int {
	return utf8.RuneCountInString(a.Content)
}

// Label returns the identifier decorated with its origin, if any.
func (a Artifact) Label() string {
	if a.Origin == "" {
		return string(a.ID)
	}
	return string(a.ID) + " (" + a.Origin + ")"
}
