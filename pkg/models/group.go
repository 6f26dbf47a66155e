// Package models contains domain models for simgroup.
package models

import "github.com/google/uuid"

// Mode selects the clustering policy.
type Mode string

const (
	// ModeRepresentative assigns each artifact to the first group whose
	// representative is similar enough. Order dependent.
	ModeRepresentative Mode = "representative-greedy"
	// ModeExhaustive scores every pair and merges above-threshold pairs transitively.
	ModeExhaustive Mode = "exhaustive-pairwise"
)

// AllModes is the list of all valid clustering modes.
var AllModes = []Mode{ModeRepresentative, ModeExhaustive}

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	for _, known := range AllModes {
		if m == known {
			return true
		}
	}
	return false
}

// GroupID identifies a group. Derived from the representative ID so that
// identical inputs always produce identical IDs.
type GroupID = uuid.UUID

var groupNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/thebtf/simgroup/group"))

// NewGroupID returns the deterministic group ID for a representative.
func NewGroupID(representative ArtifactID) GroupID {
	return uuid.NewSHA1(groupNamespace, []byte(representative))
}

// Pair is a similarity score between two artifacts, in the order it was computed.
type Pair struct {
	A     ArtifactID `json:"a"`
	B     ArtifactID `json:"b"`
	Score float64    `json:"score"`
}

// Member is a non-representative group member with its score against the representative.
type Member struct {
	Artifact Artifact `json:"artifact"`
	Score    float64  `json:"score"`
}

// Group is a set of artifacts sharing one representative.
type Group struct {
	ID             GroupID  `json:"id"`
	Representative Artifact `json:"representative"`
	Members        []Member `json:"members"`
	// Pairs holds the above-threshold pairs that merged this group (exhaustive mode only).
	Pairs []Pair `json:"pairs,omitempty"`
}

// NewGroup opens a group with rep as its representative.
func NewGroup(rep Artifact) *Group {
	return &Group{
		ID:             NewGroupID(rep.ID),
		Representative: rep,
		Members:        []Member{},
	}
}

// Add appends a member.
func (g *Group) Add(a Artifact, score float64) {
	g.Members = append(g.Members, Member{Artifact: a, Score: score})
}

// Size returns the number of artifacts in the group, representative included.
func (g *Group) Size() int {
	return len(g.Members) + 1
}

// IsSingleton reports whether the group has no peer for its representative.
func (g *Group) IsSingleton() bool {
	return len(g.Members) == 0
}

// Contains reports whether the artifact belongs to the group.
func (g *Group) Contains(id ArtifactID) bool {
	if g.Representative.ID == id {
		return true
	}
	for _, m := range g.Members {
		if m.Artifact.ID == id {
			return true
		}
	}
	return false
}

// IDs returns the artifact IDs in the group, representative first.
func (g *Group) IDs() []ArtifactID {
	ids := make([]ArtifactID, 0, g.Size())
	ids = append(ids, g.Representative.ID)
	for _, m := range g.Members {
		ids = append(ids, m.Artifact.ID)
	}
	return ids
}

// TopScore returns the highest member or pair score in the group, 0 for singletons.
func (g *Group) TopScore() float64 {
	best := 0.0
	for _, m := range g.Members {
		if m.Score > best {
			best = m.Score
		}
	}
	for _, p := range g.Pairs {
		if p.Score > best {
			best = p.Score
		}
	}
	return best
}
