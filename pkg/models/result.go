// Package models contains domain models for simgroup.
package models

// MetricVersion names the similarity metric revision recorded in results.
const MetricVersion = "matching-blocks-ratio/v1"

// ClusterResult is the outcome of one clustering pass.
type ClusterResult struct {
	Mode          Mode    `json:"mode"`
	Threshold     float64 `json:"threshold"`
	MetricVersion string  `json:"metric_version"`
	// Digest fingerprints the ordered input so a report can be matched to its run.
	Digest string `json:"digest"`
	// Groups holds every group, singletons included, in the mode's presentation order.
	Groups []*Group `json:"groups"`
	// Pairs holds every above-threshold pair sorted by descending score (exhaustive mode only).
	Pairs       []Pair `json:"pairs,omitempty"`
	Comparisons int    `json:"comparisons"`
}

// MemberLabel is a member ID with its formatted percentage.
type MemberLabel struct {
	Percent string     `json:"percent"`
	ID      ArtifactID `json:"id"`
}

// PairLabel is a pair rendered for reports.
type PairLabel struct {
	Percent int           `json:"percent"`
	IDs     [2]ArtifactID `json:"ids"`
}

// Reported returns the groups with at least one member besides the representative.
func (r *ClusterResult) Reported() []*Group {
	out := make([]*Group, 0, len(r.Groups))
	for _, g := range r.Groups {
		if !g.IsSingleton() {
			out = append(out, g)
		}
	}
	return out
}

// Singletons returns the groups that found no similar peer.
func (r *ClusterResult) Singletons() []*Group {
	var out []*Group
	for _, g := range r.Groups {
		if g.IsSingleton() {
			out = append(out, g)
		}
	}
	return out
}

// Lookup returns the group with the given ID.
func (r *ClusterResult) Lookup(id GroupID) (*Group, bool) {
	for _, g := range r.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// GroupOf returns the group an artifact belongs to.
func (r *ClusterResult) GroupOf(id ArtifactID) (*Group, bool) {
	for _, g := range r.Groups {
		if g.Contains(id) {
			return g, true
		}
	}
	return nil, false
}

// ByRepresentative maps each reported representative to its members, in member order.
func (r *ClusterResult) ByRepresentative() map[ArtifactID][]MemberLabel {
	out := make(map[ArtifactID][]MemberLabel)
	for _, g := range r.Reported() {
		labels := make([]MemberLabel, 0, len(g.Members))
		for _, m := range g.Members {
			labels = append(labels, MemberLabel{Percent: PercentLabel(m.Score), ID: m.Artifact.ID})
		}
		out[g.Representative.ID] = labels
	}
	return out
}

// ReportedPairs returns the pairs behind the reported groups: every
// above-threshold pair in exhaustive mode, the representative-member scores
// otherwise.
func (r *ClusterResult) ReportedPairs() []Pair {
	if r.Mode == ModeExhaustive {
		return r.Pairs
	}
	var pairs []Pair
	for _, g := range r.Reported() {
		for _, m := range g.Members {
			pairs = append(pairs, Pair{A: g.Representative.ID, B: m.Artifact.ID, Score: m.Score})
		}
	}
	return pairs
}

// PairLabels flattens ReportedPairs for reporting.
func (r *ClusterResult) PairLabels() []PairLabel {
	pairs := r.ReportedPairs()
	out := make([]PairLabel, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, PairLabel{Percent: Percent(p.Score), IDs: [2]ArtifactID{p.A, p.B}})
	}
	return out
}
