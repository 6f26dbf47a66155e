// Package report turns clustering results into reviewable similarity reports.
package report

import (
	"time"

	"github.com/thebtf/simgroup/pkg/models"
)

// Severity classifies a similarity score for review.
type Severity string

const (
	// SeverityHigh is a score above 80%.
	SeverityHigh Severity = "high"
	// SeverityMedium is a score above 50% and up to 80%.
	SeverityMedium Severity = "medium"
	// SeverityLow is a score of 50% or less.
	SeverityLow Severity = "low"
)

// Classify maps a score in [0,1] to its severity.
func Classify(score float64) Severity {
	pct := score * 100
	switch {
	case pct > 80:
		return SeverityHigh
	case pct > 50:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Status returns the review status shown for a severity.
func (s Severity) Status() string {
	switch s {
	case SeverityHigh:
		return "Review Required"
	case SeverityMedium:
		return "Monitor"
	default:
		return "Normal"
	}
}

// Action returns the recommended action for a severity.
func (s Severity) Action() string {
	switch s {
	case SeverityHigh:
		return "Investigate for plagiarism"
	case SeverityMedium:
		return "Check for common sources"
	default:
		return "No action needed"
	}
}

// Row is one compared pair.
type Row struct {
	First    string   `json:"first"`
	Second   string   `json:"second"`
	Score    float64  `json:"score"`
	Percent  string   `json:"percent"`
	Severity Severity `json:"severity"`
	Status   string   `json:"status"`
	Action   string   `json:"action"`
}

// GroupView is a reported group.
type GroupView struct {
	ID             string               `json:"id"`
	Representative string               `json:"representative"`
	Members        []models.MemberLabel `json:"members"`
}

// Section holds the result of one clustering pass, e.g. one file extension.
type Section struct {
	Name          string      `json:"name"`
	Mode          models.Mode `json:"mode"`
	Threshold     float64     `json:"threshold"`
	MetricVersion string      `json:"metric_version"`
	Digest        string      `json:"digest"`
	Artifacts     int         `json:"artifacts"`
	Comparisons   int         `json:"comparisons"`
	Groups        []GroupView `json:"groups"`
	Rows          []Row       `json:"rows"`
}

// Summary counts rows per severity across all sections.
type Summary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Report is a complete similarity report.
type Report struct {
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
	Summary     Summary   `json:"summary"`
}

// New creates an empty report stamped with generatedAt.
func New(title string, generatedAt time.Time) *Report {
	return &Report{
		Title:       title,
		GeneratedAt: generatedAt,
		Sections:    []Section{},
	}
}

// Add appends a section built from a clustering result.
//
// Rows are the representative-member scores in representative mode and every
// above-threshold pair in exhaustive mode, in result order.
func (r *Report) Add(name string, result *models.ClusterResult) {
	labels := make(map[models.ArtifactID]string)
	artifacts := 0
	for _, g := range result.Groups {
		labels[g.Representative.ID] = g.Representative.Label()
		for _, m := range g.Members {
			labels[m.Artifact.ID] = m.Artifact.Label()
		}
		artifacts += g.Size()
	}

	section := Section{
		Name:          name,
		Mode:          result.Mode,
		Threshold:     result.Threshold,
		MetricVersion: result.MetricVersion,
		Digest:        result.Digest,
		Artifacts:     artifacts,
		Comparisons:   result.Comparisons,
		Groups:        []GroupView{},
		Rows:          []Row{},
	}

	byRep := result.ByRepresentative()
	for _, g := range result.Reported() {
		section.Groups = append(section.Groups, GroupView{
			ID:             g.ID.String(),
			Representative: labels[g.Representative.ID],
			Members:        byRep[g.Representative.ID],
		})
	}

	for _, p := range result.ReportedPairs() {
		sev := Classify(p.Score)
		section.Rows = append(section.Rows, Row{
			First:    labels[p.A],
			Second:   labels[p.B],
			Score:    p.Score,
			Percent:  models.PercentLabel(p.Score),
			Severity: sev,
			Status:   sev.Status(),
			Action:   sev.Action(),
		})
		r.count(sev)
	}

	r.Sections = append(r.Sections, section)
}

func (r *Report) count(sev Severity) {
	r.Summary.Total++
	switch sev {
	case SeverityHigh:
		r.Summary.High++
	case SeverityMedium:
		r.Summary.Medium++
	default:
		r.Summary.Low++
	}
}
