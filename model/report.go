// Package model provides data models for the bug-bounty triage system.
package model

import (
	"time"
)

// Report statuses. A report is created NEW, moved to IN_PROGRESS by the
// assignment engine, and to DUPLICATE by the triage pipeline. RESOLVED and
// REJECTED are set by engineers through the REST API.
const (
	StatusNew        = "NEW"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
	StatusDuplicate  = "DUPLICATE"
	StatusRejected   = "REJECTED"
)

// Severity ratings, lowest to highest.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// ValidStatuses holds all legal report statuses.
var ValidStatuses = map[string]bool{
	StatusNew:        true,
	StatusInProgress: true,
	StatusResolved:   true,
	StatusDuplicate:  true,
	StatusRejected:   true,
}

// ValidSeverities holds all legal severity ratings.
var ValidSeverities = map[string]bool{
	SeverityLow:      true,
	SeverityMedium:   true,
	SeverityHigh:     true,
	SeverityCritical: true,
}

// Report represents a submitted vulnerability report stored in the database.
// The triage fields (BugType, Severity, Analysis, Embedding, DuplicateOf,
// AssignedTo) are empty at creation and written by the triage pipeline.
type Report struct {
	Key            string `json:"_key,omitempty"`
	ObjType        string `json:"objtype,omitempty"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ReporterName   string `json:"reporter_name,omitempty"`
	ReporterEmail  string `json:"reporter_email,omitempty"`
	AffectedSystem string `json:"affected_system,omitempty"`

	BugType     string          `json:"bug_type,omitempty"`
	Severity    string          `json:"severity,omitempty"`
	Status      string          `json:"status"`
	Analysis    *ReportAnalysis `json:"analysis,omitempty"`
	Embedding   []float32       `json:"embedding,omitempty"`
	DuplicateOf string          `json:"duplicate_of,omitempty"`
	AssignedTo  string          `json:"assigned_to,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReportAnalysis is the persisted triage judgement for a report.
type ReportAnalysis struct {
	ClassificationResult
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// ClassificationResult is the structured judgement produced by the classifier.
// It is always fully populated: when the hosted model is unreachable, the
// keyword fallback substitutes a complete low-confidence result.
type ClassificationResult struct {
	BugType          string   `json:"bug_type"`
	Severity         string   `json:"severity"`
	AffectedSystem   string   `json:"affected_system"`
	Confidence       float64  `json:"confidence"`
	Summary          string   `json:"summary"`
	TechnicalDetails []string `json:"technical_details"`
	SuggestedTeam    string   `json:"suggested_team,omitempty"`
}

// NewReport creates a report in its initial state.
func NewReport(title, description string) *Report {
	now := time.Now()
	return &Report{
		ObjType:     "Report",
		Title:       title,
		Description: description,
		Status:      StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SeverityRank orders severities for sorting and comparisons.
// Unknown values rank below LOW.
func SeverityRank(severity string) int {
	switch severity {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}
