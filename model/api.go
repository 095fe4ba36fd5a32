// Package model - API types for requests/responses.
package model

// SubmitReportRequest is the public intake body.
type SubmitReportRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	ReporterName   string `json:"reporter_name,omitempty"`
	ReporterEmail  string `json:"reporter_email,omitempty"`
	AffectedSystem string `json:"affected_system,omitempty"`
}

// SubmitReportResponse acknowledges a submission before triage runs.
type SubmitReportResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ReportKey string `json:"report_key,omitempty"`
}

// SimilarityMatch is one candidate returned by the duplicate detector,
// relative to a single query embedding.
type SimilarityMatch struct {
	ReportKey  string  `json:"report_key"`
	Title      string  `json:"title"`
	Status     string  `json:"status"`
	Similarity float64 `json:"similarity"`
}

// TriageSummary is the outcome of one orchestrator run.
type TriageSummary struct {
	ReportKey       string  `json:"report_key"`
	Success         bool    `json:"success"`
	BugType         string  `json:"bug_type"`
	Severity        string  `json:"severity"`
	Confidence      float64 `json:"confidence"`
	DuplicatesFound int     `json:"duplicates_found"`
	DuplicateOf     string  `json:"duplicate_of,omitempty"`
	Assigned        bool    `json:"assigned"`
	AssignedTo      string  `json:"assigned_to,omitempty"`
	AssignedTeam    string  `json:"assigned_team,omitempty"`
	FailureReason   string  `json:"failure_reason,omitempty"`
}
