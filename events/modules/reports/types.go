// Package reports defines types for Kafka event processing of bug report lifecycle events.
package reports

import (
	"time"
)

// ReportSubmittedEvent is published when a new bug report lands through the
// intake API and needs triage.
type ReportSubmittedEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	ReportKey string `json:"report_key"`
	Title     string `json:"title"`
	Reporter  string `json:"reporter"`
}

// EngineerAssignedEvent is published after triage routes a report to an
// engineer, for downstream notification consumers.
type EngineerAssignedEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	ReportKey string `json:"report_key"`
	Engineer  string `json:"engineer"`
	BugType   string `json:"bug_type"`
	Severity  string `json:"severity"`
	Title     string `json:"title"`
}
