// Package reports handles Kafka event processing for bug report lifecycle events.
package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/bughive/triage-backend/model"
)

// TriageRunner defines the interface for running the triage pipeline on a report.
type TriageRunner interface {
	Run(ctx context.Context, reportKey string) (model.TriageSummary, error)
}

// HandleReportSubmitted processes report.submitted events from Kafka.
func HandleReportSubmitted(ctx context.Context, msg []byte, runner TriageRunner) error {
	var event ReportSubmittedEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("failed to unmarshal ReportSubmittedEvent: %w", err)
	}

	if event.ReportKey == "" {
		return fmt.Errorf("invalid event: missing report_key")
	}

	log.Printf("Processing report %s (%q)", event.ReportKey, event.Title)

	summary, err := runner.Run(ctx, event.ReportKey)
	if err != nil {
		return fmt.Errorf("triage failed for report %s: %w", event.ReportKey, err)
	}

	if summary.DuplicateOf != "" {
		log.Printf("Report %s marked duplicate of %s", event.ReportKey, summary.DuplicateOf)
	} else if summary.Assigned {
		log.Printf("Report %s (%s/%s) assigned to %s", event.ReportKey, summary.BugType, summary.Severity, summary.AssignedTo)
	} else {
		log.Printf("Report %s triaged but unassigned: %s", event.ReportKey, summary.FailureReason)
	}
	return nil
}
