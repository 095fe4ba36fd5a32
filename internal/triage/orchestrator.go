// Package triage sequences the pipeline that takes a freshly submitted
// report to a classified, deduplicated, assigned state:
//
//	FETCH -> CLASSIFY -> EMBED -> DEDUP_CHECK -> PERSIST_ANALYSIS
//	      -> (ASSIGN -> NOTIFY) | (MARK_DUPLICATE)
//
// Each step is idempotent so the external job layer can invoke a run more
// than once; steps whose output is already persisted are not re-executed,
// which keeps retries from re-billing the hosted model APIs.
package triage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bughive/triage-backend/internal/assign"
	"github.com/bughive/triage-backend/internal/config"
	"github.com/bughive/triage-backend/model"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	// GetReport loads a report; a missing report is an error and the one
	// unrecoverable failure in the pipeline.
	GetReport(ctx context.Context, key string) (*model.Report, error)
	// SaveAnalysis writes bug type, severity and the analysis payload in a
	// single update. The embedding is written only when non-nil; when
	// duplicateOf is non-empty the status flips to DUPLICATE in the same
	// write.
	SaveAnalysis(ctx context.Context, key string, analysis *model.ReportAnalysis, embedding []float32, duplicateOf string) error
	AddComment(ctx context.Context, comment *model.ReportComment) error
	// HasUser reports whether a user row exists for the username.
	HasUser(ctx context.Context, username string) (bool, error)
}

// Classifier produces a structured judgement and never fails.
type Classifier interface {
	Classify(ctx context.Context, title, description, affectedSystem string) model.ClassificationResult
}

// Embedder produces an embedding, or reports it unavailable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, bool)
}

// DuplicateFinder scans stored embeddings for near matches.
type DuplicateFinder interface {
	FindSimilar(ctx context.Context, query []float32, threshold float64, excludeKey string) ([]model.SimilarityMatch, error)
}

// Assigner routes a classified report to an engineer.
type Assigner interface {
	Assign(ctx context.Context, reportKey, bugType, severity, assignedBy string) (assign.Result, error)
}

// Publisher emits the engineer.assigned notification event. Delivery is
// best-effort and never blocks triage.
type Publisher interface {
	PublishEngineerAssigned(ctx context.Context, reportKey, engineer, bugType, severity, title string) error
}

// Orchestrator runs the triage pipeline for one report at a time. Instances
// are safe for concurrent use; all cross-step state lives on the report row.
type Orchestrator struct {
	cfg        *config.Config
	store      Store
	classifier Classifier
	embedder   Embedder
	dedup      DuplicateFinder
	assigner   Assigner
	publisher  Publisher
	log        *zap.SugaredLogger
}

// NewOrchestrator wires the pipeline components.
func NewOrchestrator(cfg *config.Config, store Store, classifier Classifier, embedder Embedder,
	dedup DuplicateFinder, assigner Assigner, publisher Publisher, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		classifier: classifier,
		embedder:   embedder,
		dedup:      dedup,
		assigner:   assigner,
		publisher:  publisher,
		log:        log,
	}
}

// Run executes the full pipeline for the report. Fatal errors are a missing
// report and failed writes (analysis, assignment); every other failure
// degrades to a fallback or a flagged summary field.
func (o *Orchestrator) Run(ctx context.Context, reportKey string) (model.TriageSummary, error) {
	summary := model.TriageSummary{ReportKey: reportKey}

	// FETCH
	report, err := o.store.GetReport(ctx, reportKey)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch report %s: %w", reportKey, err)
	}

	// CLASSIFY - reuse a persisted judgement on re-runs.
	var result model.ClassificationResult
	if report.Analysis != nil {
		result = report.Analysis.ClassificationResult
	} else {
		result = o.classifier.Classify(ctx, report.Title, report.Description, report.AffectedSystem)
	}
	summary.BugType = result.BugType
	summary.Severity = result.Severity
	summary.Confidence = result.Confidence

	// EMBED - reuse a persisted vector on re-runs; unavailable is not fatal.
	embedding := report.Embedding
	if len(embedding) == 0 {
		var ok bool
		embedding, ok = o.embedder.Embed(ctx, report.Title+"\n\n"+report.Description)
		if !ok {
			o.log.Warnw("embedding unavailable, duplicate check will be skipped", "report", reportKey)
			embedding = nil
		}
	}

	// DEDUP_CHECK - an unavailable embedding short-circuits inside the
	// detector; a failed scan degrades to "no duplicates".
	matches, err := o.dedup.FindSimilar(ctx, embedding, o.cfg.SimilarityThreshold, reportKey)
	if err != nil {
		o.log.Warnw("duplicate scan failed, proceeding without duplicates", "report", reportKey, "error", err)
		matches = nil
	}
	summary.DuplicatesFound = len(matches)

	duplicateOf := ""
	if len(matches) > 0 {
		duplicateOf = matches[0].ReportKey
		summary.DuplicateOf = duplicateOf
	}

	// PERSIST_ANALYSIS - one atomic write for classification, embedding and
	// the duplicate verdict.
	analysis := &model.ReportAnalysis{
		ClassificationResult: result,
		AnalyzedAt:           time.Now(),
	}
	if err := o.store.SaveAnalysis(ctx, reportKey, analysis, embedding, duplicateOf); err != nil {
		return summary, fmt.Errorf("failed to persist analysis for report %s: %w", reportKey, err)
	}

	if len(matches) > 0 {
		o.markDuplicate(ctx, report, matches[0])
		summary.Success = true
		return summary, nil
	}

	// ASSIGN - reuse a persisted routing on re-runs. A redelivered event for
	// an already-assigned report must not stack a second ACTIVE assignment
	// record or re-emit the notification.
	if report.AssignedTo != "" {
		summary.Assigned = true
		summary.AssignedTo = report.AssignedTo
		summary.Success = true
		return summary, nil
	}

	// A no-engineer outcome leaves the report NEW and is reported, not
	// retried; an assignment write failure is fatal so the run can be retried.
	assignResult, err := o.assigner.Assign(ctx, reportKey, result.BugType, result.Severity, o.cfg.SystemActor)
	if err != nil {
		return summary, fmt.Errorf("failed to assign report %s: %w", reportKey, err)
	}
	if !assignResult.Assigned {
		summary.Success = true
		summary.FailureReason = assignResult.Reason
		return summary, nil
	}

	summary.Assigned = true
	summary.AssignedTo = assignResult.Engineer
	summary.AssignedTeam = assignResult.Team

	// NOTIFY - best-effort, logged and swallowed on failure.
	if err := o.publisher.PublishEngineerAssigned(ctx, reportKey, assignResult.Engineer,
		result.BugType, result.Severity, report.Title); err != nil {
		o.log.Warnw("failed to publish engineer.assigned event", "report", reportKey, "error", err)
	}

	summary.Success = true
	return summary, nil
}

// markDuplicate appends the system-authored duplicate comment. When the
// system actor is not provisioned, or the report already carries a duplicate
// marker from an earlier run, the write is skipped and logged.
func (o *Orchestrator) markDuplicate(ctx context.Context, report *model.Report, top model.SimilarityMatch) {
	if report.DuplicateOf != "" {
		// An earlier run already marked this report; don't stack comments.
		return
	}

	exists, err := o.store.HasUser(ctx, o.cfg.SystemActor)
	if err != nil || !exists {
		o.log.Warnw("system actor missing, skipping duplicate comment",
			"report", report.Key, "actor", o.cfg.SystemActor, "error", err)
		return
	}

	body := fmt.Sprintf("Automatically marked as duplicate of report %s (%.0f%% similar: %q)",
		top.ReportKey, top.Similarity*100, top.Title)
	comment := model.NewSystemComment(report.Key, o.cfg.SystemActor, body)
	if err := o.store.AddComment(ctx, comment); err != nil {
		o.log.Warnw("failed to write duplicate comment", "report", report.Key, "error", err)
	}
}
