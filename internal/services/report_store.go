// Package services provides ArangoDB-backed service implementations for the
// triage backend.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"

	"github.com/bughive/triage-backend/database"
	"github.com/bughive/triage-backend/internal/ai"
	"github.com/bughive/triage-backend/model"
)

// ReportStore persists reports, comments and assignment records. It backs the
// triage pipeline, the assignment engine's write side and the REST handlers.
type ReportStore struct {
	DB database.DBConnection
}

// NewReportStore wraps a database connection.
func NewReportStore(db database.DBConnection) *ReportStore {
	return &ReportStore{DB: db}
}

// CreateReport inserts a new report document and returns its key.
func (s *ReportStore) CreateReport(ctx context.Context, report *model.Report) (string, error) {
	meta, err := s.DB.Collections["report"].CreateDocument(ctx, report)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	report.Key = meta.Key
	return meta.Key, nil
}

// GetReport loads a report by key. A missing report is an error.
func (s *ReportStore) GetReport(ctx context.Context, key string) (*model.Report, error) {
	query := `
		FOR r IN report
			FILTER r._key == @key
			LIMIT 1
			RETURN r
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"key": key},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return nil, fmt.Errorf("report %s not found", key)
	}

	var report model.Report
	if _, err := cursor.ReadDocument(ctx, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ReportFilter narrows ListReports. Zero values mean "no filter".
type ReportFilter struct {
	Status     string
	Severity   string
	BugType    string
	AssignedTo string
	Limit      int
	Offset     int
}

// ListReports returns reports newest first, optionally filtered.
func (s *ReportStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error) {
	query := `
		FOR r IN report
			FILTER @status == "" || r.status == @status
			FILTER @severity == "" || r.severity == @severity
			FILTER @bugType == "" || r.bug_type == @bugType
			FILTER @assignedTo == "" || r.assigned_to == @assignedTo
			SORT r.created_at DESC
			LIMIT @offset, @limit
			RETURN UNSET(r, "embedding")
	`
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	bindVars := map[string]interface{}{
		"status":     filter.Status,
		"severity":   filter.Severity,
		"bugType":    filter.BugType,
		"assignedTo": filter.AssignedTo,
		"limit":      limit,
		"offset":     filter.Offset,
	}

	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	reports := []model.Report{}
	for cursor.HasMore() {
		var report model.Report
		if _, err := cursor.ReadDocument(ctx, &report); err != nil {
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// SaveAnalysis writes the classification outcome, the embedding and the
// duplicate verdict as one update so a crashed run never leaves a report
// half-analyzed. The embedding is only written when present; duplicateOf
// flips the status to DUPLICATE in the same write.
func (s *ReportStore) SaveAnalysis(ctx context.Context, key string, analysis *model.ReportAnalysis, embedding []float32, duplicateOf string) error {
	update := map[string]interface{}{
		"analysis":   analysis,
		"bug_type":   analysis.BugType,
		"severity":   analysis.Severity,
		"updated_at": time.Now(),
	}
	if len(embedding) > 0 {
		update["embedding"] = embedding
	}
	if duplicateOf != "" {
		update["status"] = model.StatusDuplicate
		update["duplicate_of"] = duplicateOf
	}

	_, err := s.DB.Collections["report"].UpdateDocument(ctx, key, update)
	if err != nil {
		return fmt.Errorf("failed to save analysis for report %s: %w", key, err)
	}
	return nil
}

// SetStatus updates a report's triage status.
func (s *ReportStore) SetStatus(ctx context.Context, key, status string) error {
	if !model.ValidStatuses[status] {
		return fmt.Errorf("invalid status %q", status)
	}
	_, err := s.DB.Collections["report"].UpdateDocument(ctx, key, map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	return err
}

// SetReportAssignee sets the assignee and moves the report to IN_PROGRESS.
func (s *ReportStore) SetReportAssignee(ctx context.Context, reportKey, engineer string) error {
	_, err := s.DB.Collections["report"].UpdateDocument(ctx, reportKey, map[string]interface{}{
		"assigned_to": engineer,
		"status":      model.StatusInProgress,
		"updated_at":  time.Now(),
	})
	return err
}

// AddComment appends a comment to a report's thread.
func (s *ReportStore) AddComment(ctx context.Context, comment *model.ReportComment) error {
	meta, err := s.DB.Collections["report_comment"].CreateDocument(ctx, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	comment.Key = meta.Key
	return nil
}

// ListComments returns a report's comment thread, oldest first.
func (s *ReportStore) ListComments(ctx context.Context, reportKey string) ([]model.ReportComment, error) {
	query := `
		FOR c IN report_comment
			FILTER c.report_key == @reportKey
			SORT c.created_at ASC
			RETURN c
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"reportKey": reportKey},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	comments := []model.ReportComment{}
	for cursor.HasMore() {
		var comment model.ReportComment
		if _, err := cursor.ReadDocument(ctx, &comment); err != nil {
			continue
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// HasUser reports whether a user document exists for the username.
func (s *ReportStore) HasUser(ctx context.Context, username string) (bool, error) {
	key, err := database.FindUserByUsername(ctx, s.DB.Database, username)
	if err != nil {
		return false, err
	}
	return key != "", nil
}

// EmbeddedReports streams the stored embeddings of every report except the
// excluded one, for the duplicate scan. Reports without an embedding are
// filtered out server-side.
func (s *ReportStore) EmbeddedReports(ctx context.Context, excludeKey string) ([]ai.StoredEmbedding, error) {
	query := `
		FOR r IN report
			FILTER r._key != @excludeKey
			FILTER r.embedding != null AND LENGTH(r.embedding) > 0
			RETURN { report_key: r._key, title: r.title, status: r.status, vector: r.embedding }
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"excludeKey": excludeKey},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	stored := []ai.StoredEmbedding{}
	for cursor.HasMore() {
		var emb ai.StoredEmbedding
		if _, err := cursor.ReadDocument(ctx, &emb); err != nil {
			continue
		}
		stored = append(stored, emb)
	}
	return stored, nil
}

// CreateAssignment appends an assignment history record.
func (s *ReportStore) CreateAssignment(ctx context.Context, assignment *model.Assignment) error {
	meta, err := s.DB.Collections["assignment"].CreateDocument(ctx, assignment)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	assignment.Key = meta.Key
	return nil
}

// RetireActiveAssignments marks the report's ACTIVE assignments REASSIGNED.
// History rows are never deleted.
func (s *ReportStore) RetireActiveAssignments(ctx context.Context, reportKey string) error {
	query := `
		FOR a IN assignment
			FILTER a.report_key == @reportKey AND a.status == @active
			UPDATE a WITH { status: @reassigned, updated_at: @now } IN assignment
	`
	bindVars := map[string]interface{}{
		"reportKey":  reportKey,
		"active":     model.AssignmentActive,
		"reassigned": model.AssignmentReassigned,
		"now":        time.Now(),
	}
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return err
	}
	return cursor.Close()
}

// ListAssignments returns a report's assignment history, newest first.
func (s *ReportStore) ListAssignments(ctx context.Context, reportKey string) ([]model.Assignment, error) {
	query := `
		FOR a IN assignment
			FILTER a.report_key == @reportKey
			SORT a.created_at DESC
			RETURN a
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"reportKey": reportKey},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	assignments := []model.Assignment{}
	for cursor.HasMore() {
		var assignment model.Assignment
		if _, err := cursor.ReadDocument(ctx, &assignment); err != nil {
			continue
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}
