// Package reports provides the REST handlers for bug report intake and
// management.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bughive/triage-backend/internal/assign"
	"github.com/bughive/triage-backend/internal/services"
	"github.com/bughive/triage-backend/model"
)

// IntakePublisher emits the report.submitted event that drives async triage.
type IntakePublisher interface {
	PublishReportSubmitted(ctx context.Context, report *model.Report) error
}

// TriageRunner runs the triage pipeline directly, used as a fallback when
// the event bus is unavailable so a submitted report is never stranded.
type TriageRunner interface {
	Run(ctx context.Context, reportKey string) (model.TriageSummary, error)
}

// SubmitReport accepts a new bug report, stores it NEW and hands it to the
// triage pipeline. The reporter gets an immediate ack; triage is async.
func SubmitReport(store *services.ReportStore, publisher IntakePublisher, runner TriageRunner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.SubmitReportRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(model.SubmitReportResponse{
				Success: false,
				Message: "Invalid request body",
			})
		}

		if req.Title == "" || req.Description == "" {
			return c.Status(fiber.StatusBadRequest).JSON(model.SubmitReportResponse{
				Success: false,
				Message: "Title and description are required",
			})
		}

		report := model.NewReport(req.Title, req.Description)
		report.ReporterName = req.ReporterName
		report.ReporterEmail = req.ReporterEmail
		report.AffectedSystem = req.AffectedSystem

		ctx := c.Context()
		key, err := store.CreateReport(ctx, report)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(model.SubmitReportResponse{
				Success: false,
				Message: "Failed to save report: " + err.Error(),
			})
		}

		if err := publisher.PublishReportSubmitted(ctx, report); err != nil {
			// The bus is down; run triage inline so the report still moves.
			log.Printf("publish failed for report %s, triaging directly: %v", key, err)
			go func() {
				if _, runErr := runner.Run(context.Background(), key); runErr != nil {
					log.Printf("direct triage failed for report %s: %v", key, runErr)
				}
			}()
		}

		return c.Status(fiber.StatusAccepted).JSON(model.SubmitReportResponse{
			Success:   true,
			Message:   "Report received and queued for triage",
			ReportKey: key,
		})
	}
}

// ListReports returns reports newest first with optional status, severity,
// bug_type and assigned_to filters.
func ListReports(store *services.ReportStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "100"))
		offset, _ := strconv.Atoi(c.Query("offset", "0"))

		filter := services.ReportFilter{
			Status:     c.Query("status"),
			Severity:   c.Query("severity"),
			BugType:    c.Query("bug_type"),
			AssignedTo: c.Query("assigned_to"),
			Limit:      limit,
			Offset:     offset,
		}

		if filter.Status != "" && !model.ValidStatuses[filter.Status] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
		}
		if filter.Severity != "" && !model.ValidSeverities[filter.Severity] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid severity filter"})
		}

		reports, err := store.ListReports(c.Context(), filter)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list reports"})
		}

		return c.JSON(fiber.Map{
			"reports": reports,
			"total":   len(reports),
		})
	}
}

// GetReport returns one report with its comment thread and assignment history.
func GetReport(store *services.ReportStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.Context()
		key := c.Params("key")

		report, err := store.GetReport(ctx, key)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
		}
		report.Embedding = nil // internal detail, not part of the API surface

		comments, err := store.ListComments(ctx, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load comments"})
		}

		assignments, err := store.ListAssignments(ctx, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load assignments"})
		}

		return c.JSON(fiber.Map{
			"report":      report,
			"comments":    comments,
			"assignments": assignments,
		})
	}
}

// UpdateStatus moves a report through the triage lifecycle.
func UpdateStatus(store *services.ReportStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if !model.ValidStatuses[req.Status] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}

		ctx := c.Context()
		key := c.Params("key")

		if _, err := store.GetReport(ctx, key); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
		}

		if err := store.SetStatus(ctx, key, req.Status); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update status"})
		}

		return c.JSON(fiber.Map{"message": "Status updated", "status": req.Status})
	}
}

// AssignReport re-runs the automatic assignment for a report.
func AssignReport(store *services.ReportStore, engine *assign.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, _ := c.Locals("username").(string)

		ctx := c.Context()
		key := c.Params("key")

		report, err := store.GetReport(ctx, key)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
		}
		if report.Status == model.StatusDuplicate {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Duplicates are not assigned"})
		}
		if report.BugType == "" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Report has not been classified yet"})
		}
		if report.AssignedTo != "" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Report is already assigned; use reassign"})
		}

		result, err := engine.Assign(ctx, key, report.BugType, report.Severity, actor)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(result)
	}
}

// ReassignReport hands a report to a named engineer and keeps the history.
func ReassignReport(engine *assign.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Engineer string `json:"engineer"`
			Reason   string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Engineer == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Engineer is required"})
		}

		actor, _ := c.Locals("username").(string)

		result, err := engine.Reassign(c.Context(), c.Params("key"), req.Engineer, actor, req.Reason)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(result)
	}
}

// AddComment appends a comment to a report's thread as the logged-in user.
func AddComment(store *services.ReportStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Body string `json:"body"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Body == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Comment body is required"})
		}

		author, _ := c.Locals("username").(string)

		ctx := c.Context()
		key := c.Params("key")

		if _, err := store.GetReport(ctx, key); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
		}

		comment := model.NewReportComment(key, author, req.Body)
		if err := store.AddComment(ctx, comment); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add comment"})
		}

		return c.Status(fiber.StatusCreated).JSON(comment)
	}
}

// ExportCSV streams the full report list as CSV for offline analysis.
func ExportCSV(store *services.ReportStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reports, err := store.ListReports(c.Context(), services.ReportFilter{Limit: 500})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list reports"})
		}

		var buf bytes.Buffer
		w := csv.NewWriter(&buf)

		header := []string{"key", "title", "bug_type", "severity", "status", "assigned_to", "duplicate_of", "reporter", "created_at"}
		if err := w.Write(header); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV"})
		}

		for i := range reports {
			r := &reports[i]
			row := []string{
				r.Key,
				r.Title,
				r.BugType,
				r.Severity,
				r.Status,
				r.AssignedTo,
				r.DuplicateOf,
				r.ReporterName,
				r.CreatedAt.Format(time.RFC3339),
			}
			if err := w.Write(row); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV"})
			}
		}
		w.Flush()

		c.Set("Content-Type", "text/csv")
		c.Set("Content-Disposition", `attachment; filename="reports.csv"`)
		return c.Send(buf.Bytes())
	}
}
