// Package dashboard implements the resolvers for triage dashboard metrics.
package dashboard

import (
	"context"
	"strings"

	"github.com/arangodb/go-driver/v2/arangodb"

	"github.com/bughive/triage-backend/database"
	"github.com/bughive/triage-backend/model"
)

// ResolveOverview counts reports per triage status for the top cards.
func ResolveOverview(db database.DBConnection) (interface{}, error) {
	ctx := context.Background()

	query := `
		FOR r IN report
			COLLECT status = r.status WITH COUNT INTO cnt
			RETURN { status: status, count: cnt }
	`
	cursor, err := db.Database.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	overview := map[string]interface{}{
		"new":         0,
		"in_progress": 0,
		"resolved":    0,
		"duplicate":   0,
		"rejected":    0,
		"total":       0,
	}

	total := 0
	for cursor.HasMore() {
		var row struct {
			Status string `json:"status"`
			Count  int    `json:"count"`
		}
		if _, err := cursor.ReadDocument(ctx, &row); err != nil {
			continue
		}
		overview[strings.ToLower(row.Status)] = row.Count
		total += row.Count
	}
	overview["total"] = total

	return overview, nil
}

// ResolveSeverityDistribution breaks classified reports down by severity.
func ResolveSeverityDistribution(db database.DBConnection) (interface{}, error) {
	ctx := context.Background()

	query := `
		FOR r IN report
			FILTER r.severity != null
			COLLECT severity = r.severity WITH COUNT INTO cnt
			RETURN { severity: severity, count: cnt }
	`
	cursor, err := db.Database.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	dist := map[string]interface{}{
		"critical": 0,
		"high":     0,
		"medium":   0,
		"low":      0,
	}

	for cursor.HasMore() {
		var row struct {
			Severity string `json:"severity"`
			Count    int    `json:"count"`
		}
		if _, err := cursor.ReadDocument(ctx, &row); err != nil {
			continue
		}
		dist[strings.ToLower(row.Severity)] = row.Count
	}

	return dist, nil
}

// ResolveEngineerWorkload derives each active engineer's load from the
// report relation, the same computation the assignment engine scores on.
func ResolveEngineerWorkload(db database.DBConnection) (interface{}, error) {
	ctx := context.Background()

	query := `
		FOR u IN users
			FILTER u.role == @role AND u.is_active == true
			LET active = LENGTH(
				FOR r IN report
					FILTER r.assigned_to == u.username AND r.status IN @activeStatuses
					RETURN 1
			)
			LET critical = LENGTH(
				FOR r IN report
					FILTER r.assigned_to == u.username AND r.status IN @activeStatuses AND r.severity == @critical
					RETURN 1
			)
			SORT active DESC
			RETURN { engineer: u.username, team: u.team, active_reports: active, critical_reports: critical }
	`
	bindVars := map[string]interface{}{
		"role":           model.RoleEngineer,
		"activeStatuses": []string{model.StatusNew, model.StatusInProgress},
		"critical":       model.SeverityCritical,
	}

	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var workloads []map[string]interface{}
	for cursor.HasMore() {
		var row map[string]interface{}
		if _, err := cursor.ReadDocument(ctx, &row); err != nil {
			continue
		}
		workloads = append(workloads, row)
	}

	return workloads, nil
}

// ResolveDuplicateRate computes the share of submissions caught as duplicates.
func ResolveDuplicateRate(db database.DBConnection) (interface{}, error) {
	ctx := context.Background()

	query := `
		RETURN {
			total: LENGTH(report),
			duplicates: LENGTH(FOR r IN report FILTER r.status == @duplicate RETURN 1)
		}
	`
	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"duplicate": model.StatusDuplicate},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var row struct {
		Total      int `json:"total"`
		Duplicates int `json:"duplicates"`
	}
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &row); err != nil {
			return nil, err
		}
	}

	rate := 0.0
	if row.Total > 0 {
		rate = float64(row.Duplicates) / float64(row.Total)
	}

	return map[string]interface{}{
		"total_reports": row.Total,
		"duplicates":    row.Duplicates,
		"rate":          rate,
	}, nil
}

// ResolveRecentReports returns the latest submissions for the dashboard table.
func ResolveRecentReports(db database.DBConnection, limit int) (interface{}, error) {
	ctx := context.Background()

	if limit <= 0 || limit > 100 {
		limit = 10
	}

	query := `
		FOR r IN report
			SORT r.created_at DESC
			LIMIT @limit
			RETURN {
				key: r._key,
				title: r.title,
				bug_type: r.bug_type,
				severity: r.severity,
				status: r.status,
				assigned_to: r.assigned_to,
				created_at: r.created_at
			}
	`
	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"limit": limit},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var results []map[string]interface{}
	for cursor.HasMore() {
		var row map[string]interface{}
		if _, err := cursor.ReadDocument(ctx, &row); err != nil {
			continue
		}
		results = append(results, row)
	}

	return results, nil
}
