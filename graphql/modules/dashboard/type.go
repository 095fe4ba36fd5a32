// Package dashboard defines the GraphQL types for the triage dashboard.
package dashboard

import (
	"github.com/graphql-go/graphql"
)

// TriageOverviewType represents the high-level counts for the top cards
var TriageOverviewType = graphql.NewObject(graphql.ObjectConfig{
	Name: "TriageOverview",
	Fields: graphql.Fields{
		"new":         &graphql.Field{Type: graphql.Int},
		"in_progress": &graphql.Field{Type: graphql.Int},
		"resolved":    &graphql.Field{Type: graphql.Int},
		"duplicate":   &graphql.Field{Type: graphql.Int},
		"rejected":    &graphql.Field{Type: graphql.Int},
		"total":       &graphql.Field{Type: graphql.Int},
	},
})

// SeverityDistributionType represents the data for the pie/bar charts
var SeverityDistributionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SeverityDistribution",
	Fields: graphql.Fields{
		"critical": &graphql.Field{Type: graphql.Int},
		"high":     &graphql.Field{Type: graphql.Int},
		"medium":   &graphql.Field{Type: graphql.Int},
		"low":      &graphql.Field{Type: graphql.Int},
	},
})

// EngineerWorkloadType represents one engineer's current load
var EngineerWorkloadType = graphql.NewObject(graphql.ObjectConfig{
	Name: "EngineerWorkload",
	Fields: graphql.Fields{
		"engineer":         &graphql.Field{Type: graphql.String},
		"team":             &graphql.Field{Type: graphql.String},
		"active_reports":   &graphql.Field{Type: graphql.Int},
		"critical_reports": &graphql.Field{Type: graphql.Int},
	},
})

// DuplicateRateType represents the duplicate share of all submissions
var DuplicateRateType = graphql.NewObject(graphql.ObjectConfig{
	Name: "DuplicateRate",
	Fields: graphql.Fields{
		"total_reports": &graphql.Field{Type: graphql.Int},
		"duplicates":    &graphql.Field{Type: graphql.Int},
		"rate":          &graphql.Field{Type: graphql.Float},
	},
})

// RecentReportType represents rows for the "Recent Reports" table
var RecentReportType = graphql.NewObject(graphql.ObjectConfig{
	Name: "RecentReport",
	Fields: graphql.Fields{
		"key":         &graphql.Field{Type: graphql.String},
		"title":       &graphql.Field{Type: graphql.String},
		"bug_type":    &graphql.Field{Type: graphql.String},
		"severity":    &graphql.Field{Type: graphql.String},
		"status":      &graphql.Field{Type: graphql.String},
		"assigned_to": &graphql.Field{Type: graphql.String},
		"created_at":  &graphql.Field{Type: graphql.String},
	},
})
