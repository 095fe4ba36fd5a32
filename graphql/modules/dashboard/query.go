// Package dashboard defines the GraphQL queries for the triage dashboard.
package dashboard

import (
	"github.com/graphql-go/graphql"

	"github.com/bughive/triage-backend/database"
)

// GetQueryFields returns the dashboard queries to be mounted in the root schema
func GetQueryFields(db database.DBConnection) graphql.Fields {
	return graphql.Fields{
		// Section 1: Top Cards (status counts)
		"triageOverview": &graphql.Field{
			Type: TriageOverviewType,
			Resolve: func(_ graphql.ResolveParams) (interface{}, error) {
				return ResolveOverview(db)
			},
		},
		// Section 2: Charts (severity)
		"severityDistribution": &graphql.Field{
			Type: SeverityDistributionType,
			Resolve: func(_ graphql.ResolveParams) (interface{}, error) {
				return ResolveSeverityDistribution(db)
			},
		},
		// Section 3: Tables (who is carrying what)
		"engineerWorkload": &graphql.Field{
			Type: graphql.NewList(EngineerWorkloadType),
			Resolve: func(_ graphql.ResolveParams) (interface{}, error) {
				return ResolveEngineerWorkload(db)
			},
		},
		// Section 4: Duplicate share of all submissions
		"duplicateRate": &graphql.Field{
			Type: DuplicateRateType,
			Resolve: func(_ graphql.ResolveParams) (interface{}, error) {
				return ResolveDuplicateRate(db)
			},
		},
		// Section 5: Latest submissions
		"recentReports": &graphql.Field{
			Type: graphql.NewList(RecentReportType),
			Args: graphql.FieldConfigArgument{
				"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				limit := p.Args["limit"].(int)
				return ResolveRecentReports(db, limit)
			},
		},
	}
}
