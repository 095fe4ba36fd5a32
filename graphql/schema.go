// Package graphql assembles the root schema from the per-module query fields.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/bughive/triage-backend/database"
	"github.com/bughive/triage-backend/graphql/modules/dashboard"
)

var dbConnection database.DBConnection

// InitDB stores the database connection used by all resolvers.
func InitDB(db database.DBConnection) {
	dbConnection = db
}

// CreateSchema builds the root query schema for the dashboard API.
func CreateSchema() (graphql.Schema, error) {
	fields := graphql.Fields{}

	for name, field := range dashboard.GetQueryFields(dbConnection) {
		fields[name] = field
	}

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: fields,
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: rootQuery,
	})
}
