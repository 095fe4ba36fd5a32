// Package restapi provides the main router and initialization for REST API endpoints.
package restapi

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/bughive/triage-backend/internal/assign"
	"github.com/bughive/triage-backend/internal/config"
	"github.com/bughive/triage-backend/internal/services"
	"github.com/bughive/triage-backend/model"
	"github.com/bughive/triage-backend/restapi/modules/auth"
	"github.com/bughive/triage-backend/restapi/modules/reports"
)

// Deps bundles the wired services the route handlers close over.
type Deps struct {
	Config    *config.Config
	Store     *services.ReportStore
	Directory *services.UserDirectory
	Engine    *assign.Engine
	Publisher reports.IntakePublisher
	Runner    reports.TriageRunner
}

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
func SetupRoutes(app *fiber.App, deps Deps, schema graphql.Schema) {

	// Background initialization tasks
	go func() {
		if err := auth.BootstrapAdmin(deps.Directory); err != nil {
			log.Printf("WARNING: Failed to bootstrap admin: %v", err)
		}
	}()

	go func() {
		if err := auth.EnsureSystemActor(deps.Directory, deps.Config.SystemActor); err != nil {
			log.Printf("WARNING: Failed to provision system actor: %v", err)
		}
	}()

	// API Group /api/v1
	api := app.Group("/api/v1")

	// GraphQL Route - Mounted within the api group to inherit path prefixes
	api.Post("/graphql", auth.OptionalAuth, GraphQLHandler(schema))

	// Auth Routes
	authGroup := api.Group("/auth")
	authGroup.Post("/login", auth.Login(deps.Directory))
	authGroup.Post("/logout", auth.Logout())
	authGroup.Get("/me", auth.RequireAuth, auth.Me(deps.Directory))
	authGroup.Post("/change-password", auth.RequireAuth, auth.ChangePassword(deps.Directory))
	authGroup.Post("/refresh", auth.RefreshToken())

	// Report intake is public; bug-bounty reporters have no account.
	api.Post("/reports", reports.SubmitReport(deps.Store, deps.Publisher, deps.Runner))

	// Report read/write surface
	reportGroup := api.Group("/reports", auth.RequireAuth)
	reportGroup.Get("/export", auth.RequireRole(model.RoleAdmin), reports.ExportCSV(deps.Store))
	reportGroup.Get("/", reports.ListReports(deps.Store))
	reportGroup.Get("/:key", reports.GetReport(deps.Store))
	reportGroup.Put("/:key/status", auth.RequireRole(model.RoleAdmin, model.RoleEngineer), reports.UpdateStatus(deps.Store))
	reportGroup.Post("/:key/assign", auth.RequireRole(model.RoleAdmin), reports.AssignReport(deps.Store, deps.Engine))
	reportGroup.Post("/:key/reassign", auth.RequireRole(model.RoleAdmin), reports.ReassignReport(deps.Engine))
	reportGroup.Post("/:key/comments", auth.RequireRole(model.RoleAdmin, model.RoleEngineer), reports.AddComment(deps.Store))

	// User Management (Admin)
	userGroup := api.Group("/users", auth.RequireAuth, auth.RequireRole(model.RoleAdmin))
	userGroup.Get("/", auth.ListUsers(deps.Directory))
	userGroup.Post("/", auth.CreateUser(deps.Directory))
	userGroup.Get("/:username", auth.GetUser(deps.Directory))
	userGroup.Put("/:username", auth.UpdateUser(deps.Directory))
	userGroup.Delete("/:username", auth.DeleteUser(deps.Directory))

	log.Println("API routes initialized successfully")
}
