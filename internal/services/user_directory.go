package services

import (
	"context"
	"fmt"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"

	"github.com/bughive/triage-backend/database"
	"github.com/bughive/triage-backend/internal/assign"
	"github.com/bughive/triage-backend/model"
)

// UserDirectory reads and writes user documents and computes engineer
// workloads for the assignment engine.
type UserDirectory struct {
	DB database.DBConnection
}

// NewUserDirectory wraps a database connection.
func NewUserDirectory(db database.DBConnection) *UserDirectory {
	return &UserDirectory{DB: db}
}

// candidateQuery derives each engineer's workload from the report relation
// on demand. Counts are never stored on the user document.
const candidateQuery = `
	FOR u IN users
		FILTER u.role == @role AND u.is_active == true
		FILTER @team == "" || u.team == @team
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
		SORT u.username ASC
		RETURN { username: u.username, team: u.team, active_reports: active, critical_reports: critical }
`

func (d *UserDirectory) candidates(ctx context.Context, team string) ([]assign.Candidate, error) {
	bindVars := map[string]interface{}{
		"role":           model.RoleEngineer,
		"team":           team,
		"activeStatuses": []string{model.StatusNew, model.StatusInProgress},
		"critical":       model.SeverityCritical,
	}

	cursor, err := d.DB.Database.Query(ctx, candidateQuery, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	candidates := []assign.Candidate{}
	for cursor.HasMore() {
		var candidate assign.Candidate
		if _, err := cursor.ReadDocument(ctx, &candidate); err != nil {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// EngineersByTeam returns active engineer-role users on the team with their
// current workloads.
func (d *UserDirectory) EngineersByTeam(ctx context.Context, team string) ([]assign.Candidate, error) {
	return d.candidates(ctx, team)
}

// Engineers returns all active engineer-role users with their workloads.
func (d *UserDirectory) Engineers(ctx context.Context) ([]assign.Candidate, error) {
	return d.candidates(ctx, "")
}

// GetUser loads a user by username. Returns nil when the user does not exist.
func (d *UserDirectory) GetUser(ctx context.Context, username string) (*model.User, error) {
	query := `
		FOR u IN users
			FILTER u.username == @username
			LIMIT 1
			RETURN u
	`
	cursor, err := d.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"username": username},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return nil, nil
	}

	var user model.User
	if _, err := cursor.ReadDocument(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every user document, password hashes stripped.
func (d *UserDirectory) ListUsers(ctx context.Context) ([]model.User, error) {
	query := `
		FOR u IN users
			SORT u.username ASC
			RETURN UNSET(u, "password_hash")
	`
	cursor, err := d.DB.Database.Query(ctx, query, &arangodb.QueryOptions{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	users := []model.User{}
	for cursor.HasMore() {
		var user model.User
		if _, err := cursor.ReadDocument(ctx, &user); err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// CreateUser inserts a new user. The username must be unused.
func (d *UserDirectory) CreateUser(ctx context.Context, user *model.User) (string, error) {
	existing, err := database.FindUserByUsername(ctx, d.DB.Database, user.Username)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return "", fmt.Errorf("username %s already exists", user.Username)
	}

	meta, err := d.DB.Collections["users"].CreateDocument(ctx, user)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	user.Key = meta.Key
	return meta.Key, nil
}

// UpdateUser applies a partial update to the user document with the key.
func (d *UserDirectory) UpdateUser(ctx context.Context, key string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	_, err := d.DB.Collections["users"].UpdateDocument(ctx, key, fields)
	return err
}

// DeactivateUser disables a user without deleting them, so assignment
// history keeps resolving to a real username.
func (d *UserDirectory) DeactivateUser(ctx context.Context, key string) error {
	return d.UpdateUser(ctx, key, map[string]interface{}{"is_active": false})
}
