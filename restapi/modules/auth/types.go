// Package auth provides authentication and authorization types for the REST API.
package auth

// ContextKey is the type for request-scoped identity values passed from the
// HTTP layer into GraphQL resolvers.
type ContextKey string

// Context keys for the authenticated identity.
const (
	UserKey ContextKey = "username"
	RoleKey ContextKey = "role"
	TeamKey ContextKey = "team"
)

// LoginRequest defines the body for username/password login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse defines the session info returned to the frontend
type UserResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Team     string `json:"team,omitempty"`
}
