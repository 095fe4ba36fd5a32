// Package model provides data models for the bug-bounty triage system.
package model

import (
	"time"
)

// User roles.
const (
	RoleAdmin    = "admin"
	RoleEngineer = "engineer"
	RoleViewer   = "viewer"
)

// User represents a user in the system.
type User struct {
	Key          string    `json:"_key,omitempty"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Role         string    `json:"role"` // admin, engineer, viewer
	Team         string    `json:"team,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsSystem     bool      `json:"is_system,omitempty"` // sentinel actor for pipeline writes
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates a new user with default values.
func NewUser(username, role string) *User {
	now := time.Now()
	return &User{
		Username:  username,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsEngineer returns true if the user can be assigned reports.
func (u *User) IsEngineer() bool {
	return u.Role == RoleEngineer
}

// IsAdmin returns true if user is admin.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanWrite returns true if the user may mutate reports.
func (u *User) CanWrite() bool {
	return u.Role == RoleAdmin || u.Role == RoleEngineer
}

// CanRead returns true if the user may view reports.
func (u *User) CanRead() bool {
	return u.Role == RoleAdmin || u.Role == RoleEngineer || u.Role == RoleViewer
}

// HasPermission checks if user has a specific permission.
func (u *User) HasPermission(permission string) bool {
	switch permission {
	case "read":
		return u.CanRead()
	case "write":
		return u.CanWrite()
	case "admin":
		return u.IsAdmin()
	}
	return false
}
