// Package auth provides authentication handlers for Fiber.
package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bughive/triage-backend/internal/services"
	"github.com/bughive/triage-backend/model"
)

// ============================================================================
// AUTH HANDLERS
// ============================================================================

// Login authenticates a user against the stored bcrypt hash and sets the
// session cookie
func Login(dir *services.UserDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if req.Username == "" || req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username and password are required"})
		}

		ctx := c.Context()
		user, err := dir.GetUser(ctx, req.Username)
		if err != nil || user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
		}

		if !user.IsActive || user.IsSystem {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Account is inactive"})
		}

		if !CheckPasswordHash(req.Password, user.PasswordHash) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
		}

		token, err := GenerateJWT(user.Username, user.Role, user.Team)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate token"})
		}

		SetAuthCookie(c, token)

		return c.JSON(fiber.Map{
			"message":  "Login successful",
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
			"team":     user.Team,
		})
	}
}

// Logout clears the auth cookie
func Logout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     "auth_token",
			Value:    "",
			Expires:  time.Now().Add(-1 * time.Hour),
			MaxAge:   -1,
			HTTPOnly: true,
			Secure:   false,
			SameSite: "Lax",
			Path:     "/",
		})
		return c.JSON(fiber.Map{"message": "Logged out successfully"})
	}
}

// Me returns current authenticated user info
func Me(dir *services.UserDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username, ok := c.Locals("username").(string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
		}

		ctx := c.Context()
		user, err := dir.GetUser(ctx, username)
		if err != nil || user == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user profile"})
		}

		return c.JSON(fiber.Map{
			"username":  user.Username,
			"email":     user.Email,
			"role":      user.Role,
			"team":      user.Team,
			"is_active": user.IsActive,
		})
	}
}

// ChangePassword handles password change for the logged-in user
func ChangePassword(dir *services.UserDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username, ok := c.Locals("username").(string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
		}

		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}

		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if err := ValidatePasswordStrength(req.NewPassword); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		ctx := c.Context()
		user, err := dir.GetUser(ctx, username)
		if err != nil || user == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get user"})
		}

		if !CheckPasswordHash(req.OldPassword, user.PasswordHash) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid old password"})
		}

		newHash, err := HashPassword(req.NewPassword)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
		}

		if err := dir.UpdateUser(ctx, user.Key, map[string]interface{}{"password_hash": newHash}); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update password"})
		}

		return c.JSON(fiber.Map{"message": "Password changed successfully"})
	}
}

// RefreshToken refreshes JWT token
func RefreshToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		oldToken := c.Cookies("auth_token")
		if oldToken == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "No token to refresh"})
		}

		newToken, err := RefreshJWT(oldToken)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		SetAuthCookie(c, newToken)
		return c.JSON(fiber.Map{"message": "Token refreshed successfully"})
	}
}

// ============================================================================
// USER MANAGEMENT HANDLERS (Admin)
// ============================================================================

// ListUsers lists all users
func ListUsers(dir *services.UserDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.Context()
		users, err := dir.ListUsers(ctx)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list users"})
		}

		userList := make([]fiber.Map, len(users))
		for i, user := range users {
			userList[i] = fiber.Map{
				"username":  user.Username,
				"email":     user.Email,
				"role":      user.Role,
				"team":      user.Team,
				"is_active": user.IsActive,
				"is_system": user.IsSystem,
			}
		}

		return c.JSON(fiber.Map{
			"users": userList,
			"total": len(userList),
		})
	}
}

// CreateUser creates a new user
func CreateUser(dir *services.UserDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
			Team     string `json:"team"`
		}

		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if req.Username == "" || req.Email == "" || req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username, email, and password are required"})
		}

		if err := ValidatePasswordStrength(req.Password); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		role := req.Role
		if role == "" {
			role = model.RoleViewer
		}
		if role != model.RoleAdmin && role != model.RoleEngineer && role != model.RoleViewer {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
		}
		if role == model.RoleEngineer && req.Team == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Engineers must have a team"})
		}

		hash, err := HashPassword(req.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
		}

		user := model.NewUser(req.Username, role)
		user.Email = req.Email
		user.Team = req.Team
		user.PasswordHash = hash

		ctx := c.Context()
		key, err := dir.CreateUser(ctx, user)
		if err != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":  "User created",
			"key":      key,
			"username": user.Username,
		})
	}
}

// GetUser returns one user by username
func GetUser(dir *services.UserDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.Context()
		user, err := dir.GetUser(ctx, c.Params("username"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get user"})
		}
		if user == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}

		return c.JSON(fiber.Map{
			"username":  user.Username,
			"email":     user.Email,
			"role":      user.Role,
			"team":      user.Team,
			"is_active": user.IsActive,
		})
	}
}

// UpdateUser applies a partial update to a user
func UpdateUser(dir *services.UserDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email    *string `json:"email"`
			Role     *string `json:"role"`
			Team     *string `json:"team"`
			IsActive *bool   `json:"is_active"`
		}

		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		ctx := c.Context()
		user, err := dir.GetUser(ctx, c.Params("username"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get user"})
		}
		if user == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}

		fields := map[string]interface{}{}
		if req.Email != nil {
			fields["email"] = *req.Email
		}
		if req.Role != nil {
			if *req.Role != model.RoleAdmin && *req.Role != model.RoleEngineer && *req.Role != model.RoleViewer {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
			}
			fields["role"] = *req.Role
		}
		if req.Team != nil {
			fields["team"] = *req.Team
		}
		if req.IsActive != nil {
			fields["is_active"] = *req.IsActive
		}

		if len(fields) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No fields to update"})
		}

		if err := dir.UpdateUser(ctx, user.Key, fields); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
		}

		return c.JSON(fiber.Map{"message": "User updated"})
	}
}

// DeleteUser deactivates a user. The document is kept so assignment history
// still resolves to a real username.
func DeleteUser(dir *services.UserDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.Context()
		user, err := dir.GetUser(ctx, c.Params("username"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get user"})
		}
		if user == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		if user.IsSystem {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "The system actor cannot be removed"})
		}

		if err := dir.DeactivateUser(ctx, user.Key); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate user"})
		}

		return c.JSON(fiber.Map{"message": "User deactivated"})
	}
}

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

// SetAuthCookie sets the authentication cookie for a user session.
func SetAuthCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "auth_token",
		Value:    token,
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   86400,
		Path:     "/",
	})
}
