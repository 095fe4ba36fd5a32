package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/bughive/triage-backend/internal/services"
	"github.com/bughive/triage-backend/model"
)

// BootstrapAdmin ensures an initial admin account exists so a fresh install
// can be logged into. Credentials come from ADMIN_USERNAME / ADMIN_PASSWORD;
// nothing is created when the password is not configured.
func BootstrapAdmin(dir *services.UserDirectory) error {
	ctx := context.Background()

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		return fmt.Errorf("ADMIN_PASSWORD not set, skipping admin bootstrap")
	}

	existing, err := dir.GetUser(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.NewUser(username, model.RoleAdmin)
	admin.Email = os.Getenv("ADMIN_EMAIL")
	admin.PasswordHash = hash

	_, err = dir.CreateUser(ctx, admin)
	return err
}

// EnsureSystemActor provisions the sentinel user that authors pipeline
// writes such as duplicate comments. It has no password and cannot log in.
func EnsureSystemActor(dir *services.UserDirectory, actor string) error {
	ctx := context.Background()

	existing, err := dir.GetUser(ctx, actor)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	system := model.NewUser(actor, model.RoleViewer)
	system.IsSystem = true

	_, err = dir.CreateUser(ctx, system)
	return err
}
