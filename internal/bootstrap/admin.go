// Package bootstrap handles one-time initialization tasks for the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/skadi/internal/auth"
	"github.com/dukerupert/skadi/internal/domain"
)

// AdminConfig contains configuration for the initial admin account.
type AdminConfig struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Validate checks that the admin configuration is usable.
func (c *AdminConfig) Validate() error {
	if c.Email == "" {
		return errors.New("admin email is required")
	}
	if c.Password == "" {
		return errors.New("admin password is required")
	}
	if len(c.Password) < 12 {
		return errors.New("admin password must be at least 12 characters")
	}
	return nil
}

// EnsureAdmin creates the initial admin account if it doesn't exist.
// Idempotent - safe to call on every startup.
//
// If cfg is nil or has empty Email/Password, it logs a warning and skips,
// which allows running without an admin in dev.
func EnsureAdmin(ctx context.Context, users domain.UserStore, cfg *AdminConfig, logger *slog.Logger) error {
	if cfg == nil || cfg.Email == "" || cfg.Password == "" {
		logger.Warn("bootstrap: skipping admin creation - SKADI_ADMIN_EMAIL or SKADI_ADMIN_PASSWORD not set",
			"hint", "Set these environment variables to create an admin account on first startup",
		)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid admin configuration: %w", err)
	}

	existing, err := users.GetUserByEmail(ctx, cfg.Email)
	if err == nil && existing != nil {
		logger.Info("bootstrap: admin account already exists", "email", cfg.Email)
		return nil
	}
	if err != nil && !domain.IsCode(err, domain.ENOTFOUND) {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}

	passwordHash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	firstName := cfg.FirstName
	if firstName == "" {
		firstName = "Admin"
	}
	lastName := cfg.LastName
	if lastName == "" {
		lastName = "User"
	}

	user, err := users.CreateUser(ctx, domain.CreateUserParams{
		Email:        cfg.Email,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         domain.RoleAdmin,
		PasswordHash: passwordHash,
	})
	if err != nil {
		// Concurrent startup may have won the race.
		if domain.IsCode(err, domain.ECONFLICT) {
			logger.Info("bootstrap: admin account already exists (concurrent creation)", "email", cfg.Email)
			return nil
		}
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("bootstrap: admin account created successfully",
		"email", cfg.Email,
		"user_id", user.ID.String(),
	)

	return nil
}
