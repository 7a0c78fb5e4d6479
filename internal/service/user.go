package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/skadi/internal/auth"
	"github.com/dukerupert/skadi/internal/domain"
	"github.com/dukerupert/skadi/internal/email"
	"github.com/dukerupert/skadi/internal/telemetry"
)

// TeamService manages back-office accounts.
type TeamService interface {
	// CreateMember hashes the password, creates the account, records an
	// activity entry, and sends a best-effort welcome email.
	CreateMember(ctx context.Context, params CreateMemberParams) (*domain.User, error)

	ListMembers(ctx context.Context) ([]domain.User, error)

	// DeactivateMember disables the account and records an activity entry.
	DeactivateMember(ctx context.Context, userID string, actor Actor) error
}

// CreateMemberParams carries the new account details.
type CreateMemberParams struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
	Password  string
	Actor     Actor
}

type teamService struct {
	users    domain.UserStore
	activity ActivityRecorder
	notifier email.Notifier
	logger   *slog.Logger
	baseURL  string
}

// NewTeamService creates the team service. The notifier may be nil,
// which disables welcome emails.
func NewTeamService(users domain.UserStore, activity ActivityRecorder, notifier email.Notifier, logger *slog.Logger, baseURL string) (TeamService, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if activity == nil {
		return nil, fmt.Errorf("activity recorder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &teamService{
		users:    users,
		activity: activity,
		notifier: notifier,
		logger:   logger,
		baseURL:  baseURL,
	}, nil
}

func (s *teamService) CreateMember(ctx context.Context, params CreateMemberParams) (*domain.User, error) {
	const op = "team.create"

	if params.Email == "" {
		return nil, domain.Invalid(op, "email is required")
	}
	if params.Role != domain.RoleAdmin && params.Role != domain.RoleStaff {
		return nil, domain.Errorf(domain.EINVALID, op, "invalid role: %s", params.Role)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, err.Error())
	}

	user, err := s.users.CreateUser(ctx, domain.CreateUserParams{
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         params.Role,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team member created",
		"user_id", user.ID.String(),
		"email", user.Email,
		"role", user.Role,
		"actor", params.Actor.Name,
	)

	s.activity.Record(ctx, domain.ActivityEntry{
		Action:      "member_created",
		Category:    domain.ActivityCategoryTeam,
		Description: fmt.Sprintf("Team member %s created with role %s", user.Email, user.Role),
		ActorName:   params.Actor.Name,
		ActorRole:   params.Actor.Role,
		TargetID:    user.ID.String(),
		TargetType:  "user",
		TargetName:  user.Email,
	})

	s.sendWelcome(ctx, user)

	return user, nil
}

// sendWelcome is best-effort: the account exists either way.
func (s *teamService) sendWelcome(ctx context.Context, user *domain.User) {
	if s.notifier == nil {
		return
	}

	data := email.TeamWelcomeEmail{
		Email:     user.Email,
		FirstName: user.FirstName,
		Role:      user.Role,
		LoginURL:  s.baseURL + "/admin",
	}

	if err := s.notifier.SendTeamWelcome(ctx, data); err != nil {
		s.logger.Error("welcome email failed", "to", user.Email, "error", err)
		if telemetry.Business != nil {
			telemetry.Business.EmailFailed.WithLabelValues("team_welcome").Inc()
		}
		return
	}
	if telemetry.Business != nil {
		telemetry.Business.EmailSent.WithLabelValues("team_welcome").Inc()
	}
}

func (s *teamService) ListMembers(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *teamService) DeactivateMember(ctx context.Context, userIDRaw string, actor Actor) error {
	const op = "team.deactivate"

	userID, err := parseUUID(userIDRaw)
	if err != nil {
		return domain.NotFound(op, "user", userIDRaw)
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.users.DeactivateUser(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("team member deactivated",
		"user_id", userIDRaw, "email", user.Email, "actor", actor.Name)

	s.activity.Record(ctx, domain.ActivityEntry{
		Action:      "member_deactivated",
		Category:    domain.ActivityCategoryTeam,
		Description: fmt.Sprintf("Team member %s deactivated", user.Email),
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
		TargetID:    userIDRaw,
		TargetType:  "user",
		TargetName:  user.Email,
	})

	return nil
}
