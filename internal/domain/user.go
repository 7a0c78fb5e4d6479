package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Team roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is a back-office team member. Customers are not users; guest
// checkout captures contact details on the order instead.
type User struct {
	ID           pgtype.UUID        `json:"id"`
	Email        string             `json:"email"`
	FirstName    string             `json:"firstName"`
	LastName     string             `json:"lastName"`
	Role         string             `json:"role"`
	PasswordHash string             `json:"-"`
	Active       bool               `json:"active"`
	CreatedAt    pgtype.Timestamptz `json:"createdAt"`
	UpdatedAt    pgtype.Timestamptz `json:"updatedAt"`
}

// FullName joins first and last name for display and email greetings.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// CreateUserParams are the fields accepted on team member creation.
// PasswordHash is the bcrypt hash, never the plaintext password.
type CreateUserParams struct {
	Email        string
	FirstName    string
	LastName     string
	Role         string
	PasswordHash string
}

// UserStore is the persistence port for team members.
type UserStore interface {
	CreateUser(ctx context.Context, params CreateUserParams) (*User, error)
	GetUser(ctx context.Context, id pgtype.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeactivateUser(ctx context.Context, id pgtype.UUID) error
	CountUsers(ctx context.Context) (int64, error)
}
