package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukerupert/skadi/internal/domain"
)

// UserStore implements domain.UserStore.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id, email, first_name, last_name, role, password_hash, active, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.PasswordHash,
		&u.Active, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) CreateUser(ctx context.Context, params domain.CreateUserParams) (*domain.User, error) {
	const op = "user.create"

	query := fmt.Sprintf(`
		INSERT INTO users (email, first_name, last_name, role, password_hash)
		VALUES (lower($1), $2, $3, $4, $5)
		RETURNING %s`, userColumns)

	user, err := scanUser(s.pool.QueryRow(ctx, query,
		params.Email, params.FirstName, params.LastName, params.Role, params.PasswordHash))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict(op, fmt.Sprintf("email already in use: %s", params.Email))
		}
		return nil, domain.Internal(err, op, "failed to create user")
	}

	return user, nil
}

func (s *UserStore) GetUser(ctx context.Context, id pgtype.UUID) (*domain.User, error) {
	const op = "user.get"

	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	user, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "user", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load user")
	}

	return user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "user.get_by_email"

	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = lower($1)`, userColumns)
	user, err := scanUser(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "user", email)
		}
		return nil, domain.Internal(err, op, "failed to load user")
	}

	return user, nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	const op = "user.list"

	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at`, userColumns)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list users")
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan user")
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read users")
	}

	return users, nil
}

func (s *UserStore) DeactivateUser(ctx context.Context, id pgtype.UUID) error {
	const op = "user.deactivate"

	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, op, "failed to deactivate user")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(op, "user", id.String())
	}

	return nil
}

func (s *UserStore) CountUsers(ctx context.Context) (int64, error) {
	const op = "user.count"

	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, domain.Internal(err, op, "failed to count users")
	}

	return count, nil
}
