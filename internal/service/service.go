// Package service implements the business operations on top of the
// persistence ports and the billing and email providers.
package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Actor identifies who performed a back-office operation, for audit
// entries and logs.
type Actor struct {
	Name string
	Role string
}

func parseUUID(value string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(value)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid uuid %q: %w", value, err)
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
