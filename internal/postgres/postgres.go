// Package postgres implements the domain persistence ports with
// hand-written SQL over a pgx connection pool.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so store methods
// can run inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Stores bundles all persistence ports over one pool.
type Stores struct {
	Products *ProductStore
	Orders   *OrderStore
	Activity *ActivityStore
	Users    *UserStore
}

// NewStores builds all stores sharing the given pool.
func NewStores(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Products: NewProductStore(pool),
		Orders:   NewOrderStore(pool),
		Activity: NewActivityStore(pool),
		Users:    NewUserStore(pool),
	}
}

func textFromString(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}

func stringFromText(value pgtype.Text) string {
	if !value.Valid {
		return ""
	}
	return value.String
}
