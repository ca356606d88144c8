package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the read/write surface repositories run against. It is
// satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools, so the same repo
// code serves pooled calls, transaction-scoped calls and tests.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB adds transaction support on top of Querier for services that need
// multi-statement atomicity.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}
