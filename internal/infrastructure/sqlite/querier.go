package sqlite

import (
	"context"
	"database/sql"
)

// Querier subconjunto de database/sql que implementan *sql.DB y *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
