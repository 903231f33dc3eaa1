package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/mechswap-api/internal/application/auth"
	"github.com/jhoicas/mechswap-api/internal/domain"
	"github.com/jhoicas/mechswap-api/internal/domain/repository"
)

var _ auth.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunAccount inicia una transacción READ COMMITTED, ejecuta fn con el repositorio de cuentas atado a la tx
// y hace Commit o Rollback. La adquisición de la conexión queda acotada por el deadline de ctx.
func (r *TxRunner) RunAccount(ctx context.Context, fn func(ctx context.Context, repo repository.AccountRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return domain.WrapStore("begin transaction", err)
	}
	// Rollback tras Commit es no-op.
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := fn(ctx, NewAccountRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return domain.WrapStore("commit transaction", err)
	}
	return nil
}
