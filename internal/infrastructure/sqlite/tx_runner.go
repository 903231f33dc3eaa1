package sqlite

import (
	"context"
	"database/sql"

	"github.com/jhoicas/mechswap-api/internal/application/auth"
	"github.com/jhoicas/mechswap-api/internal/domain"
	"github.com/jhoicas/mechswap-api/internal/domain/repository"
)

var _ auth.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción SQLite (BEGIN IMMEDIATE vía _txlock).
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner construye el runner con la base abierta por Open.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// RunAccount inicia la transacción, ejecuta fn con el repositorio atado a la tx y hace Commit o Rollback.
func (r *TxRunner) RunAccount(ctx context.Context, fn func(ctx context.Context, repo repository.AccountRepository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapStore("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, NewAccountRepository(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return domain.WrapStore("commit transaction", err)
	}
	return nil
}
