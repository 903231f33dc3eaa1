// Package store abre el almacenamiento de cuentas configurado (DB_DRIVER) para los binarios de cmd/.
package store

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/mechswap-api/internal/application/auth"
	"github.com/jhoicas/mechswap-api/internal/domain/repository"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/postgres"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/mechswap-api/pkg/config"
)

// Store agrupa repositorio, runner de transacciones, ping y cierre del motor elegido.
type Store struct {
	Repo  repository.AccountRepository
	Tx    auth.TxRunner
	Ping  func(ctx context.Context) error
	close func()
}

// Close libera conexiones.
func (s *Store) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// Open conecta con postgres o sqlite y, si cfg.AutoMigrate, aplica las migraciones pendientes.
func Open(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLitePath, MaxOpenConns: int(cfg.MaxConns)})
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := sqlite.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return fromSQLite(db), nil
	default:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return fromPostgres(pool), nil
	}
}

func fromSQLite(db *sql.DB) *Store {
	return &Store{
		Repo:  sqlite.NewAccountRepository(db),
		Tx:    sqlite.NewTxRunner(db),
		Ping:  db.PingContext,
		close: func() { _ = db.Close() },
	}
}

func fromPostgres(pool *pgxpool.Pool) *Store {
	return &Store{
		Repo:  postgres.NewAccountRepository(pool),
		Tx:    postgres.NewTxRunner(pool),
		Ping:  pool.Ping,
		close: pool.Close,
	}
}
