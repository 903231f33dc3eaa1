// migrate aplica o inspecciona las migraciones embebidas del almacenamiento configurado (DB_DRIVER).
//
// Uso: go run ./cmd/migrate [up|down|status]
// Por defecto ejecuta "up".
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/jhoicas/mechswap-api/internal/infrastructure/postgres"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/sqlite"
	"github.com/jhoicas/mechswap-api/pkg/config"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	provider, closeFn, err := newProvider(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir almacenamiento (%s): %v\n", cfg.DB.Driver, err)
		os.Exit(1)
	}
	defer closeFn()

	if err := run(ctx, provider, command); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", command, err)
		os.Exit(1)
	}
}

func newProvider(ctx context.Context, cfg config.DBConfig) (*goose.Provider, func(), error) {
	if cfg.Driver == config.DriverSQLite {
		db, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLitePath})
		if err != nil {
			return nil, nil, err
		}
		p, err := sqlite.NewMigrator(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return p, func() { db.Close() }, nil
	}
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	p, err := postgres.NewMigrator(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return p, func() {
		_ = p.Close()
		pool.Close()
	}, nil
}

func run(ctx context.Context, p *goose.Provider, command string) error {
	switch command {
	case "up":
		results, err := p.Up(ctx)
		for _, r := range results {
			fmt.Printf("OK   %s (%s)\n", r.Source.Path, r.Duration.Round(time.Millisecond))
		}
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("Sin migraciones pendientes")
		}
		return nil
	case "down":
		r, err := p.Down(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("OK   %s revertida\n", r.Source.Path)
		return nil
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			applied := "pendiente"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%-40s %s\n", s.Source.Path, applied)
		}
		return nil
	default:
		return fmt.Errorf("comando desconocido %q (usar up, down o status)", command)
	}
}
