// account tareas de operador sobre cuentas existentes.
//
// Uso:
//
//	go run ./cmd/account status <email> <active|admin|blocked>
//	go run ./cmd/account show <email>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jhoicas/mechswap-api/internal/application/usecase"
	"github.com/jhoicas/mechswap-api/internal/domain"
	"github.com/jhoicas/mechswap-api/internal/domain/entity"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/store"
	"github.com/jhoicas/mechswap-api/pkg/config"
)

var errUsage = errors.New("uso: account status <email> <active|admin|blocked> | account show <email>")

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir almacenamiento (%s): %v\n", cfg.DB.Driver, err)
		os.Exit(1)
	}
	defer st.Close()

	if err := run(ctx, usecase.NewAccountUseCase(st.Repo, cfg.DB.TxTimeout), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		st.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, uc *usecase.AccountUseCase, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "status":
		if len(args) != 3 {
			return errUsage
		}
		status, ok := entity.ParseAccountStatus(args[2])
		if !ok {
			return fmt.Errorf("estado desconocido %q (usar active, admin o blocked)", args[2])
		}
		if err := uc.SetStatus(ctx, args[1], status); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("cuenta %s no encontrada", args[1])
			}
			return err
		}
		fmt.Fprintf(out, "%s -> %s\n", args[1], status)
		return nil
	case "show":
		if len(args) != 2 {
			return errUsage
		}
		acc, err := uc.GetProfile(ctx, args[1])
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("cuenta %s no encontrada", args[1])
			}
			return err
		}
		fmt.Fprintf(out, "%s\t%s\tregistrada %s\t%s\n", acc.Email, acc.Status, acc.RegisteredOn, acc.CompanyName)
		return nil
	default:
		return errUsage
	}
}
