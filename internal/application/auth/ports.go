package auth

import (
	"context"

	"github.com/jhoicas/mechswap-api/internal/domain/entity"
	"github.com/jhoicas/mechswap-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con el repositorio de cuentas atado a ella.
// Commit si fn devuelve nil; rollback completo en cualquier otro caso.
type TxRunner interface {
	RunAccount(ctx context.Context, fn func(ctx context.Context, repo repository.AccountRepository) error) error
}

// PasswordHasher hashea y verifica credenciales según su variante (Hashed o Legacy).
type PasswordHasher interface {
	Hash(secret string) (entity.Credential, error)
	Verify(secret string, cred entity.Credential) (bool, error)
}
