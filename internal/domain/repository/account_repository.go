package repository

import (
	"context"

	"github.com/jhoicas/mechswap-api/internal/domain/entity"
)

// AccountRepository define el puerto de persistencia para Account (DIP).
// Las implementaciones aceptan pool o tx; dentro de una tx, LockEmail serializa el alta de ese email.
type AccountRepository interface {
	// LockEmail toma el bloqueo de escritura sobre el espacio de filas del email y reporta si ya existe.
	LockEmail(ctx context.Context, email string) (exists bool, err error)
	// Create inserta la cuenta. Devuelve domain.ErrEmailTaken ante violación de unicidad.
	Create(ctx context.Context, account *entity.Account) error
	// GetByEmail busca por coincidencia exacta. Devuelve nil, nil si no existe.
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	// FindByEmailFold busca ignorando mayúsculas (recuperación de contraseña).
	FindByEmailFold(ctx context.Context, email string) (*entity.Account, error)
	// UpdateProfile actualiza el perfil. Devuelve domain.ErrNotFound si no existe.
	UpdateProfile(ctx context.Context, email string, profile entity.Profile) error
	// ReplaceCredential cambia la credencial solo si la almacenada sigue siendo previous.
	// Devuelve false si otra escritura la cambió antes.
	ReplaceCredential(ctx context.Context, email string, previous, next entity.Credential) (bool, error)
	// SetStatus cambia el estado (operación de operador).
	SetStatus(ctx context.Context, email string, status entity.AccountStatus) error
}
