package security

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/mechswap-api/internal/domain/entity"
)

// DefaultCost costo fijo de bcrypt para credenciales nuevas.
const DefaultCost = 10

// bcrypt solo usa los primeros 72 bytes de la clave; se recorta igual al generar y al verificar
// para seguir aceptando los hashes $2b$ existentes. Secretos que comparten los primeros 72 bytes
// verifican contra el mismo hash aunque la validación admita hasta 128 caracteres.
const maxKeyBytes = 72

// BcryptHasher hashea y verifica contraseñas. Seguro para uso concurrente.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher construye el hasher; cost fuera de rango usa DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash genera una credencial Hashed. Nunca degrada a texto plano.
func (h *BcryptHasher) Hash(secret string) (entity.Credential, error) {
	hash, err := bcrypt.GenerateFromPassword(key(secret), h.cost)
	if err != nil {
		return entity.Credential{}, fmt.Errorf("hash password: %w", err)
	}
	return entity.HashedCredential(string(hash)), nil
}

// Verify compara secret contra la credencial según su variante.
// Hashed usa la comparación de bcrypt; Legacy compara en tiempo constante.
func (h *BcryptHasher) Verify(secret string, cred entity.Credential) (bool, error) {
	switch cred.Kind() {
	case entity.CredentialHashed:
		err := bcrypt.CompareHashAndPassword([]byte(cred.Encoded()), key(secret))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("compare password: %w", err)
	case entity.CredentialLegacy:
		stored := cred.Encoded()
		if stored == "" {
			return false, nil
		}
		return subtle.ConstantTimeCompare([]byte(secret), []byte(stored)) == 1, nil
	default:
		return false, nil
	}
}

func key(secret string) []byte {
	b := []byte(secret)
	if len(b) > maxKeyBytes {
		b = b[:maxKeyBytes]
	}
	return b
}
