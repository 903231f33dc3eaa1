package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrValidation         = errors.New("entrada inválida")
	ErrEmailTaken         = errors.New("el email ya está registrado")
	ErrInvalidCredentials = errors.New("email o contraseña inválidos")
	ErrStoreUnavailable   = errors.New("almacenamiento no disponible")
	ErrInternal           = errors.New("error interno")
)

// Códigos de validación por campo.
const (
	CodeRequired      = "required"
	CodeInvalidEmail  = "invalid_email"
	CodePasswordRange = "password_length"
)

// ValidationError describe el primer campo rechazado. errors.Is(err, ErrValidation) es true.
type ValidationError struct {
	Field string
	Code  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrValidation.Error(), e.Field, e.Code)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError construye un ValidationError para el campo indicado.
func NewValidationError(field, code string) error {
	return &ValidationError{Field: field, Code: code}
}

// WrapStore envuelve un fallo del almacenamiento (conexión, timeout, SQL) como ErrStoreUnavailable
// conservando la causa para los logs.
func WrapStore(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
