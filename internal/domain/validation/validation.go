// Package validation normaliza y acota los campos de entrada antes de que lleguen al almacenamiento.
// No escapa HTML ni SQL: la persistencia siempre usa parámetros enlazados.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jhoicas/mechswap-api/internal/domain"
	"github.com/jhoicas/mechswap-api/internal/domain/entity"
)

const (
	MaxEmailLength    = 255
	MinPasswordLength = 6
	MaxPasswordLength = 128
	MaxTextLength     = 255
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail sintaxis local@dominio (sin espacios, una sola @, punto en el dominio) y longitud ≤ 255.
// No verifica MX ni red.
func ValidateEmail(s string) bool {
	return utf8.RuneCountInString(s) <= MaxEmailLength && emailPattern.MatchString(s)
}

// ValidatePassword longitud entre 6 y 128 caracteres.
// El hasher solo usa los primeros 72 bytes: dos contraseñas con ese mismo prefijo verifican igual.
func ValidatePassword(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= MinPasswordLength && n <= MaxPasswordLength
}

// SanitizeText recorta espacios en los extremos y trunca a 255 caracteres sin partir runas.
func SanitizeText(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxTextLength {
		return s
	}
	r := []rune(s)
	return string(r[:MaxTextLength])
}

// SanitizeProfile aplica SanitizeText a cada campo del perfil.
func SanitizeProfile(p entity.Profile) entity.Profile {
	return entity.Profile{
		DisplayName:      SanitizeText(p.DisplayName),
		CompanyName:      SanitizeText(p.CompanyName),
		CompanyDetails:   SanitizeText(p.CompanyDetails),
		Address:          SanitizeText(p.Address),
		Country:          SanitizeText(p.Country),
		State:            SanitizeText(p.State),
		City:             SanitizeText(p.City),
		PhoneCountryCode: SanitizeText(p.PhoneCountryCode),
		PhoneNumber:      SanitizeText(p.PhoneNumber),
	}
}

// Registration valida el alta. Devuelve el email saneado o un *domain.ValidationError.
func Registration(email, secret string) (string, error) {
	email = SanitizeText(email)
	if email == "" {
		return "", domain.NewValidationError("email", domain.CodeRequired)
	}
	if !ValidateEmail(email) {
		return "", domain.NewValidationError("email", domain.CodeInvalidEmail)
	}
	if !ValidatePassword(secret) {
		return "", domain.NewValidationError("password", domain.CodePasswordRange)
	}
	return email, nil
}

// PasswordChange valida el cambio de contraseña.
func PasswordChange(email, current, next string) (string, error) {
	email = SanitizeText(email)
	if !ValidateEmail(email) {
		return "", domain.NewValidationError("email", domain.CodeInvalidEmail)
	}
	if current == "" {
		return "", domain.NewValidationError("current_password", domain.CodeRequired)
	}
	if !ValidatePassword(next) {
		return "", domain.NewValidationError("new_password", domain.CodePasswordRange)
	}
	return email, nil
}

// Email valida un email suelto (perfil, recuperación).
func Email(email string) (string, error) {
	email = SanitizeText(email)
	if !ValidateEmail(email) {
		return "", domain.NewValidationError("email", domain.CodeInvalidEmail)
	}
	return email, nil
}
