package entity

import "time"

// AccountStatus estado de la cuenta, codificado como entero en almacenamiento.
type AccountStatus int

const (
	StatusActive  AccountStatus = 1
	StatusAdmin   AccountStatus = 2
	StatusBlocked AccountStatus = 3
)

// String devuelve el nombre público del estado. Cualquier código desconocido se trata como bloqueado.
func (s AccountStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusAdmin:
		return "admin"
	default:
		return "blocked"
	}
}

// Normalize colapsa códigos desconocidos en StatusBlocked.
func (s AccountStatus) Normalize() AccountStatus {
	switch s {
	case StatusActive, StatusAdmin:
		return s
	default:
		return StatusBlocked
	}
}

// ParseAccountStatus convierte el nombre público en el código de estado.
func ParseAccountStatus(s string) (AccountStatus, bool) {
	switch s {
	case "active":
		return StatusActive, true
	case "admin":
		return StatusAdmin, true
	case "blocked":
		return StatusBlocked, true
	}
	return 0, false
}

// Profile datos de perfil editables de una cuenta.
type Profile struct {
	DisplayName      string
	CompanyName      string
	CompanyDetails   string
	Address          string
	Country          string
	State            string
	City             string
	PhoneCountryCode string
	PhoneNumber      string
}

// Account representa una cuenta registrada en el marketplace. El email es la clave única.
type Account struct {
	Email        string
	Credential   Credential // nunca texto plano para cuentas nuevas
	Profile      Profile
	RegisteredOn time.Time // solo fecha
	Status       AccountStatus
}
