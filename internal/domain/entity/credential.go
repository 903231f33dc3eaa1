package entity

import "strings"

// CredentialKind distingue la forma en que está almacenada la contraseña.
type CredentialKind int

const (
	// CredentialHashed hash bcrypt codificado ($2a$/$2b$/$2y$, costo, salt y digest).
	CredentialHashed CredentialKind = iota + 1
	// CredentialLegacy texto plano de cuentas creadas antes de introducir el hash. Solo lectura.
	CredentialLegacy
)

var hashedPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Credential variante etiquetada Hashed(encoded) | Legacy(plaintext).
// Se decide una sola vez al cargar el valor almacenado (ParseCredential).
type Credential struct {
	kind  CredentialKind
	value string
}

// ParseCredential clasifica el valor almacenado según el marcador de hash.
func ParseCredential(stored string) Credential {
	for _, p := range hashedPrefixes {
		if strings.HasPrefix(stored, p) {
			return Credential{kind: CredentialHashed, value: stored}
		}
	}
	return Credential{kind: CredentialLegacy, value: stored}
}

// HashedCredential envuelve un hash ya codificado producido por el hasher.
func HashedCredential(encoded string) Credential {
	return Credential{kind: CredentialHashed, value: encoded}
}

// Kind devuelve la forma de la credencial.
func (c Credential) Kind() CredentialKind { return c.kind }

// IsLegacy indica si la credencial está en texto plano.
func (c Credential) IsLegacy() bool { return c.kind == CredentialLegacy }

// IsZero indica una credencial sin valor.
func (c Credential) IsZero() bool { return c.kind == 0 }

// Encoded valor tal cual se persiste.
func (c Credential) Encoded() string { return c.value }

// String oculta el valor para que nunca aparezca en logs.
func (c Credential) String() string {
	switch c.kind {
	case CredentialHashed:
		return "Credential(hashed)"
	case CredentialLegacy:
		return "Credential(legacy)"
	}
	return "Credential(empty)"
}
