package dto

// ProfileFields campos de perfil comunes a alta y actualización.
type ProfileFields struct {
	DisplayName      string `json:"display_name"`
	CompanyName      string `json:"company_name"`
	CompanyDetails   string `json:"company_details"`
	Address          string `json:"address"`
	Country          string `json:"country"`
	State            string `json:"state"`
	City             string `json:"city"`
	PhoneCountryCode string `json:"phone_country_code"`
	PhoneNumber      string `json:"phone_number"`
}

// RegisterRequest entrada de alta (password en texto, se hashea en el caso de uso).
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	ProfileFields
}

// AccountResponse salida de una cuenta (sin credencial).
type AccountResponse struct {
	Email        string `json:"email"`
	ProfileFields
	RegisteredOn string `json:"registered_on"` // YYYY-MM-DD
	Status       string `json:"status"`
}

// LoginRequest entrada de login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse resultado del login: estado de la cuenta (active, admin, blocked). No emite token.
type LoginResponse struct {
	Status string `json:"status"`
}

// ChangePasswordRequest entrada para cambio de contraseña.
type ChangePasswordRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ForgotPasswordRequest entrada para solicitar instrucciones de recuperación.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// UpdateProfileRequest entrada para actualizar el perfil. El email identifica la cuenta y no cambia.
type UpdateProfileRequest struct {
	Email string `json:"email"`
	ProfileFields
}
