package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// MessageResponse cuerpo de respuestas informativas.
type MessageResponse struct {
	Message string `json:"message"`
}
