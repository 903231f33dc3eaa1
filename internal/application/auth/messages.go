package auth

import (
	"fmt"
	"html"

	"github.com/google/uuid"

	"github.com/jhoicas/mechswap-api/internal/application/ports"
	"github.com/jhoicas/mechswap-api/internal/domain/entity"
)

func welcomeNotification(cfg Config, a *entity.Account) ports.Notification {
	name := a.Profile.DisplayName
	if name == "" {
		name = a.Email
	}
	text := fmt.Sprintf("Dear %s,\n\nThank you for registering with %s. Your account has been created.\n"+
		"Login ID: %s\nPlease use the password you chose during registration to log in.\n\n"+
		"Questions? Contact us at %s.\n\nIf you didn't create this account, please ignore this email.",
		name, cfg.AppName, a.Email, cfg.SupportAddress)
	htmlBody := fmt.Sprintf("<h1>Dear %s,</h1><p>Thank you for registering with %s. Your account has been created.</p>"+
		"<p>Login ID: %s<br>Please use the password you chose during registration to log in.</p>"+
		"<p>Questions? Contact us at %s.</p><p><i>If you didn't create this account, please ignore this email.</i></p>",
		html.EscapeString(name), html.EscapeString(cfg.AppName), html.EscapeString(a.Email), html.EscapeString(cfg.SupportAddress))
	return ports.Notification{
		ID:      uuid.NewString(),
		To:      a.Email,
		Subject: fmt.Sprintf("Welcome to %s - Your Registration is Complete!", cfg.AppName),
		Text:    text,
		HTML:    htmlBody,
	}
}

func resetNotification(cfg Config, a *entity.Account) ports.Notification {
	name := a.Profile.DisplayName
	if name == "" {
		name = a.Email
	}
	text := fmt.Sprintf("Dear %s,\n\nWe received a request to reset the password for your %s account.\n"+
		"Login ID: %s\nTo reset your password, contact our support team at %s.\n\n"+
		"If you didn't make this request, please ignore this email.",
		name, cfg.AppName, a.Email, cfg.SupportAddress)
	htmlBody := fmt.Sprintf("<h1>Dear %s,</h1><p>We received a request to reset the password for your %s account.</p>"+
		"<p><b>Login ID: %s</b></p><p>To reset your password, contact our support team at %s.</p>"+
		"<p><i>If you didn't make this request, please ignore this email.</i></p>",
		html.EscapeString(name), html.EscapeString(cfg.AppName), html.EscapeString(a.Email), html.EscapeString(cfg.SupportAddress))
	return ports.Notification{
		ID:      uuid.NewString(),
		To:      a.Email,
		Subject: fmt.Sprintf("%s - Password Reset Request", cfg.AppName),
		Text:    text,
		HTML:    htmlBody,
	}
}
