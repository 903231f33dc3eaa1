package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/mechswap-api/internal/application/ports"
	"github.com/jhoicas/mechswap-api/pkg/config"
	"github.com/jhoicas/mechswap-api/pkg/logger"
)

// Sender entrega una notificación. Lo usa el Dispatcher desde sus workers.
type Sender interface {
	Send(ctx context.Context, n ports.Notification) error
}

// SMTPSender envía por SMTP con gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender construye el sender a partir de MAIL_*.
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// Send arma el mensaje multiparte (texto + HTML) y lo envía. gomail no acepta contexto,
// así que el envío corre aparte y Send vuelve al vencer ctx.
func (s *SMTPSender) Send(ctx context.Context, n ports.Notification) error {
	msg := buildMessage(s.from, n)
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send %s: %w", n.ID, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send %s: %w", n.ID, ctx.Err())
	}
}

func buildMessage(from string, n ports.Notification) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", n.To)
	m.SetHeader("Subject", n.Subject)
	m.SetHeader("X-Notification-ID", n.ID)
	m.SetBody("text/plain", n.Text)
	if n.HTML != "" {
		m.AddAlternative("text/html", n.HTML)
	}
	return m
}

// LogSender solo registra la notificación. Se usa cuando MAIL_HOST está vacío.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender crea un sender que escribe en el log.
func NewLogSender(log *logger.Logger) *LogSender {
	if log == nil {
		log = logger.Nop()
	}
	return &LogSender{log: log}
}

// Send implementa Sender.
func (s *LogSender) Send(_ context.Context, n ports.Notification) error {
	s.log.Info().Str("notification_id", n.ID).Str("to", n.To).Str("subject", n.Subject).Msg("correo no enviado: SMTP sin configurar")
	return nil
}
