package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/mechswap-api/internal/application/dto"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/ratelimit"
	"github.com/jhoicas/mechswap-api/pkg/logger"
)

// LocalRequestID clave en c.Locals del id de la petición (lo fija el middleware requestid).
const LocalRequestID = "request_id"

// GetRequestID devuelve el id de la petición actual.
func GetRequestID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRequestID).(string)
	return s
}

// RequestLogger registra método, ruta, estado y duración de cada petición.
func RequestLogger(log *logger.Logger) fiber.Handler {
	log = log.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error().Err(err)
		}
		ev.Str("request_id", GetRequestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Str("ip", c.IP()).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}

// rateLimiter contrato mínimo del limitador; lo implementa *ratelimit.Limiter.
type rateLimiter interface {
	Allow(ctx context.Context, key string, max int, window time.Duration) ratelimit.Decision
}

// RateLimit limita por IP en ventana fija. scope separa contadores (auth, general).
// Responde 429 con Retry-After al superar max.
func RateLimit(limiter rateLimiter, scope string, max int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}
		d := limiter.Allow(c.UserContext(), scope+":"+c.IP(), max, window)
		c.Set("X-RateLimit-Limit", strconv.Itoa(max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(d.ResetIn.Round(time.Second).Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Code:    CodeRateLimited,
				Message: "demasiadas peticiones, intente más tarde",
			})
		}
		return c.Next()
	}
}
