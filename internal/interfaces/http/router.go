package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/jhoicas/mechswap-api/internal/application/auth"
	"github.com/jhoicas/mechswap-api/internal/application/usecase"
	"github.com/jhoicas/mechswap-api/pkg/config"
	"github.com/jhoicas/mechswap-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	AccountUC *usecase.AccountUseCase
	Limiter   rateLimiter
	RateLimit config.RateLimitConfig
	// Ping comprueba el almacenamiento para /health. nil responde siempre ok.
	Ping        func(ctx context.Context) error
	ServiceName string
	Log         *logger.Logger
}

// Router registra middlewares y rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: LocalRequestID,
	}))
	app.Use(RequestLogger(deps.Log))

	app.Get("/health", healthHandler(deps.ServiceName, deps.Ping))

	api := app.Group("/api", RateLimit(deps.Limiter, "general", deps.RateLimit.GeneralMax, deps.RateLimit.GeneralWindow))

	// Auth (público, límite estricto por IP)
	authGroup := api.Group("/auth", RateLimit(deps.Limiter, "auth", deps.RateLimit.AuthMax, deps.RateLimit.AuthWindow))
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/change-password", authHandler.ChangePassword)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)

	// Accounts
	accounts := api.Group("/accounts")
	accountHandler := NewAccountHandler(deps.AccountUC)
	accounts.Get("/", accountHandler.GetProfile)
	accounts.Put("/profile", accountHandler.UpdateProfile)
}

// healthHandler godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func healthHandler(service string, ping func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "service": service})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": service})
	}
}
