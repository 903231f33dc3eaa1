package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/mechswap-api/internal/application/auth"
	"github.com/jhoicas/mechswap-api/internal/application/ports"
	"github.com/jhoicas/mechswap-api/internal/application/usecase"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/mail"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/ratelimit"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/security"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/store"
	httpRouter "github.com/jhoicas/mechswap-api/internal/interfaces/http"
	"github.com/jhoicas/mechswap-api/pkg/config"
	"github.com/jhoicas/mechswap-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("conexión al almacenamiento")
	}

	var sender mail.Sender
	if cfg.Mail.Host != "" {
		sender = mail.NewSMTPSender(cfg.Mail)
	} else {
		log.Warn().Msg("MAIL_HOST vacío: los correos solo se registran en el log")
		sender = mail.NewLogSender(log.Named("mail"))
	}
	dispatcher := mail.NewDispatcher(sender, mail.DispatcherConfig{
		QueueSize:   cfg.Mail.QueueSize,
		Workers:     cfg.Mail.Workers,
		SendTimeout: cfg.Mail.SendTimeout,
	}, log)

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: rate limiting desactivado")
	}
	limiter := ratelimit.New(rdb, log)
	if err := limiter.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis no responde, el rate limiting deja pasar hasta que vuelva")
	}

	var notifier ports.Notifier = dispatcher
	authUC := auth.NewAuthUseCase(st.Tx, st.Repo, security.NewBcryptHasher(security.DefaultCost), notifier, auth.Config{
		TxTimeout:      cfg.DB.TxTimeout,
		AppName:        "MechSwap",
		SupportAddress: cfg.Mail.SupportAddress,
	}, log)
	accountUC := usecase.NewAccountUseCase(st.Repo, cfg.DB.TxTimeout)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimitMB * 1024 * 1024,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "MechSwap API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		AccountUC:   accountUC,
		Limiter:     limiter,
		RateLimit:   cfg.RateLimit,
		Ping:        st.Ping,
		ServiceName: cfg.App.Name,
		Log:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Orden: HTTP, cola de correo, Redis, almacenamiento.
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cola de correo sin vaciar")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	st.Close()

	log.Info().Msg("aplicación detenida")
}
