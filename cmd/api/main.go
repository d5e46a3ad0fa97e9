package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"docportal/docs"
	"docportal/internal/config"
	"docportal/internal/database"
	"docportal/internal/database/migration"
	handlers "docportal/internal/http/handler"
	"docportal/internal/http/middleware"
	"docportal/internal/logging"
	"docportal/internal/otel"
	"docportal/internal/repository/postgres"
	"docportal/internal/security"
	"docportal/internal/service"
	"docportal/internal/storage"
)

// @title Document Portal API
// @version 1.0
// @description Document management with versioned uploads.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := logging.Location(cfg.TimeZone)
	log := logging.Setup(os.Stdout, loc, cfg.LogLevel)
	zlog.Logger = log

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server_failed")
	}
}

func run(cfg *config.AppConfig, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, "docportal", log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Error().Err(err).Msg("tracing_shutdown_failed")
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Ping(ctx, db); err != nil {
		return err
	}
	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return err
	}

	tokens, err := security.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	if err != nil {
		return err
	}

	users := postgres.NewUserPostgres(db)
	docSvc := service.NewDocumentService(
		objStore,
		postgres.NewDocumentPostgres(db),
		postgres.NewVersionPostgres(db),
		users,
		log,
	)
	authSvc := service.NewAuthService(users, tokens, log)

	if cfg.Auth.SeedDefaultUsers {
		if err := authSvc.SeedDefaultUsers(ctx); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.MaxUploadMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:             db,
		Docs:           docSvc,
		Auth:           authSvc,
		Tokens:         tokens,
		Metrics:        reg,
		RegisterLimit:  cfg.Auth.RegisterLimit,
		RegisterWindow: cfg.Auth.RegisterWindow,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ":"+cfg.Port).Msg("server_listening")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("server_shutting_down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
