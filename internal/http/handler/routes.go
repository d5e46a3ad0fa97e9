package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docportal/internal/http/middleware"
	"docportal/internal/model"
	"docportal/internal/service"
)

// Deps are the collaborators the HTTP routes need.
type Deps struct {
	DB     *sql.DB
	Docs   service.DocumentService
	Auth   service.AuthService
	Tokens middleware.TokenParser
	// Metrics is served on /metrics when set.
	Metrics prometheus.Gatherer

	RegisterLimit  int
	RegisterWindow time.Duration
}

// RegisterRoutes attaches every HTTP route to app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", Login(d.Auth))
	auth.Post("/register", middleware.RateLimit(d.RegisterLimit, d.RegisterWindow), Register(d.Auth))
	auth.Get("/check-username/:username", CheckUsername(d.Auth))
	auth.Get("/check-email/:email", CheckEmail(d.Auth))

	secured := middleware.Auth(d.Tokens)

	docs := api.Group("/documents", secured)
	docs.Get("/", ListDocuments(d.Docs))
	docs.Post("/", CreateDocument(d.Docs))
	docs.Get("/:id", GetDocument(d.Docs))
	docs.Put("/:id", UpdateDocument(d.Docs))
	docs.Patch("/:id/status", UpdateDocumentStatus(d.Docs))
	docs.Delete("/:id", middleware.RequireRole(model.RoleAdmin), DeleteDocument(d.Docs))
	docs.Post("/:id/versions", UploadVersion(d.Docs))
	docs.Get("/:id/versions", ListVersions(d.Docs))

	api.Get("/files/:versionId", secured, DownloadFile(d.Docs))
}
