package api

import (
	"github.com/maigenai/fingenius/docs"
	"github.com/maigenai/fingenius/internal/api/handlers"
	"github.com/maigenai/fingenius/pkg/auth"
	"github.com/maigenai/fingenius/pkg/config"
	"github.com/maigenai/fingenius/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Document *handlers.DocumentHandler
	Dispute  *handlers.DisputeHandler
}

func SetupRouter(
	h Handlers,
	jwtManager *auth.JWTManager,
	serverCfg *config.ServerConfig,
	appLogger *zap.Logger,
) *fiber.App {
	bodyLimit := serverCfg.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 20
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    bodyLimit * 1024 * 1024,
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// importing docs registers the OpenAPI document through its init()
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	authGroup := app.Group("/user/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.RefreshToken)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	documents := protected.Group("/documents")
	documents.Post("/upload", h.Document.UploadDocument)
	documents.Get("", h.Document.ListDocuments)
	documents.Get("/:id", h.Document.GetDocument)
	documents.Get("/:id/insights", h.Document.GetInsights)
	documents.Get("/:id/transactions", h.Document.GetTransactions)
	documents.Get("/:id/transactions/export", h.Document.ExportTransactions)
	documents.Post("/:id/reprocess", h.Document.ReprocessDocument)
	documents.Post("/:id/disputes", h.Dispute.CreateDispute)
	documents.Get("/:id/disputes", h.Dispute.ListDisputes)

	protected.Patch("/disputes/:id/status", h.Dispute.UpdateStatus)
	protected.Get("/users/me", h.Auth.Me)

	return app
}
