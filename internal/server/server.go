package server

import (
	"log"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/ramshaali/folio/internal/bootstrap"
	"github.com/ramshaali/folio/internal/config"
	"github.com/ramshaali/folio/internal/constant"
	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/internal/pkg/serverutils"
)

type Server struct {
	app *fiber.App
	cfg *config.Config
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := NewApp(cfg, container.Logger, Routes{
		Health:   container.HealthController,
		Session:  container.SessionController,
		Generate: container.GenerateController,
	})
	return &Server{app: app, cfg: cfg}
}

// RouteRegistrar is implemented by every controller.
type RouteRegistrar interface {
	RegisterRoutes(r fiber.Router)
}

type Routes struct {
	Health   RouteRegistrar
	Session  RouteRegistrar
	Generate RouteRegistrar
}

// NewApp builds the fiber app without binding a port.
func NewApp(cfg *config.Config, appLogger logger.ILogger, routes Routes) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    10 * 1024 * 1024, // 10MB, refine requests carry whole articles
		ErrorHandler: serverutils.NewErrorHandler(appLogger),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, " + constant.HeaderAPIKey + ", " + constant.HeaderClientID,
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: "Content-Type",
	}))
	app.Use(otelfiber.Middleware())
	app.Use(serverutils.ApiKeyMiddleware(cfg.App.ApiKey))

	routes.Health.RegisterRoutes(app)
	api := app.Group("/api")
	routes.Session.RegisterRoutes(api)
	routes.Generate.RegisterRoutes(api)

	return app
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
