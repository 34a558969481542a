package controller

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ramshaali/folio/internal/constant"
	"github.com/ramshaali/folio/internal/dto"
	"github.com/ramshaali/folio/internal/pkg/serverutils"
)

type IHealthController interface {
	RegisterRoutes(app fiber.Router)
	Health(ctx *fiber.Ctx) error
	AuthStatus(ctx *fiber.Ctx) error
}

type healthController struct {
	apiKey string
}

func NewHealthController(apiKey string) IHealthController {
	return &healthController{apiKey: apiKey}
}

// RegisterRoutes mounts on the root router; both routes skip the API key.
func (c *healthController) RegisterRoutes(app fiber.Router) {
	app.Get("/", c.Health)
	app.Get("/api/auth/status", c.AuthStatus)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.HealthResponse{Status: "ok", Service: constant.ServiceName})
}

func (c *healthController) AuthStatus(ctx *fiber.Ctx) error {
	if serverutils.KeyMatches(c.apiKey, ctx.Get(constant.HeaderAPIKey)) {
		return ctx.JSON(dto.AuthStatusResponse{Authenticated: true, Message: "API key is valid"})
	}
	return ctx.JSON(dto.AuthStatusResponse{Authenticated: false, Message: "Invalid or missing API key"})
}
