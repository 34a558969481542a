package controller

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ramshaali/folio/internal/constant"
	"github.com/ramshaali/folio/internal/service"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	New(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.IGenerateService
}

func NewSessionController(service service.IGenerateService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session")
	h.Post("/new", c.New)
}

func (c *sessionController) New(ctx *fiber.Ctx) error {
	res, err := c.service.NewSession(ctx.UserContext(), ctx.Get(constant.HeaderClientID))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
