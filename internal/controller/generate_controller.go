package controller

import (
	"bufio"
	"context"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/ramshaali/folio/internal/constant"
	"github.com/ramshaali/folio/internal/dto"
	"github.com/ramshaali/folio/internal/pkg/serverutils"
	"github.com/ramshaali/folio/internal/service"
)

type IGenerateController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
}

type generateController struct {
	service service.IGenerateService
}

func NewGenerateController(service service.IGenerateService) IGenerateController {
	return &generateController{service: service}
}

func (c *generateController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/generate")
	h.Post("", c.Generate)
	h.Post("/stream", c.Stream)
}

func (c *generateController) parse(ctx *fiber.Ctx) (*dto.GenerateRequest, error) {
	var req dto.GenerateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	req.ClientId = ctx.Get(constant.HeaderClientID)
	return &req, nil
}

func (c *generateController) Generate(ctx *fiber.Ctx) error {
	req, err := c.parse(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Generate(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *generateController) Stream(ctx *fiber.Ctx) error {
	req, err := c.parse(ctx)
	if err != nil {
		return err
	}

	sess, err := c.service.PrepareStream(ctx.UserContext(), req)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, constant.NDJSONContentType)
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set("X-Accel-Buffering", "no")

	// The fiber ctx is recycled once the handler returns; the writer only
	// uses values captured here.
	parent := ctx.UserContext()
	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		runCtx, cancel := detachedContext(parent)
		defer cancel()

		_, _ = c.service.Stream(runCtx, w, sess, req)
	})
	return nil
}

// detachedContext outlives the request but keeps its trace so pipeline spans
// stay children of the otelfiber span.
func detachedContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.Background()
	if sc := trace.SpanContextFromContext(parent); sc.IsValid() {
		ctx = trace.ContextWithSpanContext(ctx, sc)
	}
	return context.WithCancel(ctx)
}
