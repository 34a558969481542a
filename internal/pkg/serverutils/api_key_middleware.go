package serverutils

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ramshaali/folio/internal/constant"
)

// Routes reachable without x-api-key.
var publicRoutes = map[string]bool{
	"/":                true,
	"/api/auth/status": true,
}

// KeyMatches compares a supplied key in constant time. An empty expected key
// matches nothing.
func KeyMatches(expected, supplied string) bool {
	if expected == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}

// isPublic ignores a trailing slash, as fiber's non-strict routing does.
func isPublic(path string) bool {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return publicRoutes[path]
}

func ApiKeyMiddleware(expected string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if ctx.Method() == fiber.MethodOptions || isPublic(ctx.Path()) {
			return ctx.Next()
		}
		if !KeyMatches(expected, ctx.Get(constant.HeaderAPIKey)) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or missing API key")
		}
		return ctx.Next()
	}
}
