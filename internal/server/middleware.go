package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/signetpay/payment-ledger-service/internal/models"
)

const principalKey = "principal"

// requestLogger logs one line per request.
func requestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("http request")

		return err
	}
}

// authenticate resolves the bearer token to an active user and stores
// it as the request principal.
func (s *Server) authenticate(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return writeError(c, fiber.StatusUnauthorized, "missing bearer token")
	}

	userID, err := s.issuer.Parse(parts[1])
	if err != nil {
		return writeError(c, fiber.StatusUnauthorized, err.Error())
	}

	user, err := s.users.GetUserByID(c.Context(), userID)
	if err != nil || !user.IsActive {
		return writeError(c, fiber.StatusUnauthorized, "could not validate credentials")
	}

	c.Locals(principalKey, user)

	return c.Next()
}

// requireRole is an explicit capability check on the resolved
// principal.
func requireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := principal(c)
		if p == nil || !p.HasRole(role) {
			return writeError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		return c.Next()
	}
}

// principal returns the authenticated user for the request, or nil.
func principal(c *fiber.Ctx) *models.User {
	p, _ := c.Locals(principalKey).(*models.User)
	return p
}
