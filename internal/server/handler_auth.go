package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/signetpay/payment-ledger-service/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest

	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := s.users.GetUserByEmail(c.Context(), req.Email)
	if err != nil || !user.IsActive || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		return writeError(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := s.issuer.Issue(*user)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to issue token")
		return internalServerError(c)
	}

	return c.JSON(loginResponse{AccessToken: token, TokenType: "Bearer"})
}
