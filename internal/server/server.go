// Package server exposes the payment ledger over HTTP. It maps domain
// outcomes to status codes; classification itself happens below.
package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/signetpay/payment-ledger-service/internal/auth"
	"github.com/signetpay/payment-ledger-service/internal/interfaces"
	"github.com/signetpay/payment-ledger-service/internal/ledger"
	"github.com/signetpay/payment-ledger-service/internal/models"
)

type Server struct {
	app    *fiber.App
	ledger *ledger.Ledger
	users  interfaces.UserStore
	issuer *auth.TokenIssuer
	log    zerolog.Logger
}

func New(l *ledger.Ledger, users interfaces.UserStore, issuer *auth.TokenIssuer, log zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:    app,
		ledger: l,
		users:  users,
		issuer: issuer,
		log:    log,
	}

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.app.Use(requestLogger(s.log))

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.app.Post("/auth/login", s.handleLogin)

	// Signed, not token-authenticated: trust comes from the shared
	// secret signature, checked first inside the orchestrator.
	s.app.Post("/transactions", s.handleIngestTransaction)

	users := s.app.Group("/users", s.authenticate)
	users.Get("/me", s.handleGetMe)
	users.Get("/me/accounts", s.handleGetMyAccounts)
	users.Get("/me/transactions", s.handleGetMyTransactions)

	adminOnly := requireRole(models.RoleAdmin)
	users.Get("/", adminOnly, s.handleListUsers)
	users.Post("/", adminOnly, s.handleCreateUser)
	users.Get("/:id", adminOnly, s.handleGetUser)
	users.Put("/:id", adminOnly, s.handleUpdateUser)
	users.Delete("/:id", adminOnly, s.handleDeleteUser)
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
