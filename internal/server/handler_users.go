package server

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/signetpay/payment-ledger-service/internal/auth"
	"github.com/signetpay/payment-ledger-service/internal/models"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
)

type userRequest struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Password  string      `json:"password"`
	Role      models.Role `json:"role"`
}

func (r userRequest) validate() error {
	if !usernamePattern.MatchString(r.Username) {
		return errors.New("username is invalid")
	}

	if !emailPattern.MatchString(r.Email) {
		return errors.New("invalid email format")
	}

	if r.Password == "" {
		return errors.New("password is required")
	}

	if r.Role != "" && r.Role != models.RoleUser && r.Role != models.RoleAdmin {
		return errors.New("unknown role")
	}

	return nil
}

type userWithAccounts struct {
	models.User
	Accounts []models.Account `json:"accounts"`
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.users.ListUsers(c.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list users")
		return internalServerError(c)
	}

	return c.JSON(users)
}

func (s *Server) handleGetUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid user id")
	}

	user, err := s.users.GetUserByID(c.Context(), userID)
	if errors.Is(err, models.ErrUserNotFound) {
		return writeError(c, fiber.StatusNotFound, err.Error())
	}

	if err != nil {
		s.log.Error().Err(err).Msg("failed to load user")
		return internalServerError(c)
	}

	accounts, err := s.users.GetUserAccounts(c.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load user accounts")
		return internalServerError(c)
	}

	return c.JSON(userWithAccounts{User: *user, Accounts: accounts})
}

func (s *Server) handleCreateUser(c *fiber.Ctx) error {
	var req userRequest

	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := req.validate(); err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := s.users.FindUserByCredentialsInUse(c.Context(), req.Username, req.Email); err != nil {
		if errors.Is(err, models.ErrUsernameTaken) || errors.Is(err, models.ErrEmailTaken) {
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}

		s.log.Error().Err(err).Msg("failed to check credentials")

		return internalServerError(c)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		return internalServerError(c)
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user, err := s.users.CreateUser(c.Context(), models.User{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, models.ErrUsernameTaken) || errors.Is(err, models.ErrEmailTaken) {
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}

		s.log.Error().Err(err).Msg("failed to create user")

		return internalServerError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (s *Server) handleUpdateUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid user id")
	}

	target, err := s.users.GetUserByID(c.Context(), userID)
	if errors.Is(err, models.ErrUserNotFound) {
		return writeError(c, fiber.StatusNotFound, err.Error())
	}

	if err != nil {
		s.log.Error().Err(err).Msg("failed to load user")
		return internalServerError(c)
	}

	if target.HasRole(models.RoleAdmin) {
		return writeError(c, fiber.StatusForbidden, "admin users cannot be updated")
	}

	var req userRequest

	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := req.validate(); err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		return internalServerError(c)
	}

	target.Username = req.Username
	target.Email = req.Email
	target.FirstName = req.FirstName
	target.LastName = req.LastName
	target.PasswordHash = hash

	if req.Role != "" {
		target.Role = req.Role
	}

	updated, err := s.users.UpdateUser(c.Context(), *target)
	if err != nil {
		if errors.Is(err, models.ErrUsernameTaken) || errors.Is(err, models.ErrEmailTaken) {
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}

		s.log.Error().Err(err).Msg("failed to update user")

		return internalServerError(c)
	}

	return c.JSON(updated)
}

func (s *Server) handleDeleteUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid user id")
	}

	target, err := s.users.GetUserByID(c.Context(), userID)
	if errors.Is(err, models.ErrUserNotFound) {
		return writeError(c, fiber.StatusNotFound, err.Error())
	}

	if err != nil {
		s.log.Error().Err(err).Msg("failed to load user")
		return internalServerError(c)
	}

	if target.HasRole(models.RoleAdmin) {
		return writeError(c, fiber.StatusForbidden, "admin users cannot be deleted")
	}

	if err := s.users.DeleteUser(c.Context(), userID); err != nil {
		s.log.Error().Err(err).Msg("failed to delete user")
		return internalServerError(c)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleGetMe(c *fiber.Ctx) error {
	return c.JSON(principal(c))
}

func (s *Server) handleGetMyAccounts(c *fiber.Ctx) error {
	p := principal(c)

	accounts, err := s.users.GetUserAccounts(c.Context(), p.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load accounts")
		return internalServerError(c)
	}

	if accounts == nil {
		accounts = []models.Account{}
	}

	return c.JSON(accounts)
}

func (s *Server) handleGetMyTransactions(c *fiber.Ctx) error {
	p := principal(c)

	txs, err := s.users.GetUserTransactions(c.Context(), p.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load transactions")
		return internalServerError(c)
	}

	if txs == nil {
		txs = []models.Transaction{}
	}

	return c.JSON(txs)
}
