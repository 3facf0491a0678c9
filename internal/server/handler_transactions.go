package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/signetpay/payment-ledger-service/internal/models"
)

// handleIngestTransaction accepts a signed inbound transaction and
// maps each terminal outcome of the ingestion path to a status code:
//
//	201 applied          400 duplicate        403 bad signature
//	404 unknown user     422 overdraft        503 storage failure
func (s *Server) handleIngestTransaction(c *fiber.Ctx) error {
	var in models.InboundTransaction

	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid request body")
	}

	receipt, err := s.ledger.IngestTransaction(c.Context(), in)

	switch {
	case err == nil:
		return c.Status(fiber.StatusCreated).JSON(receipt)

	case errors.Is(err, models.ErrInvalidSignature):
		return writeError(c, fiber.StatusForbidden, err.Error())

	case errors.Is(err, models.ErrDuplicateTransaction):
		return writeError(c, fiber.StatusBadRequest, err.Error())

	case errors.Is(err, models.ErrUnknownUser):
		return writeError(c, fiber.StatusNotFound, err.Error())

	case errors.Is(err, models.ErrInsufficientFunds):
		return writeError(c, fiber.StatusUnprocessableEntity, err.Error())

	default:
		s.log.Error().Err(err).
			Str("transaction_id", in.TransactionID.String()).
			Msg("transaction ingestion failed")

		return serviceUnavailable(c)
	}
}
