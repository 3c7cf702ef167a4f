package handlers

import (
	"errors"

	apperrors "walletledger/internal/errors"
	"walletledger/internal/utils"
	"walletledger/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// statusFor maps a domain error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case apperrors.CodeWalletNotFound, apperrors.CodeEntryNotFound:
		return fiber.StatusNotFound
	case apperrors.CodeWalletNotTransactable:
		return fiber.StatusLocked
	case apperrors.CodeInsufficientFunds, apperrors.CodeLimitExceeded, apperrors.CodeCurrencyMismatch:
		return fiber.StatusUnprocessableEntity
	case apperrors.CodeNonZeroBalance, apperrors.CodeInvalidStatusTransition, apperrors.CodeAlreadyReversed:
		return fiber.StatusConflict
	case apperrors.CodeInvalidOperation:
		return fiber.StatusBadRequest
	case apperrors.CodeConcurrencyConflict:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as a JSON error body. Server side failures are
// logged and their details withheld from the client.
func respondError(c *fiber.Ctx, log *logrus.Logger, err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return utils.ValidationFailed(c, verrs)
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return utils.Respond(c, ferr.Code, fiber.Map{"error": ferr.Message})
	}

	de, ok := apperrors.As(err)
	if !ok {
		log.WithError(err).WithField("path", c.Path()).Error("unhandled request error")
		return utils.InternalError(c, "internal error")
	}

	status := statusFor(de.Code)
	switch {
	case status == fiber.StatusServiceUnavailable:
		c.Set(fiber.HeaderRetryAfter, "1")
	case status >= fiber.StatusInternalServerError:
		log.WithError(err).WithFields(logrus.Fields{
			"path": c.Path(),
			"code": de.Code,
		}).Error("request failed")
		return utils.Error(c, status, de.Code, "internal error")
	}
	return utils.Error(c, status, de.Code, de.Message)
}
