package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dmarenkov/screenid/internal/common"
)

// Error kinds are the machine-checkable half of an error response. Clients
// branch on the kind; the message is for humans and may change.
const (
	KindConflict         = "conflict"
	KindNotFound         = "not_found"
	KindUnauthorized     = "unauthorized"
	KindValidationFailed = "validation_failed"
	KindInternal         = "internal"
)

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// respondError maps a domain error onto a status code, kind, and message.
// Anything unclassified is reported as an opaque internal error.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, common.ErrorEmailTaken),
		errors.Is(err, common.ErrorAlreadyVerified),
		errors.Is(err, common.ErrorTokenCooldown):
		return writeError(c, fiber.StatusConflict, KindConflict, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return writeError(c, fiber.StatusNotFound, KindNotFound, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		return writeError(c, fiber.StatusUnauthorized, KindUnauthorized, err.Error())
	case errors.Is(err, common.ErrorInvalidOTP),
		errors.Is(err, common.ErrorInvalidResetToken),
		errors.Is(err, common.ErrorSamePassword):
		return writeError(c, fiber.StatusBadRequest, KindValidationFailed, err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, KindInternal, "internal error")
	}
}

func validationError(c *fiber.Ctx, message string) error {
	return writeError(c, fiber.StatusBadRequest, KindValidationFailed, message)
}

func writeError(c *fiber.Ctx, status int, kind, message string) error {
	return c.Status(status).JSON(errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

func kindForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return KindValidationFailed
	case fiber.StatusUnauthorized:
		return KindUnauthorized
	case fiber.StatusNotFound:
		return KindNotFound
	case fiber.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}
