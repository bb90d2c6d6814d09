package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dmarenkov/screenid/internal/common"
	"github.com/dmarenkov/screenid/internal/server/auth"
	"github.com/dmarenkov/screenid/internal/server/models"
	"github.com/dmarenkov/screenid/internal/server/services"
)

// Locals keys set by the middleware for downstream handlers.
const (
	localsProfile    = "profile"
	localsResetToken = "resetToken"
)

// requireAuth verifies the bearer token and resolves the caller's profile.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(common.AuthHeaderName)
	if !strings.HasPrefix(header, common.BearerSchemePrefix) {
		return writeError(c, fiber.StatusUnauthorized, KindUnauthorized, "Invalid token.")
	}
	raw := strings.TrimPrefix(header, common.BearerSchemePrefix)

	userID, err := auth.GetUserIDFromToken(raw, s.secret)
	if err != nil {
		return writeError(c, fiber.StatusUnauthorized, KindUnauthorized, "Invalid token.")
	}

	profile, err := s.identity.Profile(userContext(c), userID)
	if err != nil {
		return respondError(c, err)
	}

	c.Locals(localsProfile, profile)
	return c.Next()
}

// requireResetToken validates the token/userId pair in the request body and
// attaches the matching token record for the handler to consume.
func (s *Server) requireResetToken(c *fiber.Ctx) error {
	var body resetPasswordRequest
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "invalid request body")
	}
	if strings.TrimSpace(body.Token) == "" || body.UserID == "" {
		return validationError(c, "Invalid request.")
	}

	token, err := s.identity.ValidateResetToken(userContext(c), body.UserID, strings.TrimSpace(body.Token))
	if err != nil {
		return respondError(c, err)
	}

	c.Locals(localsResetToken, token)
	return c.Next()
}

// validateNewPassword rejects a malformed replacement password before the
// reset token is even looked at.
func (s *Server) validateNewPassword(c *fiber.Ctx) error {
	var body resetPasswordRequest
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "invalid request body")
	}
	if msg := checkPassword(body.NewPassword); msg != "" {
		return validationError(c, msg)
	}
	return c.Next()
}

func profileFromLocals(c *fiber.Ctx) (*services.PublicProfile, error) {
	profile, ok := c.Locals(localsProfile).(*services.PublicProfile)
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return profile, nil
}

func resetTokenFromLocals(c *fiber.Ctx) (*models.PasswordResetToken, error) {
	token, ok := c.Locals(localsResetToken).(*models.PasswordResetToken)
	if !ok {
		return nil, common.ErrorInternal
	}
	return token, nil
}
