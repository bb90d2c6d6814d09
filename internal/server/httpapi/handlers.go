package httpapi

import (
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dmarenkov/screenid/internal/server/services"
)

const (
	passwordMinLen = 8
	passwordMaxLen = 20
)

type createRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"OTP"`
}

type resendVerificationRequest struct {
	UserID string `json:"userId"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	UserID      string `json:"userId"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// userPayload is the public view of a user in responses. Token is only set
// on flows that mint a session.
type userPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
	Token      string `json:"token,omitempty"`
}

func profilePayload(p *services.PublicProfile) userPayload {
	return userPayload{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Role:       p.Role,
		IsVerified: p.IsVerified,
	}
}

func authPayload(r *services.AuthResult) userPayload {
	p := profilePayload(&r.Profile)
	p.Token = r.SessionToken
	return p
}

func (s *Server) handleCreate(c *fiber.Ctx) error {
	var body createRequest
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "invalid request body")
	}

	if strings.TrimSpace(body.Name) == "" {
		return validationError(c, "Name is missing.")
	}
	if _, err := mail.ParseAddress(body.Email); err != nil {
		return validationError(c, "Email is invalid.")
	}
	if msg := checkPassword(body.Password); msg != "" {
		return validationError(c, msg)
	}

	profile, err := s.identity.SignUp(userContext(c), strings.TrimSpace(body.Name), body.Email, strings.TrimSpace(body.Password))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": profilePayload(profile)})
}

func (s *Server) handleSignIn(c *fiber.Ctx) error {
	var body signInRequest
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "invalid request body")
	}

	if _, err := mail.ParseAddress(body.Email); err != nil {
		return validationError(c, "Email is invalid.")
	}
	if strings.TrimSpace(body.Password) == "" {
		return validationError(c, "Password is missing.")
	}

	result, err := s.identity.SignIn(userContext(c), body.Email, strings.TrimSpace(body.Password))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"user": authPayload(result)})
}

func (s *Server) handleVerifyEmail(c *fiber.Ctx) error {
	var body verifyEmailRequest
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "invalid request body")
	}
	if body.UserID == "" {
		return validationError(c, "Invalid user.")
	}

	result, err := s.identity.VerifyEmail(userContext(c), body.UserID, strings.TrimSpace(body.OTP))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":    authPayload(result),
		"message": "Your email is verified.",
	})
}

func (s *Server) handleResendVerification(c *fiber.Ctx) error {
	var body resendVerificationRequest
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "invalid request body")
	}
	if body.UserID == "" {
		return validationError(c, "Invalid user.")
	}

	if err := s.identity.ResendVerification(userContext(c), body.UserID); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Please verify your email. A new OTP has been sent to your email address.",
	})
}

func (s *Server) handleForgotPassword(c *fiber.Ctx) error {
	var body forgotPasswordRequest
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "invalid request body")
	}
	if strings.TrimSpace(body.Email) == "" {
		return validationError(c, "Email is missing.")
	}

	if err := s.identity.ForgotPassword(userContext(c), body.Email); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Please verify your email. We sent you a link to reset your password.",
	})
}

// handleResetTokenStatus reports the verdict of the reset-token middleware;
// reaching it means the token checked out.
func (s *Server) handleResetTokenStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"valid": true})
}

func (s *Server) handleResetPassword(c *fiber.Ctx) error {
	var body resetPasswordRequest
	if err := c.BodyParser(&body); err != nil {
		return validationError(c, "invalid request body")
	}

	token, err := resetTokenFromLocals(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.identity.ResetPassword(userContext(c), body.UserID, strings.TrimSpace(body.NewPassword), token); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Password reset successfully, now you can login with your new password.",
	})
}

func (s *Server) handleIsAuth(c *fiber.Ctx) error {
	profile, err := profileFromLocals(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": profilePayload(profile)})
}

func checkPassword(password string) string {
	password = strings.TrimSpace(password)
	if password == "" {
		return "Password is missing."
	}
	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		return "Password must be between 8 and 20 characters long."
	}
	return ""
}
