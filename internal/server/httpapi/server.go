// Package httpapi exposes the account lifecycle flows over HTTP. Routes,
// payload shapes, and status codes form the public contract of the service.
package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/dmarenkov/screenid/internal/logging"
	"github.com/dmarenkov/screenid/internal/server/config"
	"github.com/dmarenkov/screenid/internal/server/models"
	"github.com/dmarenkov/screenid/internal/server/services"
)

// Identity is the slice of the identity service the HTTP layer depends on.
type Identity interface {
	SignUp(ctx context.Context, name, email, password string) (*services.PublicProfile, error)
	VerifyEmail(ctx context.Context, userID, otp string) (*services.AuthResult, error)
	ResendVerification(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, email string) error
	ValidateResetToken(ctx context.Context, userID, candidate string) (*models.PasswordResetToken, error)
	ResetPassword(ctx context.Context, userID, newPassword string, token *models.PasswordResetToken) error
	SignIn(ctx context.Context, email, password string) (*services.AuthResult, error)
	Profile(ctx context.Context, userID string) (*services.PublicProfile, error)
}

// Server owns the fiber application and its route handlers.
type Server struct {
	app      *fiber.App
	identity Identity
	logger   logging.Logger
	addr     string
	secret   []byte
}

func NewServer(identity Identity, l logging.Logger, cfg *config.Config) *Server {
	s := &Server{
		identity: identity,
		logger:   l.With("module", "httpapi"),
		addr:     cfg.EndpointAddrHTTP,
		secret:   []byte(cfg.SecretKey),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	user := s.app.Group("/api/user")

	user.Post("/create", s.handleCreate)
	user.Post("/sign-in", s.handleSignIn)
	user.Post("/verify-email", s.handleVerifyEmail)
	user.Post("/resend-email-verification-token", s.handleResendVerification)
	user.Post("/forgot-password", s.handleForgotPassword)
	user.Post("/verify-password-reset-token", s.requireResetToken, s.handleResetTokenStatus)
	user.Post("/reset-password", s.validateNewPassword, s.requireResetToken, s.handleResetPassword)
	user.Get("/is-auth", s.requireAuth, s.handleIsAuth)
}

// Run blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Run() error {
	s.logger.Info(context.Background(), "http server starting", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler turns errors escaping a handler (including fiber's own
// routing errors) into the shared error payload shape.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return writeError(c, e.Code, kindForStatus(e.Code), e.Message)
	}
	return respondError(c, err)
}

func userContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
