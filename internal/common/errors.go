// Package common defines shared constants and sentinel errors used across
// the screenid service layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("email/password combination incorrect")

	// Identity lifecycle errors. The messages are user-facing and must not
	// reveal more than the flow contract allows.
	ErrorEmailTaken      = errors.New("this email is already used")
	ErrorAlreadyVerified = errors.New("user is already verified")
	ErrorTokenCooldown   = errors.New("you can request another token only after 1 hour")

	// Validation errors for submitted codes and tokens.
	ErrorInvalidOTP        = errors.New("please submit a valid OTP")
	ErrorInvalidResetToken = errors.New("unauthorized access, invalid token")
	ErrorSamePassword      = errors.New("the new password must be different from the old one")

	// Auth errors (invalid or malformed session token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
