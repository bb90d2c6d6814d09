// Package services contains server-side business logic. This file implements
// IdentityService, which sequences the account lifecycle flows: sign-up,
// email verification, password reset, and sign-in with bearer token issuance.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmarenkov/screenid/internal/common"
	"github.com/dmarenkov/screenid/internal/dbx"
	"github.com/dmarenkov/screenid/internal/hashx"
	"github.com/dmarenkov/screenid/internal/logging"
	"github.com/dmarenkov/screenid/internal/mailer"
	"github.com/dmarenkov/screenid/internal/server/auth"
	"github.com/dmarenkov/screenid/internal/server/config"
	"github.com/dmarenkov/screenid/internal/server/models"
	"github.com/dmarenkov/screenid/internal/server/repositories/repomanager"
	"github.com/dmarenkov/screenid/internal/shared"
)

// resetTokenBytes is the entropy of a password reset token before hex
// encoding. Reset tokens travel as link parameters, so they can be long.
const resetTokenBytes = 30

// PublicProfile is the externally visible slice of a user record. It never
// carries the password hash or any token material.
type PublicProfile struct {
	ID         string
	Name       string
	Email      string
	Role       string
	IsVerified bool
}

// AuthResult bundles a public profile with a freshly minted bearer assertion.
type AuthResult struct {
	Profile      PublicProfile
	SessionToken string
}

// IdentityService provides the account lifecycle operations:
// - SignUp: create users and trigger email verification
// - VerifyEmail / ResendVerification: one-time code handling
// - ForgotPassword / ValidateResetToken / ResetPassword: reset flow
// - SignIn: verify credentials and mint a session token
type IdentityService struct {
	db              *sql.DB
	repos           repomanager.RepositoryManager
	sender          mailer.Sender
	logger          logging.Logger
	jwtSecret       []byte
	sessionValidity time.Duration
	verificationTTL time.Duration
	resetTTL        time.Duration
	resetBaseURL    string
}

// NewIdentityService constructs an IdentityService using repositories,
// a notification sender, and server config.
func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, sender mailer.Sender, l logging.Logger, cfg *config.Config) *IdentityService {
	return &IdentityService{
		db:              db,
		repos:           m,
		sender:          sender,
		logger:          l.With("module", "identity_service"),
		jwtSecret:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionTokenValidityDuration,
		verificationTTL: cfg.VerificationTokenTTL,
		resetTTL:        cfg.ResetTokenTTL,
		resetBaseURL:    cfg.ResetPasswordBaseURL,
	}
}

// SignUp creates a new unverified user, issues a verification OTP, and
// triggers the verification mail. Returns common.ErrorEmailTaken when the
// email is already registered.
func (s *IdentityService) SignUp(ctx context.Context, name, email, password string) (*PublicProfile, error) {
	email = normalizeEmail(email)

	passwordHash, err := hashx.Hash(password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	user, err := s.repos.Users(s.db).Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, common.ErrorEmailTaken) {
			return nil, common.ErrorEmailTaken
		}
		s.logger.Error(ctx, "user creation failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	if err := s.issueVerification(ctx, user); err != nil {
		// The user record exists; surfacing the issuance failure lets the
		// caller retry via ResendVerification.
		return nil, err
	}

	return publicProfile(user), nil
}

// VerifyEmail checks the submitted OTP against the live verification token
// and, on match, flips the user to verified, consumes the token, sends the
// welcome mail, and issues a session token. This is the only path from
// unverified to verified.
func (s *IdentityService) VerifyEmail(ctx context.Context, userID, otp string) (*AuthResult, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, common.ErrorAlreadyVerified
	}

	token, err := s.repos.VerificationTokens(s.db).FindLive(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "verification token lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	if !hashx.Verify(otp, token.TokenHash) {
		// Token stays in place; the user may retry until it expires.
		return nil, common.ErrorInvalidOTP
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Users(tx).MarkVerified(ctx, userID); err != nil {
			return err
		}
		return s.repos.VerificationTokens(tx).Delete(ctx, userID)
	})
	if err != nil {
		s.logger.Error(ctx, "verification commit failed", "error", err.Error())
		return nil, common.ErrorInternal
	}
	user.IsVerified = true

	s.notify(ctx, mailer.WelcomeMessage(user.Email))

	return s.authResult(ctx, user)
}

// ResendVerification issues a fresh OTP for an unverified user. While a live
// token exists the request is rejected with common.ErrorTokenCooldown; the
// caller has to wait out the TTL.
func (s *IdentityService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return common.ErrorAlreadyVerified
	}

	return s.issueVerification(ctx, user)
}

// ForgotPassword issues a password reset token for the account with the given
// email and mails a reset link carrying the plaintext token and the owner id.
func (s *IdentityService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "error", err.Error())
		return common.ErrorInternal
	}

	plain, err := shared.MakeRandHexString(resetTokenBytes)
	if err != nil {
		s.logger.Error(ctx, "reset token generation failed", "error", err.Error())
		return common.ErrorInternal
	}
	tokenHash, err := hashx.Hash(plain)
	if err != nil {
		s.logger.Error(ctx, "reset token hashing failed", "error", err.Error())
		return common.ErrorInternal
	}

	if _, err := s.repos.PasswordResetTokens(s.db).Create(ctx, user.ID, tokenHash, s.resetTTL); err != nil {
		if errors.Is(err, common.ErrorTokenCooldown) {
			return common.ErrorTokenCooldown
		}
		s.logger.Error(ctx, "reset token creation failed", "error", err.Error())
		return common.ErrorInternal
	}

	resetURL := fmt.Sprintf("%s?token=%s&id=%s", s.resetBaseURL, plain, user.ID)
	s.notify(ctx, mailer.ResetLinkMessage(user.Email, resetURL))

	return nil
}

// ValidateResetToken is the side-effect-free check gating the reset form:
// a live token must exist for the owner and the candidate must match its
// hash. Absent or expired tokens yield common.ErrorNotFound, a mismatch
// yields common.ErrorInvalidResetToken.
func (s *IdentityService) ValidateResetToken(ctx context.Context, userID, candidate string) (*models.PasswordResetToken, error) {
	token, err := s.repos.PasswordResetTokens(s.db).FindLive(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "reset token lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	if !hashx.Verify(candidate, token.TokenHash) {
		return nil, common.ErrorInvalidResetToken
	}

	return token, nil
}

// ResetPassword replaces the user's password and consumes the validated reset
// token. The caller must have run ValidateResetToken for this request; token
// is the record that check returned. The new password must differ from the
// current one, checked before any mutation.
func (s *IdentityService) ResetPassword(ctx context.Context, userID, newPassword string, token *models.PasswordResetToken) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if hashx.Verify(newPassword, user.PasswordHash) {
		return common.ErrorSamePassword
	}

	newHash, err := hashx.Hash(newPassword)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "error", err.Error())
		return common.ErrorInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Users(tx).UpdatePassword(ctx, userID, newHash); err != nil {
			return err
		}
		return s.repos.PasswordResetTokens(tx).DeleteByID(ctx, token.ID)
	})
	if err != nil {
		s.logger.Error(ctx, "password reset commit failed", "error", err.Error())
		return common.ErrorInternal
	}

	s.notify(ctx, mailer.ResetConfirmationMessage(user.Email))

	return nil
}

// SignIn verifies the email/password pair and mints a session token. The
// error is the same common.ErrorUnauthorized whether the email is unknown or
// the password is wrong. Sign-in does not require a verified account.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	if !hashx.Verify(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	return s.authResult(ctx, user)
}

// Profile resolves a user id to its public profile. Used by the request
// authentication middleware after a session token has been verified.
func (s *IdentityService) Profile(ctx context.Context, userID string) (*PublicProfile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return publicProfile(user), nil
}

// --- helpers below ---

func (s *IdentityService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repos.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "error", err.Error())
		return nil, common.ErrorInternal
	}
	return user, nil
}

// issueVerification mints an OTP, stores its hash, and mails the plaintext.
// A live token for the owner makes it fail with common.ErrorTokenCooldown.
func (s *IdentityService) issueVerification(ctx context.Context, user *models.User) error {
	otp, err := shared.MakeOTP()
	if err != nil {
		s.logger.Error(ctx, "otp generation failed", "error", err.Error())
		return common.ErrorInternal
	}
	otpHash, err := hashx.Hash(otp)
	if err != nil {
		s.logger.Error(ctx, "otp hashing failed", "error", err.Error())
		return common.ErrorInternal
	}

	if _, err := s.repos.VerificationTokens(s.db).Create(ctx, user.ID, otpHash, s.verificationTTL); err != nil {
		if errors.Is(err, common.ErrorTokenCooldown) {
			return common.ErrorTokenCooldown
		}
		s.logger.Error(ctx, "verification token creation failed", "error", err.Error())
		return common.ErrorInternal
	}

	s.notify(ctx, mailer.VerificationMessage(user.Email, otp))
	return nil
}

// notify delivers a message best-effort. A failure is logged and swallowed:
// the state transition that triggered the mail has already committed and must
// not be rolled back.
func (s *IdentityService) notify(ctx context.Context, msg mailer.Message) {
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error(ctx, "notification delivery failed",
			"to", msg.To, "subject", msg.Subject, "error", err.Error())
	}
}

func (s *IdentityService) authResult(ctx context.Context, user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.sessionValidity)
	if err != nil {
		s.logger.Error(ctx, "session token generation failed", "error", err.Error())
		return nil, common.ErrorInternal
	}
	return &AuthResult{Profile: *publicProfile(user), SessionToken: token}, nil
}

func publicProfile(user *models.User) *PublicProfile {
	return &PublicProfile{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		IsVerified: user.IsVerified,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
