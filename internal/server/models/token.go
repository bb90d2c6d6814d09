package models

import "time"

// VerificationToken is a one-time email verification code bound to a single
// user. Only the bcrypt hash of the code is stored. At most one live token
// exists per owner; ExpiresAt is authoritative, a row past its expiry is
// treated as absent no matter when it is physically removed.
type VerificationToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// PasswordResetToken is a one-time password reset credential bound to a
// single user. Same storage and expiry contract as VerificationToken, but the
// plaintext is a long random hex string delivered as a link parameter rather
// than a short typed code.
type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}
