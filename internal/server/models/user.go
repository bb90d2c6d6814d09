package models

import "time"

// User roles. Standard accounts are created on sign-up; admin accounts are
// provisioned out of band.
const (
	RoleStandard = "standard"
	RoleAdmin    = "admin"
)

// User is the persisted identity record. Email is stored case-normalized and
// is unique across all users. PasswordHash is the bcrypt hash of the account
// password; the plaintext is never stored.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsVerified   bool
	Role         string
	CreatedAt    time.Time
}
