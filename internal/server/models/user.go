// Package models defines the server-side records of SafePazz: users,
// sessions, recovery requests and stored credentials, plus the projections
// that are safe to hand to clients.
package models

import "time"

// User is an account together with its secret material. Hashes and the
// sealed TOTP secret never leave the server; use Public for client output.
type User struct {
	ID                 string
	Email              string
	MasterPasswordHash []byte
	SecurityQuestion   string
	SecurityAnswerHash []byte
	DateCreated        time.Time
	LastAccess         *time.Time
	FailedAttempts     int
	AccountLocked      bool
	TwoFactorEnabled   bool
	// TOTPSecret is the sealed authenticator secret; nil when two-factor
	// authentication is disabled.
	TOTPSecret        []byte
	Phone             *string
	InactivityTimeout int
}

// PublicUser is the projection of a User returned after login.
type PublicUser struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:               u.ID,
		Email:            u.Email,
		TwoFactorEnabled: u.TwoFactorEnabled,
	}
}
