// Package users stores SafePazz accounts. Implementations keep email unique
// and apply lockout counters atomically so concurrent logins cannot skip
// the lock threshold.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/server/models"
)

type Repository interface {
	// Create stores user under its ID, assigning a fresh one when empty. It
	// fails with common.ErrorAlreadyExists when the email or ID is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// RegisterFailedAttempt increments the failed attempt counter and locks
	// the account once it reaches threshold. It returns the new counter and
	// lock state.
	RegisterFailedAttempt(ctx context.Context, id string, threshold int) (int, bool, error)
	// RecordLogin resets the failed attempt counter and stamps the last
	// access time. A locked account is left untouched and yields
	// common.ErrAccountLocked.
	RecordLogin(ctx context.Context, id string, at time.Time) error
	// ResetCredentials replaces the master password hash and clears the
	// lockout state.
	ResetCredentials(ctx context.Context, id string, hash []byte) error
}
