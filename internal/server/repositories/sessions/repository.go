// Package sessions stores issued session tokens.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/safepazz/internal/server/models"
)

type Repository interface {
	// Create fails with common.ErrorAlreadyExists on a token collision.
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, token string) (*models.Session, error)
	// Delete removes the session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}
