// Package credentials stores the encrypted password records of SafePazz
// users. Ownership checks belong to the caller; the repository only keys
// records by ID and owner.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/safepazz/internal/server/models"
)

type Repository interface {
	// Create stores c under its caller-assigned ID.
	Create(ctx context.Context, c *models.Credential) error
	Get(ctx context.Context, id string) (*models.Credential, error)
	// ListByUser returns the user's records ordered by creation time.
	ListByUser(ctx context.Context, userID string) ([]*models.Credential, error)
	// Update replaces every mutable field of the stored record.
	Update(ctx context.Context, c *models.Credential) error
	Delete(ctx context.Context, id string) error
}
