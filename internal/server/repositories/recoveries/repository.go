// Package recoveries stores password recovery requests keyed by their token.
package recoveries

import (
	"context"

	"github.com/dmitrijs2005/safepazz/internal/server/models"
)

type Repository interface {
	// Create stores req and assigns its ID.
	Create(ctx context.Context, req *models.RecoveryRequest) error
	GetByToken(ctx context.Context, token string) (*models.RecoveryRequest, error)
	// UpdateStatus moves the request from one status to another. It fails
	// with common.ErrorStateConflict when the current status is not from,
	// so each transition happens at most once.
	UpdateStatus(ctx context.Context, token string, from, to models.RecoveryStatus) error
}
