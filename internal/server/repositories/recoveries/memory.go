package recoveries

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu      sync.Mutex
	byToken map[string]models.RecoveryRequest
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byToken: make(map[string]models.RecoveryRequest)}
}

func (r *MemoryRepository) Create(ctx context.Context, req *models.RecoveryRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[req.Token]; ok {
		return common.ErrorAlreadyExists
	}
	req.ID = uuid.NewString()
	r.byToken[req.Token] = *req
	return nil
}

func (r *MemoryRepository) GetByToken(ctx context.Context, token string) (*models.RecoveryRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &req, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, token string, from, to models.RecoveryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byToken[token]
	if !ok {
		return common.ErrorNotFound
	}
	if req.Status != from {
		return common.ErrorStateConflict
	}
	req.Status = to
	r.byToken[token] = req
	return nil
}
