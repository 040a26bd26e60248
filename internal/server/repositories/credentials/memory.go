package credentials

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*models.Credential
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*models.Credential)}
}

func clone(c *models.Credential) *models.Credential {
	out := *c
	out.EncryptedPassword = slices.Clone(c.EncryptedPassword)
	if c.ExpirationDate != nil {
		t := *c.ExpirationDate
		out.ExpirationDate = &t
	}
	return &out
}

func (r *MemoryRepository) Create(ctx context.Context, c *models.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[c.ID]; ok {
		return common.ErrorAlreadyExists
	}
	r.records[c.ID] = clone(c)
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.records[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(c), nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string) ([]*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Credential, 0)
	for _, c := range r.records {
		if c.UserID == userID {
			out = append(out, clone(c))
		}
	}
	slices.SortFunc(out, func(a, b *models.Credential) int {
		return cmp.Or(a.DateCreated.Compare(b.DateCreated), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, c *models.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[c.ID]; !ok {
		return common.ErrorNotFound
	}
	r.records[c.ID] = clone(c)
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.records, id)
	return nil
}
