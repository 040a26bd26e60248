package users

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. Records are copied on the
// way in and out so callers never share state with the store.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func clone(u *models.User) *models.User {
	c := *u
	c.MasterPasswordHash = slices.Clone(u.MasterPasswordHash)
	c.SecurityAnswerHash = slices.Clone(u.SecurityAnswerHash)
	c.TOTPSecret = slices.Clone(u.TOTPSecret)
	if u.LastAccess != nil {
		t := *u.LastAccess
		c.LastAccess = &t
	}
	if u.Phone != nil {
		p := *u.Phone
		c.Phone = &p
	}
	return &c
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := r.byID[user.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}

	r.byID[user.ID] = clone(user)
	r.byEmail[user.Email] = user.ID
	return user, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) RegisterFailedAttempt(ctx context.Context, id string, threshold int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return 0, false, common.ErrorNotFound
	}
	u.FailedAttempts++
	if u.FailedAttempts >= threshold {
		u.AccountLocked = true
	}
	return u.FailedAttempts, u.AccountLocked, nil
}

func (r *MemoryRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	if u.AccountLocked {
		return common.ErrAccountLocked
	}
	u.FailedAttempts = 0
	u.LastAccess = &at
	return nil
}

func (r *MemoryRepository) ResetCredentials(ctx context.Context, id string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.MasterPasswordHash = slices.Clone(hash)
	u.FailedAttempts = 0
	u.AccountLocked = false
	return nil
}
