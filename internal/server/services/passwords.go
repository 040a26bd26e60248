package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/cryptox"
	"github.com/dmitrijs2005/safepazz/internal/logging"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
	"github.com/dmitrijs2005/safepazz/internal/server/policy"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/credentials"
	"github.com/google/uuid"
)

// PasswordService manages credential records. Every operation takes the
// caller's user id, as established by session validation, and only touches
// records owned by that user.
type PasswordService struct {
	repo   credentials.Repository
	sealer *cryptox.Sealer
	window time.Duration
	logger logging.Logger

	Now func() time.Time
}

func NewPasswordService(repo credentials.Repository, sealer *cryptox.Sealer, expiringSoon time.Duration,
	logger logging.Logger) *PasswordService {
	return &PasswordService{
		repo:   repo,
		sealer: sealer,
		window: expiringSoon,
		logger: logger.With("module", "passwords"),
		Now:    time.Now,
	}
}

// secretAAD binds a sealed secret to its owner and record.
func secretAAD(userID, id string) []byte {
	return []byte(userID + "|" + id)
}

// Create validates in, seals the secret and stores a new record.
func (s *PasswordService) Create(ctx context.Context, userID string, in models.CredentialInput) (string, error) {
	now := s.Now()
	if err := policy.CredentialInput(&in, now); err != nil {
		return "", err
	}

	c := &models.Credential{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      in.Title,
		Username:   in.Username,
		URL:        in.URL,
		Category:   in.Category,
		Notes:      in.Notes,
		IsFavorite: in.IsFavorite,

		DateCreated:  now,
		DateModified: now,
	}
	if c.Category == "" {
		c.Category = common.DefaultCategory
	}
	if in.ExpirationDate != nil && !in.ExpirationDate.IsZero() {
		exp := *in.ExpirationDate
		c.ExpirationDate = &exp
	}

	sealed, err := s.sealer.Seal([]byte(in.Password), secretAAD(userID, c.ID))
	if err != nil {
		return "", fmt.Errorf("seal secret: %w", err)
	}
	c.EncryptedPassword = sealed

	if err := s.repo.Create(ctx, c); err != nil {
		return "", fmt.Errorf("store credential: %w", err)
	}

	s.logger.Debug(ctx, "credential created", "user_id", userID, "credential_id", c.ID)
	return c.ID, nil
}

// List returns the user's records without secrets or notes.
func (s *PasswordService) List(ctx context.Context, userID string) ([]models.CredentialSummary, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	now := s.Now()
	out := make([]models.CredentialSummary, 0, len(records))
	for _, c := range records {
		out = append(out, c.Summary(now, s.window))
	}
	return out, nil
}

// owned loads record id and checks it belongs to userID. A missing record
// is reported before an ownership mismatch.
func (s *PasswordService) owned(ctx context.Context, id, userID string) (*models.Credential, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrPasswordNotFound
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if c.UserID != userID {
		s.logger.Warn(ctx, "credential access denied", "user_id", userID, "credential_id", id)
		return nil, common.ErrUnauthorized
	}
	return c, nil
}

// Get returns the full record with its decrypted secret.
func (s *PasswordService) Get(ctx context.Context, id, userID string) (*models.CredentialDetails, error) {
	c, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	plain, err := s.sealer.Open(c.EncryptedPassword, secretAAD(c.UserID, c.ID))
	if err != nil {
		return nil, fmt.Errorf("open secret: %w", err)
	}

	details := c.Details(string(plain))
	common.WipeByteArray(plain)
	return &details, nil
}

// Update applies the fields present in patch. Nothing is stored when any
// field is invalid, and DateModified only moves on success.
func (s *PasswordService) Update(ctx context.Context, id, userID string, patch models.CredentialPatch) error {
	c, err := s.owned(ctx, id, userID)
	if err != nil {
		return err
	}

	now := s.Now()
	if err := policy.CredentialPatch(&patch, now); err != nil {
		return err
	}

	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Username != nil {
		c.Username = *patch.Username
	}
	if patch.Password != nil {
		sealed, err := s.sealer.Seal([]byte(*patch.Password), secretAAD(c.UserID, c.ID))
		if err != nil {
			return fmt.Errorf("seal secret: %w", err)
		}
		c.EncryptedPassword = sealed
	}
	if patch.URL != nil {
		c.URL = *patch.URL
	}
	if patch.Category != nil {
		c.Category = *patch.Category
		if c.Category == "" {
			c.Category = common.DefaultCategory
		}
	}
	if patch.Notes != nil {
		c.Notes = *patch.Notes
	}
	if patch.ExpirationDate != nil {
		if patch.ExpirationDate.IsZero() {
			c.ExpirationDate = nil
		} else {
			exp := *patch.ExpirationDate
			c.ExpirationDate = &exp
		}
	}
	if patch.IsFavorite != nil {
		c.IsFavorite = *patch.IsFavorite
	}
	c.DateModified = now

	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrPasswordNotFound
		}
		return fmt.Errorf("update credential: %w", err)
	}
	return nil
}

// Delete removes the record. Deleting it again fails with
// common.ErrPasswordNotFound.
func (s *PasswordService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrPasswordNotFound
		}
		return fmt.Errorf("delete credential: %w", err)
	}
	s.logger.Debug(ctx, "credential deleted", "user_id", userID, "credential_id", id)
	return nil
}
