package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/logging"
	"github.com/dmitrijs2005/safepazz/internal/server/auth"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/sessions"
)

// SessionRegistry issues and checks session tokens. A token is valid while
// its session is stored and not past ExpiresAt; expired sessions are
// removed when they are looked up.
type SessionRegistry struct {
	repo   sessions.Repository
	issuer *auth.TokenIssuer
	ttl    time.Duration
	logger logging.Logger

	Now func() time.Time
}

func NewSessionRegistry(repo sessions.Repository, issuer *auth.TokenIssuer, ttl time.Duration,
	logger logging.Logger) *SessionRegistry {
	return &SessionRegistry{
		repo:   repo,
		issuer: issuer,
		ttl:    ttl,
		logger: logger.With("module", "sessions"),
		Now:    time.Now,
	}
}

// Issue creates a session for userID lasting the configured TTL.
func (r *SessionRegistry) Issue(ctx context.Context, userID string) (*models.Session, error) {
	now := r.Now()
	s := &models.Session{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}

	token, err := r.issuer.Issue(userID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	s.Token = token

	if err := r.repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return s, nil
}

// Validate returns the user owning token. Unknown or forged tokens fail with
// common.ErrInvalidSession; an expired session is purged and fails with
// common.ErrSessionExpired.
func (r *SessionRegistry) Validate(ctx context.Context, token string) (string, error) {
	claims, err := r.issuer.Parse(token)
	if err != nil {
		return "", common.ErrInvalidSession
	}

	s, err := r.repo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidSession
		}
		return "", fmt.Errorf("load session: %w", err)
	}
	if s.UserID != claims.Subject {
		return "", common.ErrInvalidSession
	}

	if s.Expired(r.Now()) {
		if err := r.repo.Delete(ctx, token); err != nil {
			r.logger.Error(ctx, "failed to purge expired session", "user_id", s.UserID, "error", err)
		}
		return "", common.ErrSessionExpired
	}
	return s.UserID, nil
}

// Revoke removes the session. Revoking an unknown token succeeds.
func (r *SessionRegistry) Revoke(ctx context.Context, token string) error {
	if err := r.repo.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
