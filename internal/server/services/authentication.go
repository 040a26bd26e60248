package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/logging"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
)

// LoginResult is returned by a successful login. It never carries hashes.
type LoginResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      models.PublicUser `json:"user"`
}

// AuthService runs registration and login against the user directory and
// the session registry.
type AuthService struct {
	directory   *UserDirectory
	sessions    *SessionRegistry
	maxFailures int
	logger      logging.Logger
}

func NewAuthService(directory *UserDirectory, sessions *SessionRegistry, maxFailures int,
	logger logging.Logger) *AuthService {
	return &AuthService{
		directory:   directory,
		sessions:    sessions,
		maxFailures: maxFailures,
		logger:      logger.With("module", "auth"),
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	return s.directory.CreateUser(ctx, in)
}

// Login authenticates email and masterPassword, checking code when the
// account has two-factor authentication enabled.
//
// An unknown email and a wrong password both yield
// common.ErrInvalidCredentials. A locked account is rejected before its
// password is checked. Only wrong master passwords count towards the lock.
func (s *AuthService) Login(ctx context.Context, email, masterPassword, code string) (*LoginResult, error) {
	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.directory.BurnHash(ctx, masterPassword)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.AccountLocked {
		s.logger.Warn(ctx, "login to locked account", "user_id", user.ID)
		return nil, common.ErrAccountLocked
	}

	ok, err := s.directory.VerifyMasterPassword(ctx, user, masterPassword)
	if err != nil {
		return nil, fmt.Errorf("verify master password: %w", err)
	}
	if !ok {
		if err := s.directory.IncrementFailedAttempts(ctx, user, s.maxFailures); err != nil {
			return nil, err
		}
		return nil, common.ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		if code == "" {
			return nil, common.ErrTwoFactorCodeRequired
		}
		valid, err := s.directory.VerifyTwoFactorCode(user, code, s.directory.Now())
		if err != nil {
			return nil, err
		}
		if !valid {
			s.logger.Warn(ctx, "invalid two-factor code", "user_id", user.ID)
			return nil, common.ErrInvalidTwoFactorCode
		}
	}

	if err := s.directory.ResetFailedAttempts(ctx, user.ID); err != nil {
		return nil, err
	}

	session, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "login succeeded", "user_id", user.ID)

	return &LoginResult{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      user.Public(),
	}, nil
}

// Logout ends the session behind token. It is idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// ValidateSession is the gate in front of every authenticated operation.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (string, error) {
	return s.sessions.Validate(ctx, token)
}
