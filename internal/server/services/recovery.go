package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/logging"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
	"github.com/dmitrijs2005/safepazz/internal/server/policy"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/repomanager"
)

const recoveryTokenSize = 32

// VerifyRecoveryInput completes a password reset.
type VerifyRecoveryInput struct {
	Token                    string
	SecurityAnswer           string
	NewMasterPassword        string
	ConfirmNewMasterPassword string
}

// RecoveryService resets master passwords through a security question
// challenge bound to a single-use, time-limited token.
type RecoveryService struct {
	repos     repomanager.RepositoryManager
	directory *UserDirectory
	ttl       time.Duration
	logger    logging.Logger

	Now func() time.Time
}

func NewRecoveryService(repos repomanager.RepositoryManager, directory *UserDirectory, ttl time.Duration,
	logger logging.Logger) *RecoveryService {
	return &RecoveryService{
		repos:     repos,
		directory: directory,
		ttl:       ttl,
		logger:    logger.With("module", "recovery"),
		Now:       time.Now,
	}
}

// RequestRecovery opens a recovery window for the account behind email and
// returns its token. For an unknown email it returns a random token of the
// same shape without storing anything, so the answer does not reveal
// whether the account exists.
func (s *RecoveryService) RequestRecovery(ctx context.Context, email, ipAddress string) (string, error) {
	token, err := common.MakeRandHexString(recoveryTokenSize)
	if err != nil {
		return "", fmt.Errorf("generate recovery token: %w", err)
	}

	user, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "recovery requested for unknown email", "ip", ipAddress)
			return token, nil
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	now := s.Now()
	req := &models.RecoveryRequest{
		UserID:         user.ID,
		Token:          token,
		DateRequested:  now,
		DateExpiration: now.Add(s.ttl),
		IPAddress:      ipAddress,
		Status:         models.RecoveryPending,
	}
	if err := s.repos.Recoveries().Create(ctx, req); err != nil {
		return "", fmt.Errorf("store recovery request: %w", err)
	}

	s.logger.Info(ctx, "recovery requested", "user_id", user.ID, "ip", ipAddress)
	return token, nil
}

// VerifyRecovery checks the token and security answer and, on success,
// replaces the master password, unlocks the account and consumes the token.
//
// Missing, expired and already used tokens all fail with
// common.ErrInvalidOrExpiredToken.
func (s *RecoveryService) VerifyRecovery(ctx context.Context, in VerifyRecoveryInput) error {
	recoveries := s.repos.Recoveries()

	req, err := recoveries.GetByToken(ctx, in.Token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("load recovery request: %w", err)
	}

	if req.Expired(s.Now()) {
		err := recoveries.UpdateStatus(ctx, req.Token, models.RecoveryPending, models.RecoveryExpired)
		switch {
		case err == nil:
			s.logger.Info(ctx, "recovery token expired", "user_id", req.UserID)
		case !errors.Is(err, common.ErrorStateConflict):
			return fmt.Errorf("expire recovery request: %w", err)
		}
		return common.ErrInvalidOrExpiredToken
	}
	if req.Status.Terminal() {
		return common.ErrInvalidOrExpiredToken
	}

	user, err := s.directory.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	ok, err := s.directory.VerifySecurityAnswer(ctx, user, in.SecurityAnswer)
	if err != nil {
		return fmt.Errorf("verify security answer: %w", err)
	}
	if !ok {
		s.logger.Warn(ctx, "incorrect security answer", "user_id", user.ID)
		return common.ErrIncorrectSecurityAnswer
	}

	if err := policy.NewMasterPassword(in.NewMasterPassword, in.ConfirmNewMasterPassword); err != nil {
		return err
	}

	same, err := s.directory.VerifyMasterPassword(ctx, user, in.NewMasterPassword)
	if err != nil {
		return fmt.Errorf("compare with current password: %w", err)
	}
	if same {
		return common.ErrNewPasswordCannotBeSameAsOld
	}

	hash, err := s.directory.HashMasterPassword(ctx, in.NewMasterPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	err = s.repos.Atomic(ctx, func(r repomanager.Repositories) error {
		err := r.Recoveries.UpdateStatus(ctx, req.Token, models.RecoveryPending, models.RecoveryCompleted)
		if err != nil {
			if errors.Is(err, common.ErrorStateConflict) {
				return common.ErrInvalidOrExpiredToken
			}
			return fmt.Errorf("complete recovery request: %w", err)
		}
		if err := r.Users.ResetCredentials(ctx, user.ID, hash); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrUserNotFound
			}
			return fmt.Errorf("reset credentials: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "recovery completed", "user_id", user.ID)
	return nil
}
