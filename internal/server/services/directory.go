// Package services implements the SafePazz core: the user directory, the
// session registry, authentication, password recovery and the credential
// vault. The HTTP layer only adapts these operations.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/cryptox"
	"github.com/dmitrijs2005/safepazz/internal/logging"
	"github.com/dmitrijs2005/safepazz/internal/server/auth"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
	"github.com/dmitrijs2005/safepazz/internal/server/policy"
	"github.com/dmitrijs2005/safepazz/internal/server/repositories/users"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RegisterInput is a registration request as received from a client.
type RegisterInput struct {
	Email                 string
	MasterPassword        string
	ConfirmMasterPassword string
	SecurityQuestion      string
	SecurityAnswer        string
	TwoFactorEnabled      bool
	Phone                 *string
	InactivityTimeout     *int
}

// RegisterResult holds the new user id and, when two-factor authentication
// was requested, the provisioning URI for an authenticator app. The URI is
// only ever returned here.
type RegisterResult struct {
	ID      string `json:"id"`
	TOTPURI string `json:"totpUri,omitempty"`
}

// UserDirectory owns user accounts: creation, lookup, lockout counters and
// verification of the secrets stored with each account.
type UserDirectory struct {
	users  users.Repository
	hasher *cryptox.Hasher
	sealer *cryptox.Sealer
	otp    auth.TwoFactorVerifier
	logger logging.Logger

	Now func() time.Time
}

func NewUserDirectory(repo users.Repository, hasher *cryptox.Hasher, sealer *cryptox.Sealer,
	otp auth.TwoFactorVerifier, logger logging.Logger) *UserDirectory {
	return &UserDirectory{
		users:  repo,
		hasher: hasher,
		sealer: sealer,
		otp:    otp,
		logger: logger.With("module", "directory"),
		Now:    time.Now,
	}
}

func totpAAD(userID string) []byte {
	return []byte("totp|" + userID)
}

// CreateUser validates in, hashes the master password and the lower-cased
// security answer, and stores the account. Checks run in a fixed order and
// the first failure is returned.
func (d *UserDirectory) CreateUser(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if err := policy.Email(in.Email); err != nil {
		return nil, err
	}

	switch _, err := d.users.GetByEmail(ctx, in.Email); {
	case err == nil:
		return nil, common.ErrEmailAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if err := policy.NewMasterPassword(in.MasterPassword, in.ConfirmMasterPassword); err != nil {
		return nil, err
	}
	if in.MasterPassword == in.Email {
		return nil, common.ErrMasterPasswordCannotBeEmail
	}
	if err := policy.SecurityQuestion(in.SecurityQuestion); err != nil {
		return nil, err
	}
	if err := policy.SecurityAnswer(in.SecurityAnswer); err != nil {
		return nil, err
	}
	if err := policy.Phone(in.TwoFactorEnabled, in.Phone); err != nil {
		return nil, err
	}
	timeout, err := policy.InactivityTimeout(in.InactivityTimeout)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:                uuid.NewString(),
		Email:             in.Email,
		SecurityQuestion:  in.SecurityQuestion,
		DateCreated:       d.Now(),
		TwoFactorEnabled:  in.TwoFactorEnabled,
		InactivityTimeout: timeout,
	}
	if in.Phone != nil && *in.Phone != "" {
		phone := *in.Phone
		user.Phone = &phone
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		user.MasterPasswordHash, err = d.hasher.Hash(gctx, in.MasterPassword)
		return err
	})
	g.Go(func() (err error) {
		user.SecurityAnswerHash, err = d.hasher.Hash(gctx, strings.ToLower(in.SecurityAnswer))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hash secrets: %w", err)
	}

	result := &RegisterResult{}
	if in.TwoFactorEnabled {
		secret, uri, err := d.otp.Enroll(in.Email)
		if err != nil {
			return nil, err
		}
		sealed, err := d.sealer.Seal([]byte(secret), totpAAD(user.ID))
		if err != nil {
			return nil, fmt.Errorf("seal totp secret: %w", err)
		}
		user.TOTPSecret = sealed
		result.TOTPURI = uri
	}

	if _, err := d.users.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	d.logger.Info(ctx, "user registered",
		"user_id", user.ID, "email", common.MaskEmail(user.Email), "two_factor", user.TwoFactorEnabled)

	result.ID = user.ID
	return result, nil
}

// FindByEmail returns the account registered under email, or
// common.ErrorNotFound.
func (d *UserDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return d.users.GetByEmail(ctx, email)
}

func (d *UserDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	return d.users.GetByID(ctx, id)
}

// IncrementFailedAttempts counts one wrong master password and locks the
// account once threshold is reached. The lock is only lifted by recovery.
func (d *UserDirectory) IncrementFailedAttempts(ctx context.Context, u *models.User, threshold int) error {
	attempts, locked, err := d.users.RegisterFailedAttempt(ctx, u.ID, threshold)
	if err != nil {
		return fmt.Errorf("register failed attempt: %w", err)
	}
	d.logger.Warn(ctx, "failed login", "user_id", u.ID, "attempts", attempts)
	if locked && attempts == threshold {
		d.logger.Warn(ctx, "account locked", "user_id", u.ID, "email", common.MaskEmail(u.Email))
	}
	return nil
}

// ResetFailedAttempts clears the counter after a successful login and
// stamps the access time.
func (d *UserDirectory) ResetFailedAttempts(ctx context.Context, id string) error {
	if err := d.users.RecordLogin(ctx, id, d.Now()); err != nil {
		if errors.Is(err, common.ErrAccountLocked) {
			return err
		}
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

// VerifyMasterPassword compares pw with the stored hash.
func (d *UserDirectory) VerifyMasterPassword(ctx context.Context, u *models.User, pw string) (bool, error) {
	return d.hasher.Compare(ctx, u.MasterPasswordHash, pw)
}

// VerifySecurityAnswer compares the lower-cased answer with the stored hash.
func (d *UserDirectory) VerifySecurityAnswer(ctx context.Context, u *models.User, answer string) (bool, error) {
	return d.hasher.Compare(ctx, u.SecurityAnswerHash, strings.ToLower(answer))
}

// VerifyTwoFactorCode checks code against the account's TOTP secret.
func (d *UserDirectory) VerifyTwoFactorCode(u *models.User, code string, at time.Time) (bool, error) {
	if !auth.WellFormedCode(code) {
		return false, nil
	}
	secret, err := d.sealer.Open(u.TOTPSecret, totpAAD(u.ID))
	if err != nil {
		return false, fmt.Errorf("open totp secret: %w", err)
	}
	defer common.WipeByteArray(secret)
	return d.otp.Verify(string(secret), code, at), nil
}

// BurnHash spends the time of one hash comparison without an account, so
// callers can answer unknown emails as slowly as known ones.
func (d *UserDirectory) BurnHash(ctx context.Context, pw string) {
	d.hasher.CompareDummy(ctx, pw)
}

// HashMasterPassword hashes a new master password.
func (d *UserDirectory) HashMasterPassword(ctx context.Context, pw string) ([]byte, error) {
	return d.hasher.Hash(ctx, pw)
}
