package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/dbx"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectUser = `SELECT id, email, master_password_hash, security_question, security_answer_hash,
		date_created, last_access, failed_attempts, account_locked, two_factor_enabled,
		totp_secret, phone, inactivity_timeout
	FROM users`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.MasterPasswordHash, &u.SecurityQuestion, &u.SecurityAnswerHash,
		&u.DateCreated, &u.LastAccess, &u.FailedAttempts, &u.AccountLocked, &u.TwoFactorEnabled,
		&u.TOTPSecret, &u.Phone, &u.InactivityTimeout)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO users (id, email, master_password_hash, security_question, security_answer_hash,
			date_created, two_factor_enabled, totp_secret, phone, inactivity_timeout)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.MasterPasswordHash, user.SecurityQuestion, user.SecurityAnswerHash,
		user.DateCreated, user.TwoFactorEnabled, user.TOTPSecret, user.Phone, user.InactivityTimeout,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE email = $1`, email))
}

func (r *PostgresRepository) RegisterFailedAttempt(ctx context.Context, id string, threshold int) (int, bool, error) {
	query :=
		`UPDATE users
		 SET failed_attempts = failed_attempts + 1,
		     account_locked = account_locked OR failed_attempts + 1 >= $2
		 WHERE id = $1
		 RETURNING failed_attempts, account_locked`

	var (
		attempts int
		locked   bool
	)
	err := r.db.QueryRowContext(ctx, query, id, threshold).Scan(&attempts, &locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, common.ErrorNotFound
		}
		return 0, false, fmt.Errorf("db error: %w", err)
	}
	return attempts, locked, nil
}

func (r *PostgresRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	query :=
		`UPDATE users
		 SET failed_attempts = CASE WHEN account_locked THEN failed_attempts ELSE 0 END,
		     last_access = CASE WHEN account_locked THEN last_access ELSE $2 END
		 WHERE id = $1
		 RETURNING account_locked`

	var locked bool
	err := r.db.QueryRowContext(ctx, query, id, at).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	if locked {
		return common.ErrAccountLocked
	}
	return nil
}

func (r *PostgresRepository) ResetCredentials(ctx context.Context, id string, hash []byte) error {
	query :=
		`UPDATE users
		 SET master_password_hash = $2, failed_attempts = 0, account_locked = FALSE
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
