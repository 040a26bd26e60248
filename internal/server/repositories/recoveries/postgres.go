package recoveries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/dbx"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, req *models.RecoveryRequest) error {
	query := `
		INSERT INTO recovery_requests (user_id, token, date_requested, date_expiration, ip_address, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		req.UserID, req.Token, req.DateRequested, req.DateExpiration, req.IPAddress, string(req.Status),
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.RecoveryRequest, error) {
	query := `
		SELECT id, user_id, token, date_requested, date_expiration, ip_address, status
		FROM recovery_requests
		WHERE token = $1
	`
	req := &models.RecoveryRequest{}
	var status string
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&req.ID, &req.UserID, &req.Token, &req.DateRequested, &req.DateExpiration, &req.IPAddress, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	req.Status = models.RecoveryStatus(status)
	return req, nil
}

// UpdateStatus is a compare-and-set on the status column. When no row
// matches, a second lookup tells a missing token from a lost race.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, token string, from, to models.RecoveryStatus) error {
	query := `
		UPDATE recovery_requests
		SET status = $3
		WHERE token = $1 AND status = $2
	`
	res, err := r.db.ExecContext(ctx, query, token, string(from), string(to))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := r.GetByToken(ctx, token); err != nil {
		return err
	}
	return common.ErrorStateConflict
}
