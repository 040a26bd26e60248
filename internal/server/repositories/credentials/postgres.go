package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/dbx"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// invalidTextRepresentation is raised when an id is not a valid uuid.
const invalidTextRepresentation = "22P02"

// malformedID reports whether err was caused by an id the uuid column
// cannot hold. Such a record cannot exist.
func malformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectCredential = `SELECT id, user_id, title, username, encrypted_password, url, category, notes,
		date_created, date_modified, expiration_date, is_favorite
	FROM credentials`

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*models.Credential, error) {
	c := &models.Credential{}
	err := s.Scan(&c.ID, &c.UserID, &c.Title, &c.Username, &c.EncryptedPassword, &c.URL, &c.Category, &c.Notes,
		&c.DateCreated, &c.DateModified, &c.ExpirationDate, &c.IsFavorite)
	return c, err
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Credential) error {
	query :=
		`INSERT INTO credentials (id, user_id, title, username, encrypted_password, url, category, notes,
			date_created, date_modified, expiration_date, is_favorite)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.Title, c.Username, c.EncryptedPassword, c.URL, c.Category, c.Notes,
		c.DateCreated, c.DateModified, c.ExpirationDate, c.IsFavorite)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Credential, error) {
	c, err := scanCredential(r.db.QueryRowContext(ctx, selectCredential+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || malformedID(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Credential, error) {
	rows, err := r.db.QueryContext(ctx, selectCredential+` WHERE user_id = $1 ORDER BY date_created, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Credential, 0)
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Credential) error {
	query :=
		`UPDATE credentials
		 SET title = $2, username = $3, encrypted_password = $4, url = $5, category = $6, notes = $7,
		     date_modified = $8, expiration_date = $9, is_favorite = $10
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		c.ID, c.Title, c.Username, c.EncryptedPassword, c.URL, c.Category, c.Notes,
		c.DateModified, c.ExpirationDate, c.IsFavorite)
	if err != nil {
		if malformedID(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		if malformedID(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
