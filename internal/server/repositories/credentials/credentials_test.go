package credentials

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/safepazz/internal/common"
	"github.com/dmitrijs2005/safepazz/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Repository = (*MemoryRepository)(nil)
var _ Repository = (*PostgresRepository)(nil)

var created = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func sample(id, userID string, offset time.Duration) *models.Credential {
	return &models.Credential{
		ID:                id,
		UserID:            userID,
		Title:             "Bank " + id,
		EncryptedPassword: []byte("sealed-" + id),
		Category:          common.DefaultCategory,
		DateCreated:       created.Add(offset),
		DateModified:      created.Add(offset),
	}
}

func TestMemory_CRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	c := sample("c1", "u1", 0)
	require.NoError(t, r.Create(ctx, c))
	assert.ErrorIs(t, r.Create(ctx, c), common.ErrorAlreadyExists)

	got, err := r.Get(ctx, "c1")
	require.NoError(t, err)
	if diff := cmp.Diff(c, got); diff != "" {
		t.Fatalf("stored credential mismatch (-want +got):\n%s", diff)
	}

	got.Title = "Changed"
	require.NoError(t, r.Update(ctx, got))
	again, err := r.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Changed", again.Title)

	require.NoError(t, r.Delete(ctx, "c1"))
	assert.ErrorIs(t, r.Delete(ctx, "c1"), common.ErrorNotFound)
	assert.ErrorIs(t, r.Update(ctx, got), common.ErrorNotFound)
	_, err = r.Get(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemory_ListByUser(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	require.NoError(t, r.Create(ctx, sample("b", "u1", time.Hour)))
	require.NoError(t, r.Create(ctx, sample("a", "u1", 2*time.Hour)))
	require.NoError(t, r.Create(ctx, sample("c", "u1", 0)))
	require.NoError(t, r.Create(ctx, sample("x", "u2", 0)))

	list, err := r.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})

	empty, err := r.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

const (
	insertQ = `(?s)^INSERT\s+INTO\s+credentials\s*\(id,.*is_favorite\)\s*VALUES\s*\(\$1,.*\$12\)$`
	getQ    = `(?s)^SELECT\s+id,\s*user_id,.*FROM\s+credentials\s+WHERE\s+id\s*=\s*\$1$`
	listQ   = `(?s)^SELECT\s+id,\s*user_id,.*FROM\s+credentials\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+date_created,\s*id$`
	updateQ = `(?s)^UPDATE\s+credentials\s+SET\s+title\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1$`
	deleteQ = `^DELETE\s+FROM\s+credentials\s+WHERE\s+id\s*=\s*\$1$`
)

var cols = []string{"id", "user_id", "title", "username", "encrypted_password", "url", "category", "notes",
	"date_created", "date_modified", "expiration_date", "is_favorite"}

func TestPostgres_Create(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	c := sample("c1", "u1", 0)

	mock.ExpectExec(insertQ).
		WithArgs("c1", "u1", c.Title, "", c.EncryptedPassword, "", "General", "", c.DateCreated, c.DateModified, nil, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), c))

	mock.ExpectExec(insertQ).WillReturnError(errors.New("boom"))
	assert.Error(t, repo.Create(context.Background(), c))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	exp := created.Add(48 * time.Hour)

	mock.ExpectQuery(getQ).WithArgs("c1").WillReturnRows(sqlmock.NewRows(cols).
		AddRow("c1", "u1", "Bank", "alice", []byte("sealed"), "https://bank.example", "Finance", "notes", created, created, exp, true))

	got, err := repo.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.IsFavorite)
	require.NotNil(t, got.ExpirationDate)
	assert.True(t, exp.Equal(*got.ExpirationDate))

	mock.ExpectQuery(getQ).WithArgs("none").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "none")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgres_ListByUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(listQ).WithArgs("u1").WillReturnRows(sqlmock.NewRows(cols).
		AddRow("c1", "u1", "A", "", []byte("s1"), "", "General", "", created, created, nil, false).
		AddRow("c2", "u1", "B", "", []byte("s2"), "", "General", "", created, created, nil, false))

	list, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Nil(t, list[0].ExpirationDate)
	assert.Equal(t, "c2", list[1].ID)

	mock.ExpectQuery(listQ).WithArgs("u1").WillReturnError(errors.New("boom"))
	_, err = repo.ListByUser(context.Background(), "u1")
	assert.Error(t, err)
}

func TestPostgres_UpdateAndDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	c := sample("c1", "u1", 0)

	mock.ExpectExec(updateQ).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), c))

	mock.ExpectExec(updateQ).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), c), common.ErrorNotFound)

	mock.ExpectExec(deleteQ).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "c1"))

	mock.ExpectExec(deleteQ).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "c1"), common.ErrorNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_MalformedIDIsNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	badID := &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}

	mock.ExpectQuery(getQ).WithArgs("not-a-uuid").WillReturnError(badID)
	_, err := repo.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	c := sample("not-a-uuid", "u1", 0)
	mock.ExpectExec(updateQ).WillReturnError(badID)
	assert.ErrorIs(t, repo.Update(context.Background(), c), common.ErrorNotFound)

	mock.ExpectExec(deleteQ).WithArgs("not-a-uuid").WillReturnError(badID)
	assert.ErrorIs(t, repo.Delete(context.Background(), "not-a-uuid"), common.ErrorNotFound)

	// other database errors are still reported as such
	mock.ExpectQuery(getQ).WithArgs("c1").WillReturnError(&pgconn.PgError{Code: "08006"})
	_, err = repo.Get(context.Background(), "c1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
