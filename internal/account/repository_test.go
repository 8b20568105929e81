// AngelaMos | 2026
// repository_test.go

package account

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/sculptor/internal/core"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() }) //nolint:errcheck // test cleanup

	return sqlx.NewDb(db, "sqlmock"), mock
}

func userRows(id int64, username string, credits int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "username", "password_hash", "credits", "created_at", "updated_at",
	}).AddRow(id, username, "$argon2id$hash", credits, now, now)
}

func TestCreateReturnsNewUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice", "$argon2id$hash").
		WillReturnRows(userRows(1, "alice", 5))

	user, err := repo.Create(context.Background(), "alice", "$argon2id$hash")
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, int64(5), user.Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), "alice", "hash")

	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeductCreditsSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs(int64(1), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeductCredits(context.Background(), 1, 3)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A debit that the balance does not cover matches zero rows; the
// follow-up read distinguishes a short balance from a missing user.
func TestDeductCreditsInsufficient(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs(int64(1), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username")).
		WithArgs(int64(1)).
		WillReturnRows(userRows(1, "alice", 2))

	err := repo.DeductCredits(context.Background(), 1, 3)

	assert.ErrorIs(t, err, core.ErrInsufficientCredits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeductCreditsMissingUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs(int64(42), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.DeductCredits(context.Background(), 42, 1)

	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeductCreditsRejectsNegativeAmount(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewRepository(db)

	err := repo.DeductCredits(context.Background(), 1, -5)

	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSetCreditsRejectsNegativeValue(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewRepository(db)

	err := repo.SetCredits(context.Background(), 1, -1)

	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestGetByUsernameNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByUsername(context.Background(), "ghost")

	assert.ErrorIs(t, err, core.ErrNotFound)
}
