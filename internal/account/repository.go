// AngelaMos | 2026
// repository.go

package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/sculptor/internal/core"
)

type Repository interface {
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	SetCredits(ctx context.Context, id, value int64) error
	SetPasswordHash(ctx context.Context, id int64, passwordHash string) error
	AddCredits(ctx context.Context, id, amount int64) error
	DeductCredits(ctx context.Context, id, amount int64) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Create inserts a new user. The signup bonus lives in the schema
// (credits defaults to 5) so a freshly created row is never observable
// with a zero balance.
func (r *repository) Create(
	ctx context.Context,
	username, passwordHash string,
) (*User, error) {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, credits, created_at, updated_at`

	var user User
	err := r.db.GetContext(ctx, &user, query, username, passwordHash)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT id, username, password_hash, credits, created_at, updated_at
		FROM users
		WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	query := `
		SELECT id, username, password_hash, credits, created_at, updated_at
		FROM users
		WHERE username = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by username: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return &user, nil
}

func (r *repository) SetCredits(ctx context.Context, id, value int64) error {
	if value < 0 {
		return fmt.Errorf("set credits: negative value: %w", core.ErrInvalidInput)
	}

	query := `
		UPDATE users
		SET credits = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("set credits: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set credits: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set credits: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) SetPasswordHash(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("set password hash: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) AddCredits(ctx context.Context, id, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("add credits: negative amount: %w", core.ErrInvalidInput)
	}

	query := `
		UPDATE users
		SET credits = credits + $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("add credits: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("add credits: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("add credits: %w", core.ErrNotFound)
	}

	return nil
}

// DeductCredits is the single invariant-preserving debit in the system.
// The balance check and the decrement happen in one statement, so two
// concurrent debits against the same user can never both succeed when
// only one is covered. Zero rows means either the user is missing or the
// balance was short; the follow-up read distinguishes the two.
func (r *repository) DeductCredits(
	ctx context.Context,
	id, amount int64,
) error {
	if amount < 0 {
		return fmt.Errorf(
			"deduct credits: negative amount: %w",
			core.ErrInvalidInput,
		)
	}

	query := `
		UPDATE users
		SET credits = credits - $2, updated_at = NOW()
		WHERE id = $1 AND credits >= $2`

	result, err := r.db.ExecContext(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("deduct credits: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deduct credits: %w", err)
	}

	if rows == 1 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return fmt.Errorf("deduct credits: %w", core.ErrNotFound)
	}

	return fmt.Errorf("deduct credits: %w", core.ErrInsufficientCredits)
}

func (r *repository) ExistsByUsername(
	ctx context.Context,
	username string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}

	return exists, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
