// AngelaMos | 2026
// repository.go

package credits

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/sculptor/internal/core"
)

type Repository interface {
	Record(
		ctx context.Context,
		userID, delta int64,
		reason string,
	) (*LedgerEntry, error)
	ListByUser(
		ctx context.Context,
		userID int64,
		limit, offset int,
	) ([]LedgerEntry, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Record(
	ctx context.Context,
	userID, delta int64,
	reason string,
) (*LedgerEntry, error) {
	query := `
		INSERT INTO ledger_entries (user_id, delta, reason)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, delta, reason, created_at`

	var entry LedgerEntry
	err := r.db.GetContext(ctx, &entry, query, userID, delta, reason)
	if err != nil {
		return nil, fmt.Errorf("record ledger entry: %w", err)
	}

	return &entry, nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID int64,
	limit, offset int,
) ([]LedgerEntry, error) {
	query := `
		SELECT id, user_id, delta, reason, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	entries := []LedgerEntry{}
	err := r.db.SelectContext(ctx, &entries, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}

	return entries, nil
}

func (r *repository) CountByUser(
	ctx context.Context,
	userID int64,
) (int64, error) {
	query := `SELECT COUNT(*) FROM ledger_entries WHERE user_id = $1`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}

	return count, nil
}
