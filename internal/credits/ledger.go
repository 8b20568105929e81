// AngelaMos | 2026
// ledger.go

package credits

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/sculptor/internal/account"
	"github.com/carterperez-dev/sculptor/internal/core"
)

// Ledger is the only path that moves credits. Each movement updates the
// balance and records a journal row in the same transaction, so the
// journal never disagrees with the balance column.
//
// Operations are not idempotent; callers invoke exactly one movement per
// logical action.
type Ledger struct {
	db *sqlx.DB
}

func NewLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Add(
	ctx context.Context,
	userID, amount int64,
	reason string,
) error {
	if amount <= 0 {
		return fmt.Errorf("ledger add: non-positive amount: %w", core.ErrInvalidInput)
	}

	return core.InTx(ctx, l.db, func(tx *sqlx.Tx) error {
		if err := account.NewRepository(tx).AddCredits(ctx, userID, amount); err != nil {
			return err
		}
		_, err := NewRepository(tx).Record(ctx, userID, amount, reason)
		return err
	})
}

// Deduct debits the balance if and only if it covers amount. A short
// balance surfaces core.ErrInsufficientCredits and writes nothing.
func (l *Ledger) Deduct(
	ctx context.Context,
	userID, amount int64,
	reason string,
) error {
	if amount <= 0 {
		return fmt.Errorf(
			"ledger deduct: non-positive amount: %w",
			core.ErrInvalidInput,
		)
	}

	return core.InTx(ctx, l.db, func(tx *sqlx.Tx) error {
		if err := account.NewRepository(tx).DeductCredits(ctx, userID, amount); err != nil {
			return err
		}
		_, err := NewRepository(tx).Record(ctx, userID, -amount, reason)
		return err
	})
}

// NoteBonus journals a credit movement that already happened outside the
// ledger. The only such movement is the signup bonus, which the schema
// grants as the default balance on insert.
func (l *Ledger) NoteBonus(
	ctx context.Context,
	userID, amount int64,
	reason string,
) error {
	_, err := NewRepository(l.db).Record(ctx, userID, amount, reason)
	return err
}

// Balance re-reads the store; it is never served from a session cache.
func (l *Ledger) Balance(ctx context.Context, userID int64) (int64, error) {
	user, err := account.NewRepository(l.db).GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Credits, nil
}

func (l *Ledger) History(
	ctx context.Context,
	userID int64,
	limit, offset int,
) ([]LedgerEntry, int64, error) {
	repo := NewRepository(l.db)

	entries, err := repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
