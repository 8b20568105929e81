// AngelaMos | 2026
// entity.go

package credits

import "time"

// LedgerEntry is one journal row. Delta is signed: positive for topups
// and the signup bonus, negative for generation debits. The user's
// balance column stays authoritative; the journal exists for history.
type LedgerEntry struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Delta     int64     `db:"delta"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	ReasonSignupBonus = "signup_bonus"
	ReasonTopup       = "topup"
	ReasonImage       = "image_generation"
	ReasonModel       = "model_generation"
	ReasonFastModel   = "fast_model_generation"
)
