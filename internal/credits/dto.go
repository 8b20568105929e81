// AngelaMos | 2026
// dto.go

package credits

import "time"

type TopupRequest struct {
	PaymentPassword string `json:"payment_password" validate:"required"`
}

type TopupResponse struct {
	Added   int64 `json:"added"`
	Balance int64 `json:"balance"`
}

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

type LedgerEntryResponse struct {
	ID        int64     `json:"id"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func toLedgerEntryResponses(entries []LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntryResponse{
			ID:        e.ID,
			Delta:     e.Delta,
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}
