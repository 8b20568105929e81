// AngelaMos | 2026
// payment.go

package credits

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/carterperez-dev/sculptor/internal/config"
	"github.com/carterperez-dev/sculptor/internal/core"
)

// ErrInvalidPaymentPassword is returned verbatim to the client; the
// message is part of the API surface.
var ErrInvalidPaymentPassword = core.NewAppError(
	core.ErrUnauthorized,
	"Invalid payment password",
	http.StatusUnauthorized,
	"INVALID_PAYMENT_PASSWORD",
)

// Gate simulates a payment processor behind a single shared password.
// It is a stand-in for a real payment rail and must be replaced
// wholesale, not hardened, before production use.
type Gate struct {
	ledger   *Ledger
	password string
	amount   int64
}

func NewGate(ledger *Ledger, cfg config.CreditsConfig) *Gate {
	return &Gate{
		ledger:   ledger,
		password: cfg.PaymentPassword,
		amount:   cfg.TopupAmount,
	}
}

// Topup verifies the submitted password and credits the fixed topup
// amount. Verification is constant-time; a mismatch changes nothing.
func (g *Gate) Topup(
	ctx context.Context,
	userID int64,
	submitted string,
) (int64, error) {
	match := subtle.ConstantTimeCompare(
		[]byte(submitted),
		[]byte(g.password),
	) == 1
	if !match {
		return 0, ErrInvalidPaymentPassword
	}

	if err := g.ledger.Add(ctx, userID, g.amount, ReasonTopup); err != nil {
		return 0, err
	}

	return g.ledger.Balance(ctx, userID)
}
