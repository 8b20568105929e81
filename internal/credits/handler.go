// AngelaMos | 2026
// handler.go

package credits

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/sculptor/internal/core"
	"github.com/carterperez-dev/sculptor/internal/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handler struct {
	ledger    *Ledger
	gate      *Gate
	validator *validator.Validate
}

func NewHandler(ledger *Ledger, gate *Gate) *Handler {
	return &Handler{
		ledger:    ledger,
		gate:      gate,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/credits", func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/", h.GetBalance)
		r.Post("/topup", h.Topup)
		r.Get("/history", h.GetHistory)
	})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	balance, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, BalanceResponse{Balance: balance})
}

func (h *Handler) Topup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	var req TopupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	balance, err := h.gate.Topup(r.Context(), userID, req.PaymentPassword)
	if err != nil {
		if core.IsAppError(err) {
			core.JSONError(w, err)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, TopupResponse{Added: h.gate.amount, Balance: balance})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		core.Unauthorized(w, "")
		return
	}

	page, pageSize := parsePagination(r)

	entries, total, err := h.ledger.History(
		r.Context(),
		userID,
		pageSize,
		(page-1)*pageSize,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, toLedgerEntryResponses(entries), page, pageSize, int(total))
}

func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = defaultPageSize

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxPageSize {
			pageSize = n
		}
	}

	return page, pageSize
}
