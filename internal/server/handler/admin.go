package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/updownlabs/updown/internal/domain"
)

// AdminService defines what the admin handler needs from the settlement
// engine.
type AdminService interface {
	SetOracleAddress(ctx context.Context, caller, oracle domain.Account) error
	SetMinimumStake(ctx context.Context, caller domain.Account, minimum int64) error
	SetFeePercentage(ctx context.Context, caller domain.Account, pct int64) error
	WithdrawFees(ctx context.Context, caller domain.Account, amount int64) (int64, error)
	OracleAddress(ctx context.Context) (domain.Account, error)
	MinimumStake(ctx context.Context) (int64, error)
	FeePercentage(ctx context.Context) (int64, error)
	ContractBalance(ctx context.Context) (int64, error)
}

// AdminHandler serves the guarded configuration endpoints.
type AdminHandler struct {
	engine AdminService
	audit  domain.AuditStore
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler. audit may be nil when no audit
// store is wired.
func NewAdminHandler(engine AdminService, audit domain.AuditStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{engine: engine, audit: audit, logger: logger}
}

type paramsResponse struct {
	Oracle        string `json:"oracle"`
	MinimumStake  int64  `json:"minimum_stake"`
	FeePercentage int64  `json:"fee_percentage"`
	Balance       int64  `json:"contract_balance"`
}

// GetParams returns the current protocol configuration and escrow balance.
// GET /api/params
func (h *AdminHandler) GetParams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	oracle, err := h.engine.OracleAddress(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read params")
		return
	}
	minStake, err := h.engine.MinimumStake(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read params")
		return
	}
	feePct, err := h.engine.FeePercentage(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read params")
		return
	}
	balance, err := h.engine.ContractBalance(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read escrow balance")
		return
	}

	writeJSON(w, http.StatusOK, paramsResponse{
		Oracle:        oracle.Hex(),
		MinimumStake:  minStake,
		FeePercentage: feePct,
		Balance:       balance,
	})
}

type updateParamsRequest struct {
	Oracle        *string `json:"oracle,omitempty"`
	MinimumStake  *int64  `json:"minimum_stake,omitempty"`
	FeePercentage *int64  `json:"fee_percentage,omitempty"`
}

// UpdateParams applies the provided parameter changes. Administrator only.
// PUT /api/params
func (h *AdminHandler) UpdateParams(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req updateParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	if req.Oracle != nil {
		oracle, err := domain.ParseAccount(*req.Oracle)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if err := h.engine.SetOracleAddress(ctx, caller, oracle); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if req.MinimumStake != nil {
		if err := h.engine.SetMinimumStake(ctx, caller, *req.MinimumStake); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if req.FeePercentage != nil {
		if err := h.engine.SetFeePercentage(ctx, caller, *req.FeePercentage); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

type withdrawRequest struct {
	Amount int64 `json:"amount"`
}

// WithdrawFees moves accrued value from escrow to the administrator.
// POST /api/fees/withdraw
func (h *AdminHandler) WithdrawFees(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := h.engine.WithdrawFees(r.Context(), caller, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"withdrawn": amount})
}

// ListAudit returns recent audit log entries.
// GET /api/audit
func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, http.StatusNotFound, "audit log not enabled")
		return
	}

	entries, err := h.audit.List(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list audit failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list audit log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
