package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/updownlabs/updown/internal/domain"
)

// PositionService defines what the position handler needs from the
// settlement engine.
type PositionService interface {
	MakePrediction(ctx context.Context, caller domain.Account, marketID uint64, side domain.Side, stake int64) error
	ClaimWinnings(ctx context.Context, caller domain.Account, marketID uint64) (domain.Receipt, error)
	Position(ctx context.Context, marketID uint64, account domain.Account) (domain.Position, error)
}

// PositionHandler serves staking and claiming endpoints.
type PositionHandler struct {
	engine PositionService
	logger *slog.Logger
}

// NewPositionHandler creates a PositionHandler.
func NewPositionHandler(engine PositionService, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{engine: engine, logger: logger}
}

type makePredictionRequest struct {
	Side  string `json:"side"`
	Stake int64  `json:"stake"`
}

// MakePrediction stakes on one side of an open market.
// POST /api/markets/{id}/predictions
func (h *PositionHandler) MakePrediction(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	marketID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req makePredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	side, err := domain.ParseSide(req.Side)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.engine.MakePrediction(r.Context(), caller, marketID, side, req.Stake); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"accepted": true})
}

// ClaimWinnings pays out the caller's winning position.
// POST /api/markets/{id}/claim
func (h *PositionHandler) ClaimWinnings(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	marketID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	receipt, err := h.engine.ClaimWinnings(r.Context(), caller, marketID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// GetPosition returns one participant's position on a market.
// GET /api/markets/{id}/positions/{account}
func (h *PositionHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	marketID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	account, err := domain.ParseAccount(r.PathValue("account"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	pos, err := h.engine.Position(r.Context(), marketID, account)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}
