package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/updownlabs/updown/internal/domain"
)

// MarketService defines what the market handler needs from the settlement
// engine. It is declared locally so the handler package does not depend on
// the concrete engine type.
type MarketService interface {
	CreateMarket(ctx context.Context, caller domain.Account, startPrice int64, startBlock, endBlock uint64) (uint64, error)
	ResolveMarket(ctx context.Context, caller domain.Account, marketID uint64, endPrice int64) error
	Market(ctx context.Context, id uint64) (domain.Market, error)
	Markets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error)
	MarketCount(ctx context.Context) (uint64, error)
	Positions(ctx context.Context, marketID uint64) ([]domain.Position, error)
	Height(ctx context.Context) (uint64, error)
}

// MarketHandler serves market lifecycle endpoints.
type MarketHandler struct {
	engine MarketService
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(engine MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{engine: engine, logger: logger}
}

// marketView decorates a market with its derived phase at the current height.
type marketView struct {
	domain.Market
	Phase domain.Phase `json:"phase"`
}

type listMarketsResponse struct {
	Markets []marketView `json:"markets"`
	Total   uint64       `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

// ListMarkets returns markets with pagination.
// GET /api/markets?limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	markets, err := h.engine.Markets(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}

	total, err := h.engine.MarketCount(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count markets")
		return
	}

	height, err := h.engine.Height(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read block height")
		return
	}

	views := make([]marketView, 0, len(markets))
	for _, m := range markets {
		views = append(views, marketView{Market: m, Phase: m.Phase(height)})
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: views,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns a single market by id.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	market, err := h.engine.Market(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get market failed",
			slog.Uint64("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get market")
		return
	}

	height, err := h.engine.Height(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read block height")
		return
	}

	writeJSON(w, http.StatusOK, marketView{Market: market, Phase: market.Phase(height)})
}

// ListMarketPositions returns every position on a market.
// GET /api/markets/{id}/positions
func (h *MarketHandler) ListMarketPositions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	positions, err := h.engine.Positions(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list positions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

type createMarketRequest struct {
	StartPrice int64  `json:"start_price"`
	StartBlock uint64 `json:"start_block"`
	EndBlock   uint64 `json:"end_block"`
}

// CreateMarket opens a new market. Administrator only.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req createMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.engine.CreateMarket(r.Context(), caller, req.StartPrice, req.StartBlock, req.EndBlock)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"market_id": id})
}

type resolveMarketRequest struct {
	EndPrice int64 `json:"end_price"`
}

// ResolveMarket fixes the settlement price. Oracle only.
// POST /api/markets/{id}/resolve
func (h *MarketHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	caller, err := callerAccount(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	var req resolveMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.engine.ResolveMarket(r.Context(), caller, id, req.EndPrice); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"resolved": true})
}
