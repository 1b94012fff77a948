package handlers

import (
	"net/http"

	"github.com/prompthash/marketplace/internal/market"
	"github.com/prompthash/marketplace/pkg/identity"
)

// Admin exposes the fee configuration and authority handoff operations.
// Every call is gated on the persisted administrator inside the engine.
type Admin struct {
	Market *market.Market
}

func (h *Admin) FeeConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fees, err := h.Market.FeeConfig(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, fees)
}

type feePercentageRequest struct {
	Percentage uint64 `json:"percentage"` // basis points
}

func (h *Admin) SetFeePercentage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admin, err := caller(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req feePercentageRequest
	if err := decode(r, &req); err != nil {
		respond(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := h.Market.SetFeePercentage(ctx, admin, req.Percentage); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, nil)
}

type feeRecipientRequest struct {
	Recipient string `json:"recipient"`
}

func (h *Admin) SetFeeRecipient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admin, err := caller(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req feeRecipientRequest
	if err := decode(r, &req); err != nil {
		respond(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	recipient, err := identity.Decode(req.Recipient)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Market.SetFeeRecipient(ctx, admin, recipient); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, nil)
}

type nominateRequest struct {
	Successor string `json:"successor"`
}

func (h *Admin) Nominate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admin, err := caller(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req nominateRequest
	if err := decode(r, &req); err != nil {
		respond(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	successor, err := identity.Decode(req.Successor)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Market.NominateAdmin(ctx, admin, successor); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, nil)
}

func (h *Admin) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	successor, err := caller(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Market.AcceptAdmin(ctx, successor); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, nil)
}

func (h *Admin) Migrate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admin, err := caller(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Market.Migrate(ctx, admin); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, nil)
}
