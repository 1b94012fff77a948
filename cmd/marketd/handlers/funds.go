package handlers

import (
	"net/http"

	"github.com/prompthash/marketplace/pkg/funds"
	"github.com/prompthash/marketplace/pkg/identity"

	"github.com/gorilla/mux"
)

// Funds exposes the payment ledger. The balance query is always available;
// the credit faucet is only routed when the daemon runs in test mode, since
// a real deployment settles against an external ledger.
type Funds struct {
	Payments *funds.Ledger
}

func (h *Funds) Balance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, err := identity.Decode(mux.Vars(r)["address"])
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	balance, err := h.Payments.Balance(ctx, addr)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, map[string]uint64{"balance": balance})
}

type creditRequest struct {
	Amount uint64 `json:"amount"`
}

func (h *Funds) Credit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, err := caller(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req creditRequest
	if err := decode(r, &req); err != nil {
		respond(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := h.Payments.Credit(ctx, addr, req.Amount); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, nil)
}

type approveRequest struct {
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount"`
}

func (h *Funds) Approve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := caller(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req approveRequest
	if err := decode(r, &req); err != nil {
		respond(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	spender, err := identity.Decode(req.Spender)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Payments.Approve(ctx, owner, spender, req.Amount); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, nil)
}
