package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prompthash/marketplace/internal/market"
	"github.com/prompthash/marketplace/internal/platform/node"
	"github.com/prompthash/marketplace/internal/record"
	"github.com/prompthash/marketplace/pkg/funds"
	"github.com/prompthash/marketplace/pkg/identity"

	"github.com/pkg/errors"
)

// identityHeader names the caller on every mutating request. Authentication
// happens upstream; the daemon trusts the gateway that set it.
const identityHeader = "X-Identity"

type errorResponse struct {
	Error string `json:"error"`
}

func caller(r *http.Request) (identity.Address, error) {
	return identity.Decode(r.Header.Get(identityHeader))
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "Failed to decode request body")
	}
	return nil
}

func respond(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		node.LogError(ctx, "Failed to encode response : %s", err)
	}
}

// respondError maps the engine's sentinel errors onto HTTP status codes.
// Anything unrecognized is treated as internal and not echoed to the client.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var status int

	switch errors.Cause(err) {
	case market.ErrNotFound, record.ErrNotFound:
		status = http.StatusNotFound
	case market.ErrUnauthorized:
		status = http.StatusForbidden
	case market.ErrAlreadySold, market.ErrNotForSale, market.ErrSelfPurchase,
		record.ErrUpToDate:
		status = http.StatusConflict
	case funds.ErrInsufficientFunds, funds.ErrInsufficientApproval:
		status = http.StatusPaymentRequired
	case market.ErrInvalidFee, identity.ErrInvalidAddress, funds.ErrBalanceOverflow:
		status = http.StatusBadRequest
	default:
		node.LogError(ctx, "Internal error : %s", err)
		respond(ctx, w, http.StatusInternalServerError,
			errorResponse{Error: "internal error"})
		return
	}

	respond(ctx, w, status, errorResponse{Error: errors.Cause(err).Error()})
}
