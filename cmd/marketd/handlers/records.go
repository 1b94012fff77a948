package handlers

import (
	"net/http"
	"strconv"

	"github.com/prompthash/marketplace/internal/market"
	"github.com/prompthash/marketplace/internal/record"

	"github.com/gorilla/mux"
)

// Records exposes the record operations over HTTP.
type Records struct {
	Market *market.Market
}

type createRecordRequest struct {
	Price       uint64 `json:"price"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	MediaURL    string `json:"media_url"`
	Description string `json:"description"`
}

type createRecordResponse struct {
	ID uint64 `json:"id"`
}

func (h *Records) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creator, err := caller(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req createRecordRequest
	if err := decode(r, &req); err != nil {
		respond(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id, err := h.Market.Create(ctx, creator, &record.NewRecord{
		Price:       req.Price,
		Title:       req.Title,
		Category:    req.Category,
		MediaURL:    req.MediaURL,
		Description: req.Description,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusCreated, createRecordResponse{ID: id})
}

func (h *Records) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.Market.Records(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, records)
}

func (h *Records) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := recordID(r)
	if err != nil {
		respond(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	rec, err := h.Market.Record(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, rec)
}

func (h *Records) NextID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	next, err := h.Market.NextID(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, map[string]uint64{"next_id": next})
}

type listRecordRequest struct {
	Price uint64 `json:"price"`
}

func (h *Records) ListForSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	seller, err := caller(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	id, err := recordID(r)
	if err != nil {
		respond(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	var req listRecordRequest
	if err := decode(r, &req); err != nil {
		respond(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := h.Market.ListForSale(ctx, seller, id, req.Price); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, nil)
}

func (h *Records) Buy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	buyer, err := caller(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	id, err := recordID(r)
	if err != nil {
		respond(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	if err := h.Market.Buy(ctx, buyer, id); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, nil)
}

func (h *Records) CheckOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := recordID(r)
	if err != nil {
		respond(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return
	}

	report, err := h.Market.CheckOwner(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, report)
}

func recordID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
}
