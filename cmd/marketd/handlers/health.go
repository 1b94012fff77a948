package handlers

import (
	"net/http"

	"github.com/prompthash/marketplace/internal/platform/db"
)

type Health struct {
	MasterDB *db.DB
}

func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.MasterDB.StatusCheck(ctx); err != nil {
		respondError(ctx, w, err)
		return
	}

	respond(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}
