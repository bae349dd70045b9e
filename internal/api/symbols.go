package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"indicator-dashboard/internal/model"
)

type levelRequest struct {
	Symbol     string  `json:"symbol" validate:"required,max=64"`
	EntryPrice float64 `json:"entryPrice" validate:"gt=0"`
	Side       string  `json:"side" validate:"required"`
}

func (req levelRequest) level(id string) (model.ManualLevel, error) {
	side, ok := model.ParseSide(req.Side)
	if !ok {
		return model.ManualLevel{}, errors.New("side must be buy or sell")
	}
	return model.ManualLevel{
		ID:         id,
		Symbol:     strings.TrimSpace(req.Symbol),
		EntryPrice: req.EntryPrice,
		Side:       side,
	}, nil
}

func (h *handlers) listLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.Levels.ListLevels(r.Context())
	if err != nil {
		log.Printf("[api] list levels: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load symbols")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "symbols": levels})
}

func (h *handlers) createLevel(w http.ResponseWriter, r *http.Request) {
	var req levelRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	lvl, err := req.level(uuid.NewString())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Levels.CreateLevel(r.Context(), lvl); err != nil {
		log.Printf("[api] create level: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create symbol")
		return
	}
	h.publishLevels(r.Context())
	respond(w, http.StatusCreated, map[string]interface{}{"success": true, "symbol": lvl})
}

func (h *handlers) updateLevel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req levelRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	lvl, err := req.level(id)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = h.Levels.UpdateLevel(r.Context(), lvl)
	if errors.Is(err, model.ErrNotFound) {
		respondError(w, http.StatusNotFound, "symbol not found")
		return
	}
	if err != nil {
		log.Printf("[api] update level %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to update symbol")
		return
	}
	h.publishLevels(r.Context())
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "symbol": lvl})
}

func (h *handlers) deleteLevel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.Levels.DeleteLevel(r.Context(), id)
	if errors.Is(err, model.ErrNotFound) {
		respondError(w, http.StatusNotFound, "symbol not found")
		return
	}
	if err != nil {
		log.Printf("[api] delete level %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to delete symbol")
		return
	}
	h.publishLevels(r.Context())
	respond(w, http.StatusOK, map[string]interface{}{"success": true, "message": "symbol deleted"})
}

// publishLevels broadcasts the full level list after a mutation. Failures
// are logged; the publisher resends once Redis is back.
func (h *handlers) publishLevels(ctx context.Context) {
	if h.Publisher == nil {
		return
	}
	levels, err := h.Levels.ListLevels(ctx)
	if err != nil {
		log.Printf("[api] reload levels for publish: %v", err)
		return
	}
	if err := h.Publisher.PublishLevels(ctx, levels); err != nil {
		log.Printf("[api] publish levels: %v", err)
	}
}
