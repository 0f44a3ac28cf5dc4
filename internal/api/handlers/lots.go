package handlers

import (
	"net/http"
	"wip-tracker-service/internal/api/dto"
	"wip-tracker-service/internal/services"
)

// LotHandler exposes the lot lifecycle: registration, edits, lane moves,
// holds and shipment.
type LotHandler struct {
	Tracker *services.Tracker
}

func (h *LotHandler) List(w http.ResponseWriter, r *http.Request) {
	lots, err := h.Tracker.ListLots(r.Context())
	if err != nil {
		writeServiceError(w, r, "list lots", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewLotResponses(lots))
}

func (h *LotHandler) Get(w http.ResponseWriter, r *http.Request) {
	lot, err := h.Tracker.GetLot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "get lot", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewLotResponse(lot))
}

func (h *LotHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterLotRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	lot, err := h.Tracker.RegisterLot(r.Context(), services.RegisterLot{
		ModelName: req.ModelName,
		LotNumber: req.Number(),
		Quantity:  int(req.Quantity),
		Route:     req.Route,
	})
	if err != nil {
		writeServiceError(w, r, "register lot", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewLotResponse(lot))
}

// Patch edits lot fields. A currentPosition different from the lot's lane
// is a lane transition; the new position is chosen by the allocator.
func (h *LotHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req dto.PatchLotRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	lot, err := h.Tracker.UpdateLot(r.Context(), r.PathValue("id"), services.LotPatch{
		ModelName: req.ModelName,
		LotNumber: req.Number(),
		Quantity:  req.Qty(),
		Route:     req.Route,
		Lane:      req.CurrentPosition,
		Afvi:      req.AfviStatus,
	})
	if err != nil {
		writeServiceError(w, r, "update lot", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewLotResponse(lot))
}

func (h *LotHandler) Holding(w http.ResponseWriter, r *http.Request) {
	var req dto.HoldingRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsHolding == nil {
		writeError(w, r, http.StatusBadRequest, "isHolding is required")
		return
	}

	lot, err := h.Tracker.SetHolding(r.Context(), r.PathValue("id"), *req.IsHolding, req.HoldingMemo)
	if err != nil {
		writeServiceError(w, r, "set holding", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewLotResponse(lot))
}

func (h *LotHandler) Ship(w http.ResponseWriter, r *http.Request) {
	lot, err := h.Tracker.ShipLot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "ship lot", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ShipLotResponse{
		Success: true,
		Product: dto.NewLotResponse(lot),
	})
}
