package handlers

import (
	"net/http"
	"wip-tracker-service/internal/api/dto"
	"wip-tracker-service/internal/services"
)

type LaneHandler struct {
	Tracker *services.Tracker
}

// List returns the lane layout in flow order with each lane's reserved offsets.
func (h *LaneHandler) List(w http.ResponseWriter, r *http.Request) {
	occ := h.Tracker.LaneOccupancy()

	res := dto.ListLanesResponse{Lanes: make([]dto.LaneResponse, 0, len(occ))}
	for _, o := range occ {
		res.Lanes = append(res.Lanes, dto.LaneResponse{
			Name:        o.Lane.Name,
			X:           o.Lane.X,
			Y:           o.Lane.Y,
			StartOffset: o.Lane.StartOffset,
			Spacing:     o.Lane.Spacing,
			XShift:      o.Lane.XShift,
			Occupied:    o.Occupied,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *LaneHandler) Repack(w http.ResponseWriter, r *http.Request) {
	lane := r.PathValue("name")
	moved, err := h.Tracker.RepackLane(r.Context(), lane)
	if err != nil {
		writeServiceError(w, r, "repack lane", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.RepackResponse{
		Lane:  lane,
		Moved: dto.NewLotResponses(moved),
	})
}
