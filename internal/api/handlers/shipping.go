package handlers

import (
	"net/http"
	"wip-tracker-service/internal/api/dto"
	"wip-tracker-service/internal/services"
)

type ShippingHandler struct {
	Tracker *services.Tracker
}

func (h *ShippingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	lots, err := h.Tracker.ListLots(r.Context())
	if err != nil {
		writeServiceError(w, r, "shipping summary", err)
		return
	}

	s := services.SummarizeShipments(lots)
	res := dto.ShippingSummaryResponse{
		TotalLots:         s.TotalLots,
		TotalQuantity:     s.TotalQuantity,
		AverageLeadTimeMs: s.AverageLeadTime.Milliseconds(),
		FirstRegisteredAt: s.FirstRegisteredAt,
		ByModel:           make([]dto.ModelShipmentResponse, 0, len(s.ByModel)),
	}
	for _, m := range s.ByModel {
		res.ByModel = append(res.ByModel, dto.ModelShipmentResponse{
			ModelName: m.ModelName,
			Lots:      m.Lots,
			Quantity:  m.Quantity,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}
