package handlers

import (
	"net/http"
	"wip-tracker-service/internal/api/dto"
	"wip-tracker-service/internal/domain"
	"wip-tracker-service/internal/ports"
	"wip-tracker-service/internal/services"
)

// FlowHandler serves the process diagram edited by the board.
type FlowHandler struct {
	Graph ports.GraphRepository
}

func (h *FlowHandler) Flow(w http.ResponseWriter, r *http.Request) {
	g, err := h.Graph.LoadGraph(r.Context())
	if err != nil {
		writeServiceError(w, r, "load flow", err)
		return
	}
	writeJSON(w, r, http.StatusOK, g)
}

func (h *FlowHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	g, err := h.Graph.LoadGraph(r.Context())
	if err != nil {
		writeServiceError(w, r, "list nodes", err)
		return
	}
	writeJSON(w, r, http.StatusOK, g.Nodes)
}

func (h *FlowHandler) ReplaceNodes(w http.ResponseWriter, r *http.Request) {
	var nodes []domain.Node
	if err := decodeJSON(w, r, &nodes, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	out, err := services.ReplaceNodes(r.Context(), h.Graph, nodes)
	if err != nil {
		writeServiceError(w, r, "replace nodes", err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

// ReplaceEdges accepts a JSON array; null clears every edge.
func (h *FlowHandler) ReplaceEdges(w http.ResponseWriter, r *http.Request) {
	var edges []domain.Edge
	if err := decodeJSON(w, r, &edges, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	out, err := services.ReplaceEdges(r.Context(), h.Graph, edges)
	if err != nil {
		writeServiceError(w, r, "replace edges", err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *FlowHandler) BatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req []dto.NodePositionRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updates := make([]services.NodePosition, 0, len(req))
	for _, u := range req {
		updates = append(updates, services.NodePosition{
			ID:       u.ID,
			Position: domain.Position{X: u.Position.X, Y: u.Position.Y},
		})
	}

	if _, err := services.BatchUpdatePositions(r.Context(), h.Graph, updates); err != nil {
		writeServiceError(w, r, "batch update nodes", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *FlowHandler) PatchNode(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := decodeJSON(w, r, &data, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	n, err := services.PatchNodeData(r.Context(), h.Graph, r.PathValue("id"), data)
	if err != nil {
		writeServiceError(w, r, "patch node", err)
		return
	}
	writeJSON(w, r, http.StatusOK, n)
}
