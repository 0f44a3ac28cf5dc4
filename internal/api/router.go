package api

import (
	"net/http"
	"wip-tracker-service/internal/api/handlers"
	"wip-tracker-service/internal/ports"
	"wip-tracker-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(tracker *services.Tracker, graph ports.GraphRepository, corsOrigins []string) http.Handler {
	mux := http.NewServeMux()

	lots := &handlers.LotHandler{Tracker: tracker}
	flow := &handlers.FlowHandler{Graph: graph}
	lanes := &handlers.LaneHandler{Tracker: tracker}
	shipping := &handlers.ShippingHandler{Tracker: tracker}

	mux.HandleFunc("/health", handlers.Health)

	mux.HandleFunc("GET /api/products", lots.List)
	mux.HandleFunc("POST /api/products", lots.Register)
	mux.HandleFunc("GET /api/products/{id}", lots.Get)
	mux.HandleFunc("PATCH /api/products/{id}", lots.Patch)
	mux.HandleFunc("PATCH /api/products/{id}/holding", lots.Holding)
	mux.HandleFunc("POST /api/products/{id}/ship", lots.Ship)

	mux.HandleFunc("GET /api/flow", flow.Flow)
	mux.HandleFunc("GET /api/nodes", flow.ListNodes)
	mux.HandleFunc("POST /api/nodes", flow.ReplaceNodes)
	mux.HandleFunc("POST /api/nodes/batch-update", flow.BatchUpdate)
	mux.HandleFunc("PATCH /api/nodes/{id}", flow.PatchNode)
	mux.HandleFunc("POST /api/edges", flow.ReplaceEdges)

	mux.HandleFunc("GET /api/lanes", lanes.List)
	mux.HandleFunc("POST /api/lanes/{name}/repack", lanes.Repack)

	mux.HandleFunc("GET /api/shipping/summary", shipping.Summary)

	// CORS answers preflights itself, so it sits inside logging.
	h := corsMiddleware(corsOrigins)(mux)
	h = loggingMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}
