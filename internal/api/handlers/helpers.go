package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"wip-tracker-service/internal/domain"
	"wip-tracker-service/internal/platform/obs"

	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; a full diagram replace is the largest.
const maxBodyBytes = 4 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON value from the body. strict rejects
// unknown object fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, strict bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	if strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON value")
	}
	return nil
}

// writeServiceError maps domain errors onto HTTP statuses. Unexpected errors
// are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidLot), errors.Is(err, domain.ErrUnknownLane):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrLotNotFound):
		writeError(w, r, http.StatusNotFound, "product not found")
	case errors.Is(err, domain.ErrNodeNotFound):
		writeError(w, r, http.StatusNotFound, "node not found")
	case errors.Is(err, domain.ErrLotShipped):
		writeError(w, r, http.StatusConflict, "product already shipped")
	default:
		zap.L().Error(op+" failed",
			zap.String("req_id", obs.RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
