package http

import (
	"LinkHub-Backend/internal/domain"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Limit string `json:"limit,omitempty"`
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: message}, statusCode)
}

// writeServiceError maps service errors onto HTTP statuses. Unknown errors are
// logged and reported as 500 without leaking details.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	var ve *domain.ValidationError
	var le *domain.LimitExceededError

	switch {
	case errors.As(err, &ve):
		writeJSON(w, ErrorResponse{Error: ve.Message, Field: ve.Field}, http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, "Not found", http.StatusNotFound)
	case errors.As(err, &le):
		writeJSON(w, ErrorResponse{Error: "Plan limit reached. Please upgrade your plan.", Limit: le.Limit}, http.StatusForbidden)
	case errors.Is(err, domain.ErrSlugExhausted):
		writeError(w, "Could not allocate a free slug, try another title", http.StatusConflict)
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON decodes a JSON body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
