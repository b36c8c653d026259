package handlers

import (
	"encoding/json"
	"net/http"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error:     message,
		RequestID: middleware.GetRequestID(r.Context()),
	}
}

// NotFound and MethodNotAllowed keep router-level errors in the JSON shape.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResp("Not found", r))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResp("Method not allowed", r))
}
