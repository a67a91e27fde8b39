package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorBody is the {code, message} envelope every error response uses (§7).
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, code, message string) {
	h.jsonResponse(w, status, errorBody{Code: code, Message: message})
}

// Health reports liveness; it never touches game state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
