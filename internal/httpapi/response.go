package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx response written by this package.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// SuccessResponse wraps every 2xx body.
type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

func writeOK(w http.ResponseWriter, data any) error {
	return writeJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func writeCreated(w http.ResponseWriter, data any) error {
	return writeJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]string) error {
	return writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}
