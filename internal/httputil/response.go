package httputil

import (
	"encoding/json"
	"net/http"

	"tasktracker/internal/logging"
)

// ErrorResponse is the error body every endpoint returns: a human-readable
// message plus a machine-readable code clients can branch on.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// encode failures have nowhere else to go; by then the status line is
// already written.
var fallbackLogger = logging.NewLogger(false)

// RespondJSON writes data as a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fallbackLogger.Error("failed to encode JSON response", "error", err.Error())
	}
}

// RespondError writes a JSON error response without a machine-readable code.
func RespondError(w http.ResponseWriter, message string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message}, statusCode)
}

// RespondErrorWithCode writes a JSON error response carrying a
// machine-readable error code.
func RespondErrorWithCode(w http.ResponseWriter, message string, code string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}
