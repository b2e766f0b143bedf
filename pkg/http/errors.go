package http

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error the API returns.
type ErrorResponse struct {
	Error   string `json:"error"`             // machine-readable code
	Message string `json:"message"`           // shown to the operator
	Details string `json:"details,omitempty"` // e.g. the per-field validation failures
}

// Error codes by status for the shorthand writers below.
var statusCodes = map[int]string{
	http.StatusBadRequest:          "bad_request",
	http.StatusUnauthorized:        "unauthorized",
	http.StatusForbidden:           "forbidden",
	http.StatusNotFound:            "not_found",
	http.StatusConflict:            "conflict",
	http.StatusTooManyRequests:     "rate_limit_exceeded",
	http.StatusInternalServerError: "internal_error",
	http.StatusBadGateway:          "upstream_error",
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	WriteErrorWithDetails(w, statusCode, errorCode, message, "")
}

// WriteErrorWithDetails writes a JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, errorCode, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// the status line is already sent, nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorCode,
		Message: message,
		Details: details,
	})
}

// WriteStatus writes an error using the standard code for statusCode.
func WriteStatus(w http.ResponseWriter, statusCode int, message string) {
	code, ok := statusCodes[statusCode]
	if !ok {
		code = "error"
	}
	WriteError(w, statusCode, code, message)
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusNotFound, message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusConflict, message)
}

func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusTooManyRequests, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusInternalServerError, message)
}

// WriteBadGateway reports a failure of an upstream service such as the directory.
func WriteBadGateway(w http.ResponseWriter, message string) {
	WriteStatus(w, http.StatusBadGateway, message)
}

// WriteLoginRequired answers 401 and points the client at the login entry point.
func WriteLoginRequired(w http.ResponseWriter, loginURL, message string) {
	if loginURL != "" {
		w.Header().Set("Location", loginURL)
	}
	WriteError(w, http.StatusUnauthorized, "login_required", message)
}
