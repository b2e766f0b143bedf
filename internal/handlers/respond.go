package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/useradmin/internal/directory"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/userview"
	"github.com/BradenHooton/useradmin/internal/viewsession"
	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeAndValidate reads a JSON body into req and runs struct validation.
// It writes the 400 itself and reports false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// errorWriter maps domain errors to HTTP responses.
type errorWriter struct {
	logger   *slog.Logger
	loginURL string
}

func (ew errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, userview.ErrUserListUnavailable):
		pkghttp.WriteLoginRequired(w, ew.loginURL, "Could not load the user list. Please sign in again.")
	case errors.Is(err, viewsession.ErrSessionNotFound),
		errors.Is(err, userview.ErrControllerClosed):
		pkghttp.WriteNotFound(w, "View session not found")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, err.Error())
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, err.Error())
	case errors.Is(err, userview.ErrSelectAllActive):
		pkghttp.WriteConflict(w, err.Error())
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrUnknownVirtualCluster),
		errors.Is(err, userview.ErrInvalidPageSize),
		errors.Is(err, userview.ErrInvalidPage),
		errors.Is(err, userview.ErrUnknownSortKey),
		errors.Is(err, userview.ErrInvalidDirection):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, directory.ErrLookupFailed):
		pkghttp.WriteBadGateway(w, err.Error())
	default:
		ew.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
