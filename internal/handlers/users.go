package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/services"
	"github.com/go-chi/chi/v5"
)

// UserService defines the interface for user business logic
type UserService interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error)
	UpdateUser(ctx context.Context, username string, update services.UserUpdate) (*models.User, error)
	RemoveUser(ctx context.Context, username string) error
	FetchAllVirtualClusterNames(ctx context.Context) ([]string, error)
	SyncGroups(ctx context.Context, username, token string) ([]string, error)
}

// UserHandler handles single-account HTTP requests
type UserHandler struct {
	service UserService
	errors  errorWriter
}

func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		errors:  errorWriter{logger: logger},
	}
}

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Username        string   `json:"username" validate:"required,username"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"omitempty,min=8,max=72"`
	Admin           bool     `json:"admin"`
	VirtualClusters []string `json:"virtual_clusters" validate:"dive,required"`
}

// UpdateUserRequest represents the request body for updating a user. Omitted
// fields are left unchanged.
type UpdateUserRequest struct {
	Email           *string  `json:"email" validate:"omitempty,email"`
	Admin           *bool    `json:"admin"`
	VirtualClusters []string `json:"virtual_clusters" validate:"omitempty,dive,required"`
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Admin           bool     `json:"admin"`
	VirtualClusters []string `json:"virtual_clusters"`
	Groups          []string `json:"groups,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

func userModelToResponse(user *models.User) *UserResponse {
	vcs := user.VirtualClusters
	if vcs == nil {
		vcs = []string{}
	}
	return &UserResponse{
		Username:        user.Username,
		Email:           user.Email,
		Admin:           user.Admin,
		VirtualClusters: vcs,
		Groups:          user.GroupList(),
		CreatedAt:       user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       user.UpdatedAt.Format(time.RFC3339),
	}
}

func usersToResponse(users []*models.User) []*UserResponse {
	out := make([]*UserResponse, len(users))
	for i, u := range users {
		out[i] = userModelToResponse(u)
	}
	return out
}

// GetUser handles GET /admin/users/{username}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userModelToResponse(user))
}

// CreateUser handles POST /admin/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user := &models.User{
		Username:        req.Username,
		Email:           req.Email,
		Admin:           req.Admin,
		VirtualClusters: req.VirtualClusters,
	}
	created, err := h.service.CreateUser(r.Context(), user, req.Password)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	w.Header().Set("Location", "/admin/users/"+created.Username)
	writeJSON(w, http.StatusCreated, userModelToResponse(created))
}

// UpdateUser handles PATCH /admin/users/{username}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateUser(r.Context(), chi.URLParam(r, "username"), services.UserUpdate{
		Email:           req.Email,
		Admin:           req.Admin,
		VirtualClusters: req.VirtualClusters,
	})
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userModelToResponse(updated))
}

// DeleteUser handles DELETE /admin/users/{username}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveUser(r.Context(), chi.URLParam(r, "username")); err != nil {
		h.errors.write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListVirtualClusters handles GET /admin/virtual-clusters
func (h *UserHandler) ListVirtualClusters(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.FetchAllVirtualClusterNames(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"virtual_clusters": names})
}

// SyncGroupsRequest carries the caller's directory credential.
type SyncGroupsRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

// SyncGroups handles POST /admin/users/{username}/groups/sync. Directory
// failures are answered with 502.
func (h *UserHandler) SyncGroups(w http.ResponseWriter, r *http.Request) {
	var req SyncGroupsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	username := chi.URLParam(r, "username")
	groups, err := h.service.SyncGroups(r.Context(), username, req.AccessToken)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	if groups == nil {
		groups = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"username": username, "groups": groups})
}
