package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/useradmin/internal/auth"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/userview"
	"github.com/BradenHooton/useradmin/internal/viewsession"
	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
	"github.com/go-chi/chi/v5"
)

// ViewRegistry holds the open view sessions.
type ViewRegistry interface {
	Create(ctx context.Context, owner string) (*viewsession.Session, error)
	Get(id, owner string) (*viewsession.Session, error)
	Close(id, owner string) error
}

// ViewHandler exposes user-management view sessions over HTTP
type ViewHandler struct {
	registry ViewRegistry
	logger   *slog.Logger
	errors   errorWriter
}

// NewViewHandler creates a ViewHandler. loginURL is sent in the Location header
// when the user list cannot be loaded.
func NewViewHandler(registry ViewRegistry, logger *slog.Logger, loginURL string) *ViewHandler {
	return &ViewHandler{
		registry: registry,
		logger:   logger,
		errors:   errorWriter{logger: logger, loginURL: loginURL},
	}
}

// FilterRequest replaces the view's filter. ApplyNow skips the debounce delay.
type FilterRequest struct {
	Username       string `json:"username" validate:"max=64"`
	Admin          string `json:"admin" validate:"omitempty,oneof=any true false"`
	VirtualCluster string `json:"virtual_cluster" validate:"max=64"`
	ApplyNow       bool   `json:"apply_now"`
}

type OrderingRequest struct {
	Key       string `json:"key"`
	Direction string `json:"direction"`
}

type PaginationRequest struct {
	Page     *int `json:"page" validate:"omitempty,gte=0"`
	PageSize *int `json:"page_size" validate:"omitempty,oneof=20 50 100"`
}

type SelectionRequest struct {
	Mode     string `json:"mode" validate:"required,oneof=all none select deselect"`
	Username string `json:"username" validate:"required_if=Mode select,required_if=Mode deselect"`
}

type BatchPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type BatchVirtualClustersRequest struct {
	VirtualClusters []string `json:"virtual_clusters" validate:"dive,required"`
}

type FilterResponse struct {
	Username       string `json:"username"`
	Admin          string `json:"admin"`
	VirtualCluster string `json:"virtual_cluster"`
}

type OrderingResponse struct {
	Key       string `json:"key,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// ViewResponse is one snapshot of a view session.
type ViewResponse struct {
	ID              string           `json:"id"`
	Version         uint64           `json:"version"`
	Filter          FilterResponse   `json:"filter"`
	Ordering        OrderingResponse `json:"ordering"`
	Page            int              `json:"page"`
	PageSize        int              `json:"page_size"`
	PageCount       int              `json:"page_count"`
	Total           int              `json:"total"`
	Pending         bool             `json:"pending"`
	AllSelected     bool             `json:"all_selected"`
	Selected        []string         `json:"selected"`
	Users           []*UserResponse  `json:"users"`
	VirtualClusters []string         `json:"virtual_clusters"`
}

type BatchResultResponse struct {
	Username string `json:"username"`
	Error    string `json:"error,omitempty"`
}

// BatchResponse reports a batch action and the refreshed view. When the
// refresh after the batch fails, Error is "login_required" and View is nil.
type BatchResponse struct {
	Error     string                `json:"error,omitempty"`
	Message   string                `json:"message"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Results   []BatchResultResponse `json:"results"`
	View      *ViewResponse         `json:"view"`
}

func snapshotToResponse(id string, s userview.Snapshot) *ViewResponse {
	admin := string(s.Filter.Admin)
	if admin == "" {
		admin = "any"
	}

	selected := s.SelectedUsers()
	names := make([]string, len(selected))
	for i, u := range selected {
		names[i] = u.Username
	}

	vcs := s.VirtualClusters
	if vcs == nil {
		vcs = []string{}
	}

	return &ViewResponse{
		ID:      id,
		Version: s.Version,
		Filter: FilterResponse{
			Username:       s.Filter.Username,
			Admin:          admin,
			VirtualCluster: s.Filter.VirtualCluster,
		},
		Ordering: OrderingResponse{
			Key:       string(s.Ordering.Key),
			Direction: string(s.Ordering.Direction),
		},
		Page:            s.Pagination.CurrentPage,
		PageSize:        s.Pagination.ItemsPerPage,
		PageCount:       s.PageCount(),
		Total:           len(s.Filtered),
		Pending:         s.Pending,
		AllSelected:     s.Selection.AllSelected(),
		Selected:        names,
		Users:           usersToResponse(s.Visible()),
		VirtualClusters: vcs,
	}
}

func batchToResponse(summary userview.BatchSummary, view *ViewResponse) *BatchResponse {
	results := make([]BatchResultResponse, len(summary.Results))
	for i, res := range summary.Results {
		results[i] = BatchResultResponse{Username: res.Username}
		if res.Err != nil {
			results[i].Error = res.Err.Error()
		}
	}
	return &BatchResponse{
		Message:   summary.Message(),
		Succeeded: summary.Succeeded(),
		Failed:    summary.Failed(),
		Results:   results,
		View:      view,
	}
}

// session resolves the {id} route parameter for the calling administrator.
func (h *ViewHandler) session(w http.ResponseWriter, r *http.Request) (*viewsession.Session, bool) {
	s, err := h.registry.Get(chi.URLParam(r, "id"), auth.ActorFromContext(r.Context()))
	if err != nil {
		h.errors.write(w, r, err)
		return nil, false
	}
	return s, true
}

// reply writes the snapshot, or the error if the controller call failed.
func (h *ViewHandler) reply(w http.ResponseWriter, r *http.Request, id string, snap userview.Snapshot, err error) {
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotToResponse(id, snap))
}

// Create handles POST /admin/views
func (h *ViewHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Create(r.Context(), auth.ActorFromContext(r.Context()))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	w.Header().Set("Location", "/admin/views/"+s.ID)
	writeJSON(w, http.StatusCreated, snapshotToResponse(s.ID, s.Controller.Snapshot()))
}

// Get handles GET /admin/views/{id}
func (h *ViewHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snapshotToResponse(s.ID, s.Controller.Snapshot()))
}

// Delete handles DELETE /admin/views/{id}
func (h *ViewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Close(chi.URLParam(r, "id"), auth.ActorFromContext(r.Context())); err != nil {
		h.errors.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFilter handles PUT /admin/views/{id}/filter
func (h *ViewHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	admin, valid := userview.ParseAdminFilter(req.Admin)
	if !valid {
		pkghttp.WriteBadRequest(w, "admin must be one of: any true false")
		return
	}
	f := userview.Filter{}.
		WithUsername(req.Username).
		WithAdmin(admin).
		WithVirtualCluster(req.VirtualCluster)

	snap, err := s.Controller.SetFilter(r.Context(), f)
	if err == nil && req.ApplyNow {
		s.Controller.Flush()
		snap = s.Controller.Snapshot()
	}
	h.reply(w, r, s.ID, snap, err)
}

// SetOrdering handles PUT /admin/views/{id}/ordering
func (h *ViewHandler) SetOrdering(w http.ResponseWriter, r *http.Request) {
	var req OrderingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	o := userview.Ordering{Key: userview.SortKey(req.Key), Direction: userview.Direction(req.Direction)}
	snap, err := s.Controller.SetOrdering(o)
	h.reply(w, r, s.ID, snap, err)
}

// SetPagination handles PUT /admin/views/{id}/pagination. A page size change
// returns to the first page before any requested page is applied.
func (h *ViewHandler) SetPagination(w http.ResponseWriter, r *http.Request) {
	var req PaginationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	snap := s.Controller.Snapshot()
	var err error
	if req.PageSize != nil {
		snap, err = s.Controller.SetPageSize(*req.PageSize)
	}
	if err == nil && req.Page != nil {
		snap, err = s.Controller.SetPage(*req.Page)
	}
	h.reply(w, r, s.ID, snap, err)
}

// UpdateSelection handles POST /admin/views/{id}/selection
func (h *ViewHandler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var snap userview.Snapshot
	var err error
	switch req.Mode {
	case "all":
		snap, err = s.Controller.SelectAll()
	case "none":
		snap, err = s.Controller.ClearSelection()
	case "select":
		snap, err = s.Controller.Select(req.Username)
	case "deselect":
		snap, err = s.Controller.Deselect(req.Username)
	}
	h.reply(w, r, s.ID, snap, err)
}

// Refresh handles POST /admin/views/{id}/refresh
func (h *ViewHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := s.Controller.Refresh(r.Context()); err != nil {
		h.discardOnLoginRequired(s, err)
		h.errors.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotToResponse(s.ID, s.Controller.Snapshot()))
}

// RemoveSelected handles POST /admin/views/{id}/actions/remove
func (h *ViewHandler) RemoveSelected(w http.ResponseWriter, r *http.Request) {
	h.runBatch(w, r, func(ctx context.Context, c *userview.Controller) (userview.BatchSummary, error) {
		return c.RemoveSelected(ctx)
	})
}

// UpdatePasswordOfSelected handles POST /admin/views/{id}/actions/password
func (h *ViewHandler) UpdatePasswordOfSelected(w http.ResponseWriter, r *http.Request) {
	var req BatchPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.runBatch(w, r, func(ctx context.Context, c *userview.Controller) (userview.BatchSummary, error) {
		return c.UpdatePasswordOfSelected(ctx, req.Password)
	})
}

// UpdateVirtualClustersOfSelected handles POST /admin/views/{id}/actions/virtual-clusters
func (h *ViewHandler) UpdateVirtualClustersOfSelected(w http.ResponseWriter, r *http.Request) {
	var req BatchVirtualClustersRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	vcs := models.NormalizeVirtualClusters(req.VirtualClusters)
	h.runBatch(w, r, func(ctx context.Context, c *userview.Controller) (userview.BatchSummary, error) {
		return c.UpdateVirtualClustersOfSelected(ctx, vcs)
	})
}

func (h *ViewHandler) runBatch(w http.ResponseWriter, r *http.Request, run func(context.Context, *userview.Controller) (userview.BatchSummary, error)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if len(s.Controller.SelectedUsers()) == 0 {
		pkghttp.WriteBadRequest(w, "No users selected")
		return
	}

	summary, err := run(r.Context(), s.Controller)
	if len(summary.Results) > 0 {
		h.logger.Info("view batch action",
			slog.String("session_id", s.ID),
			slog.String("action", summary.Action),
			slog.Int("succeeded", summary.Succeeded()),
			slog.Int("failed", summary.Failed()))
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, batchToResponse(summary, snapshotToResponse(s.ID, s.Controller.Snapshot())))
	case errors.Is(err, userview.ErrUserListUnavailable) && len(summary.Results) > 0:
		// the users were already changed; report them alongside the login redirect
		h.discardOnLoginRequired(s, err)
		resp := batchToResponse(summary, nil)
		resp.Error = "login_required"
		if h.errors.loginURL != "" {
			w.Header().Set("Location", h.errors.loginURL)
		}
		writeJSON(w, http.StatusUnauthorized, resp)
	default:
		h.discardOnLoginRequired(s, err)
		h.errors.write(w, r, err)
	}
}

// discardOnLoginRequired closes a session whose user list could not be
// reloaded, so stale users are never served from it.
func (h *ViewHandler) discardOnLoginRequired(s *viewsession.Session, err error) {
	if !errors.Is(err, userview.ErrUserListUnavailable) {
		return
	}
	if cerr := h.registry.Close(s.ID, s.Owner); cerr != nil && !errors.Is(cerr, viewsession.ErrSessionNotFound) {
		h.logger.Warn("failed to close view session", slog.String("session_id", s.ID), slog.Any("error", cerr))
	}
}
