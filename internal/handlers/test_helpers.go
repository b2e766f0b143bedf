package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/BradenHooton/useradmin/internal/auth"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/BradenHooton/useradmin/internal/services"
	pkghttp "github.com/BradenHooton/useradmin/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds administrator claims to the request context
func WithAuthContext(req *http.Request, username string) *http.Request {
	claims := &models.TokenClaims{
		Type:     auth.TokenTypeAccess,
		Username: username,
		Admin:    true,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithChiRouteContext adds chi URL parameters to request context for testing
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch: %s", w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch: %s", w.Body.String())

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc func(ctx context.Context, username, password, ipAddress string) (*services.AuthResponse, error)
}

func (m *MockAuthService) Login(ctx context.Context, username, password, ipAddress string) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, username, password, ipAddress)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	GetUserFunc                     func(ctx context.Context, username string) (*models.User, error)
	CreateUserFunc                  func(ctx context.Context, user *models.User, password string) (*models.User, error)
	UpdateUserFunc                  func(ctx context.Context, username string, update services.UserUpdate) (*models.User, error)
	RemoveUserFunc                  func(ctx context.Context, username string) error
	FetchAllVirtualClusterNamesFunc func(ctx context.Context) ([]string, error)
	SyncGroupsFunc                  func(ctx context.Context, username, token string) ([]string, error)
}

func (m *MockUserService) GetUser(ctx context.Context, username string) (*models.User, error) {
	if m.GetUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetUserFunc(ctx, username)
}

func (m *MockUserService) CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	if m.CreateUserFunc == nil {
		return nil, models.ErrConflict
	}
	return m.CreateUserFunc(ctx, user, password)
}

func (m *MockUserService) UpdateUser(ctx context.Context, username string, update services.UserUpdate) (*models.User, error) {
	if m.UpdateUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateUserFunc(ctx, username, update)
}

func (m *MockUserService) RemoveUser(ctx context.Context, username string) error {
	if m.RemoveUserFunc == nil {
		return nil
	}
	return m.RemoveUserFunc(ctx, username)
}

func (m *MockUserService) FetchAllVirtualClusterNames(ctx context.Context) ([]string, error) {
	if m.FetchAllVirtualClusterNamesFunc == nil {
		return []string{}, nil
	}
	return m.FetchAllVirtualClusterNamesFunc(ctx)
}

func (m *MockUserService) SyncGroups(ctx context.Context, username, token string) ([]string, error) {
	if m.SyncGroupsFunc == nil {
		return []string{}, nil
	}
	return m.SyncGroupsFunc(ctx, username, token)
}

// fakeBackend is an in-memory user source and mutator for view handler tests
type fakeBackend struct {
	mu       sync.Mutex
	users    []*models.User
	fetchErr error
	failFor  map[string]error
	removed  []string
}

func newFakeBackend(n int) *fakeBackend {
	b := &fakeBackend{failFor: map[string]error{}}
	for i := 0; i < n; i++ {
		b.users = append(b.users, &models.User{
			Username:        fmt.Sprintf("user%02d", i),
			Email:           fmt.Sprintf("user%02d@example.com", i),
			Admin:           i%3 == 0,
			VirtualClusters: []string{"default"},
		})
	}
	return b
}

func (b *fakeBackend) FetchAllUsers(ctx context.Context) ([]*models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return append([]*models.User(nil), b.users...), nil
}

func (b *fakeBackend) FetchAllVirtualClusterNames(ctx context.Context) ([]string, error) {
	return []string{"default", "gpu"}, nil
}

func (b *fakeBackend) RemoveUser(ctx context.Context, username string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failFor[username]; err != nil {
		return err
	}
	for i, u := range b.users {
		if u.Username == username {
			b.users = append(b.users[:i], b.users[i+1:]...)
			break
		}
	}
	b.removed = append(b.removed, username)
	return nil
}

func (b *fakeBackend) UpdatePassword(ctx context.Context, username, password string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failFor[username]
}

func (b *fakeBackend) UpdateVirtualClusters(ctx context.Context, username string, vcs []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failFor[username]; err != nil {
		return err
	}
	for i, u := range b.users {
		if u.Username == username {
			updated := *u
			updated.VirtualClusters = vcs
			b.users[i] = &updated
		}
	}
	return nil
}
