package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/BradenHooton/useradmin/internal/models"
	pkglogger "github.com/BradenHooton/useradmin/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	ListAllFunc               func(ctx context.Context) ([]*models.User, error)
	GetByUsernameFunc         func(ctx context.Context, username string) (*models.User, error)
	CreateFunc                func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc                func(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordFunc        func(ctx context.Context, username, passwordHash string) error
	UpdateVirtualClustersFunc func(ctx context.Context, username string, virtualClusters []string) error
	UpdateExtensionFunc       func(ctx context.Context, username, key string, value any) error
	DeleteFunc                func(ctx context.Context, username string) error
}

func (m *MockUserRepository) ListAll(ctx context.Context) ([]*models.User, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, username, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) UpdateVirtualClusters(ctx context.Context, username string, virtualClusters []string) error {
	if m.UpdateVirtualClustersFunc != nil {
		return m.UpdateVirtualClustersFunc(ctx, username, virtualClusters)
	}
	return nil
}

func (m *MockUserRepository) UpdateExtension(ctx context.Context, username, key string, value any) error {
	if m.UpdateExtensionFunc != nil {
		return m.UpdateExtensionFunc(ctx, username, key, value)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, username string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, username)
	}
	return nil
}

// MockVirtualClusterRepository implements VirtualClusterRepository for testing
type MockVirtualClusterRepository struct {
	Names []string
	Err   error
}

func (m *MockVirtualClusterRepository) ListNames(ctx context.Context) ([]string, error) {
	return m.Names, m.Err
}

// MockGroupLookup implements GroupLookup for testing
type MockGroupLookup struct {
	GroupNamesFunc func(ctx context.Context, username, token string) ([]string, error)
}

func (m *MockGroupLookup) GroupNames(ctx context.Context, username, token string) ([]string, error) {
	if m.GroupNamesFunc != nil {
		return m.GroupNamesFunc(ctx, username, token)
	}
	return nil, nil
}

// MockNotifier records password change notifications
type MockNotifier struct {
	mu       sync.Mutex
	Notified []string
	Err      error
}

func (m *MockNotifier) NotifyPasswordChanged(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notified = append(m.Notified, user.Username)
	return m.Err
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	GenerateAccessTokenFunc func(username string, admin bool) (string, error)
}

func (m *MockTokenIssuer) GenerateAccessToken(username string, admin bool) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(username, admin)
	}
	return "token-" + username, nil
}

// mockSES implements sesSender for testing
type mockSES struct {
	input *ses.SendEmailInput
	err   error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	id := "msg-1"
	return &ses.SendEmailOutput{MessageId: &id}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func discardAudit() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(discardLogger())
}

// NewTestUser creates a test user with sensible defaults
func NewTestUser(username string, admin bool, virtualClusters ...string) *models.User {
	if virtualClusters == nil {
		virtualClusters = []string{}
	}
	return &models.User{
		Username:        username,
		Email:           username + "@example.com",
		Admin:           admin,
		VirtualClusters: virtualClusters,
		Extension:       map[string]any{},
	}
}
