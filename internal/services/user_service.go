package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/BradenHooton/useradmin/internal/auth"
	"github.com/BradenHooton/useradmin/internal/models"
	pkgauth "github.com/BradenHooton/useradmin/pkg/auth"
	pkglogger "github.com/BradenHooton/useradmin/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	ListAll(ctx context.Context) ([]*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	UpdateVirtualClusters(ctx context.Context, username string, virtualClusters []string) error
	UpdateExtension(ctx context.Context, username, key string, value any) error
	Delete(ctx context.Context, username string) error
}

// VirtualClusterRepository is the registry of virtual cluster names.
type VirtualClusterRepository interface {
	ListNames(ctx context.Context) ([]string, error)
}

// GroupLookup resolves a user's directory groups.
type GroupLookup interface {
	GroupNames(ctx context.Context, username, token string) ([]string, error)
}

// UserUpdate holds the editable profile fields; nil fields are left unchanged.
type UserUpdate struct {
	Email           *string
	Admin           *bool
	VirtualClusters []string
}

// UserService handles user business logic
type UserService struct {
	users      UserRepository
	clusters   VirtualClusterRepository
	groups     GroupLookup
	notifier   PasswordChangeNotifier
	audit      *pkglogger.AuditLogger
	logger     *slog.Logger
	bcryptCost int
}

func NewUserService(users UserRepository, clusters VirtualClusterRepository, groups GroupLookup, notifier PasswordChangeNotifier, audit *pkglogger.AuditLogger, logger *slog.Logger) *UserService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &UserService{
		users:      users,
		clusters:   clusters,
		groups:     groups,
		notifier:   notifier,
		audit:      audit,
		logger:     logger,
		bcryptCost: pkgauth.DefaultBcryptCost,
	}
}

// SetBcryptCost overrides the cost used for new password hashes.
func (s *UserService) SetBcryptCost(cost int) {
	s.bcryptCost = cost
}

// FetchAllUsers returns every account.
func (s *UserService) FetchAllUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// FetchAllVirtualClusterNames returns the registered virtual cluster names.
func (s *UserService) FetchAllVirtualClusterNames(ctx context.Context) ([]string, error) {
	names, err := s.clusters.ListNames(ctx)
	if err != nil {
		s.logger.Error("failed to list virtual clusters", slog.Any("error", err))
		return nil, fmt.Errorf("list virtual clusters: %w", err)
	}
	return names, nil
}

func (s *UserService) GetUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", username, models.ErrNotFound)
		}
		s.logger.Error("failed to get user", slog.String("username", username), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return user, nil
}

// CreateUser creates an account. password may be empty for accounts that only
// sign in through an external provider.
func (s *UserService) CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	vcs, err := s.checkVirtualClusters(ctx, user.VirtualClusters)
	if err != nil {
		return nil, err
	}
	user.VirtualClusters = vcs

	if password != "" {
		hash, err := s.hashPassword(password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("user %s: %w", user.Username, models.ErrConflict)
		}
		s.logger.Error("failed to create user", slog.String("username", user.Username), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user created", slog.String("username", created.Username), slog.Bool("admin", created.Admin))
	s.audit.LogAccountAction("user_created", created.Username, auth.ActorFromContext(ctx), nil)
	return created, nil
}

// UpdateUser applies the non-nil fields of update.
func (s *UserService) UpdateUser(ctx context.Context, username string, update UserUpdate) (*models.User, error) {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		user.Email = strings.TrimSpace(*update.Email)
	}
	if update.Admin != nil {
		if !*update.Admin && username == auth.ActorFromContext(ctx) {
			return nil, fmt.Errorf("%w: cannot revoke your own administrator rights", models.ErrForbidden)
		}
		user.Admin = *update.Admin
	}
	if update.VirtualClusters != nil {
		vcs, err := s.checkVirtualClusters(ctx, update.VirtualClusters)
		if err != nil {
			return nil, err
		}
		user.VirtualClusters = vcs
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", username, models.ErrNotFound)
		}
		s.logger.Error("failed to update user", slog.String("username", username), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user updated", slog.String("username", username))
	return updated, nil
}

// RemoveUser deletes an account. An administrator cannot remove their own account.
func (s *UserService) RemoveUser(ctx context.Context, username string) error {
	actor := auth.ActorFromContext(ctx)
	if actor != "" && username == actor {
		return fmt.Errorf("remove %s: %w: cannot remove your own account", username, models.ErrForbidden)
	}

	if err := s.users.Delete(ctx, username); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to remove user", slog.String("username", username), slog.Any("error", err))
		}
		return fmt.Errorf("remove %s: %w", username, err)
	}

	s.logger.Info("user removed", slog.String("username", username))
	s.audit.LogAccountAction("user_removed", username, actor, nil)
	return nil
}

// UpdatePassword sets a new password and notifies the account owner. A failed
// notification is logged and does not fail the update.
func (s *UserService) UpdatePassword(ctx context.Context, username, password string) error {
	actor := auth.ActorFromContext(ctx)

	hash, err := s.hashPassword(password)
	if err != nil {
		return fmt.Errorf("update password of %s: %w", username, err)
	}

	if err := s.users.UpdatePassword(ctx, username, hash); err != nil {
		s.audit.LogPasswordChange(username, actor, false)
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to update password", slog.String("username", username), slog.Any("error", err))
		}
		return fmt.Errorf("update password of %s: %w", username, err)
	}
	s.audit.LogPasswordChange(username, actor, true)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Warn("password updated but account reload failed", slog.String("username", username), slog.Any("error", err))
		return nil
	}
	if user.Email != "" {
		if err := s.notifier.NotifyPasswordChanged(ctx, user); err != nil {
			s.logger.Warn("failed to send password change notification",
				slog.String("username", username),
				slog.String("email", pkglogger.SanitizedEmail(user.Email)),
				slog.Any("error", err))
		}
	}
	return nil
}

// UpdateVirtualClusters replaces the user's virtual cluster assignment.
func (s *UserService) UpdateVirtualClusters(ctx context.Context, username string, virtualClusters []string) error {
	vcs, err := s.checkVirtualClusters(ctx, virtualClusters)
	if err != nil {
		return fmt.Errorf("update virtual clusters of %s: %w", username, err)
	}

	if err := s.users.UpdateVirtualClusters(ctx, username, vcs); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to update virtual clusters", slog.String("username", username), slog.Any("error", err))
		}
		return fmt.Errorf("update virtual clusters of %s: %w", username, err)
	}

	s.audit.LogAccountAction("virtual_clusters_updated", username, auth.ActorFromContext(ctx),
		map[string]string{"virtual_clusters": strings.Join(vcs, ",")})
	return nil
}

// SyncGroups looks up the user's directory groups with token and records them
// in the account's extension. Directory errors are returned unchanged.
func (s *UserService) SyncGroups(ctx context.Context, username, token string) ([]string, error) {
	if _, err := s.GetUser(ctx, username); err != nil {
		return nil, err
	}

	groups, err := s.groups.GroupNames(ctx, username, token)
	if err != nil {
		s.logger.Warn("directory group lookup failed", slog.String("username", username), slog.Any("error", err))
		return nil, err
	}

	if err := s.users.UpdateExtension(ctx, username, models.ExtensionGroupList, groups); err != nil {
		s.logger.Error("failed to store directory groups", slog.String("username", username), slog.Any("error", err))
		return nil, fmt.Errorf("store groups of %s: %w", username, err)
	}

	s.logger.Info("directory groups synced", slog.String("username", username), slog.Int("groups", len(groups)))
	return groups, nil
}

// EnsureAdmin creates the bootstrap administrator if the account does not exist.
// An existing account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("look up bootstrap admin: %w", err)
	}

	vcs, err := s.FetchAllVirtualClusterNames(ctx)
	if err != nil {
		return err
	}
	if _, err := s.CreateUser(ctx, &models.User{Username: username, Admin: true, VirtualClusters: vcs}, password); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	s.logger.Info("bootstrap administrator created", slog.String("username", username))
	return nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	if err := pkgauth.ValidatePassword(password); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrBadRequest, err)
	}
	hash, err := pkgauth.HashPasswordWithCost(password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return "", models.ErrInternalServer
	}
	return hash, nil
}

// checkVirtualClusters normalises names and rejects any that are not registered.
func (s *UserService) checkVirtualClusters(ctx context.Context, names []string) ([]string, error) {
	vcs := models.NormalizeVirtualClusters(names)
	if len(vcs) == 0 {
		return vcs, nil
	}

	known, err := s.FetchAllVirtualClusterNames(ctx)
	if err != nil {
		return nil, err
	}
	for _, vc := range vcs {
		if !slices.Contains(known, vc) {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownVirtualCluster, vc)
		}
	}
	return vcs, nil
}
