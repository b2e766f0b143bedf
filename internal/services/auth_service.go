package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/useradmin/internal/auth"
	"github.com/BradenHooton/useradmin/internal/models"
	pkgauth "github.com/BradenHooton/useradmin/pkg/auth"
	pkglogger "github.com/BradenHooton/useradmin/pkg/logger"
)

// UserLookup is the read side of UserRepository used for sign-in.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	GenerateAccessToken(username string, admin bool) (string, error)
}

// AuthResponse represents the response from a successful sign-in
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Username    string `json:"username"`
	Admin       bool   `json:"admin"`
}

// AuthService handles authentication business logic
type AuthService struct {
	users  UserLookup
	tokens TokenIssuer
	delay  *auth.TimingDelay
	expiry time.Duration
	audit  *pkglogger.AuditLogger
	logger *slog.Logger
}

// NewAuthService creates an AuthService. delay may be nil to disable failure padding.
func NewAuthService(users UserLookup, tokens TokenIssuer, expiry time.Duration, delay *auth.TimingDelay, audit *pkglogger.AuditLogger, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		delay:  delay,
		expiry: expiry,
		audit:  audit,
		logger: logger,
	}
}

// Login checks username and password and issues an access token. Unknown
// accounts, accounts without a password and wrong passwords all fail with
// ErrInvalidCredentials after the same padded delay.
func (s *AuthService) Login(ctx context.Context, username, password, ipAddress string) (*AuthResponse, error) {
	start := time.Now()
	username = strings.TrimSpace(username)

	fail := func(reason string) (*AuthResponse, error) {
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Username:      username,
			IPAddress:     ipAddress,
			FailureReason: reason,
		})
		if s.delay != nil {
			s.delay.WaitFrom(start, false)
		}
		return nil, models.ErrInvalidCredentials
	}

	if username == "" || password == "" {
		return fail("missing_credentials")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fail("invalid_credentials")
		}
		s.logger.Error("failed to load user for login", slog.String("username", username), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.PasswordHash == "" {
		return fail("no_local_password")
	}
	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return fail("invalid_credentials")
	}

	token, err := s.tokens.GenerateAccessToken(user.Username, user.Admin)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("username", user.Username), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		Username:  user.Username,
		IPAddress: ipAddress,
		Success:   true,
	})
	s.logger.Info("user logged in", slog.String("username", user.Username))

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.expiry.Seconds()),
		Username:    user.Username,
		Admin:       user.Admin,
	}, nil
}
