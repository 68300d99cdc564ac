package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/config"
	"github.com/kriwitj/nso-forms/internal/ids"
	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/repository"
	"github.com/kriwitj/nso-forms/internal/security"
)

type AuthService struct {
	users    UserStore
	sessions SessionStore
	cfg      *config.AppConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	users UserStore,
	sessions SessionStore,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type RegisterResult struct {
	User            models.User
	PendingApproval bool
}

// Register creates a self-service account. Only the very first account is
// approved and made admin.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return RegisterResult{}, ErrMissingFields
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return RegisterResult{}, err
	}

	user, err := s.users.CreateRegistrant(ctx, models.User{
		ID:              ids.New(),
		Email:           input.Email,
		Name:            input.Name,
		PasswordHash:    passwordHash,
		ThemePreference: models.ThemeSystem,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return RegisterResult{}, ErrEmailExists
		}
		return RegisterResult{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Bool("approved", user.IsApproved).
		Msg("user registered")

	return RegisterResult{User: user, PendingApproval: !user.IsApproved}, nil
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

// Login verifies credentials and opens a session. Unapproved accounts still
// get a session; the gate rejects them later.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.createSession(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) createSession(ctx context.Context, user models.User, ipAddress string, userAgent string) (string, time.Time, error) {
	token, tokenHash, err := security.GenerateSessionToken()
	if err != nil {
		return "", time.Time{}, err
	}

	session := models.Session{
		ID:        ids.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		ExpiresAt: s.now().Add(s.cfg.Security.SessionTTL),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	return token, session.ExpiresAt, nil
}

// ResolveSession maps a cookie token to its user. Every failure, including
// expiry, reads as ErrUnauthorized.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrUnauthorized
	}

	tokenHash := security.HashSessionToken(token)
	session, err := s.sessions.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.User{}, ErrUnauthorized
		}
		return models.User{}, err
	}

	if session.Expired(s.now()) {
		if err := s.sessions.DeleteByTokenHash(ctx, tokenHash); err != nil {
			s.log.Warn().Err(err).Str("session_id", session.ID).Msg("delete expired session failed")
		}
		return models.User{}, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUnauthorized
		}
		return models.User{}, err
	}
	return user, nil
}

// Logout drops the session behind token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteByTokenHash(ctx, security.HashSessionToken(token))
}

func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.cfg.Security.SessionTTL
}
