package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/ids"
	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/repository"
	"github.com/kriwitj/nso-forms/internal/security"
)

const minPasswordLength = 6

type UserService struct {
	users UserStore
	log   zerolog.Logger
}

func NewUserService(users UserStore, log zerolog.Logger) *UserService {
	return &UserService{users: users, log: log}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

type CreateUserInput struct {
	Name       string
	Email      string
	Password   string
	Role       string
	IsApproved *bool
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (models.User, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || len(input.Password) < minPasswordLength {
		return models.User{}, ErrInvalidPayload
	}

	role := models.UserRoleUser
	if input.Role != "" {
		role = models.UserRole(input.Role)
		if !role.Valid() {
			return models.User{}, ErrInvalidPayload
		}
	}

	approved := true
	if input.IsApproved != nil {
		approved = *input.IsApproved
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.Create(ctx, models.User{
		ID:              ids.New(),
		Email:           email,
		Name:            name,
		PasswordHash:    passwordHash,
		Role:            role,
		IsApproved:      approved,
		ThemePreference: models.ThemeSystem,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return models.User{}, ErrEmailExists
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user created by admin")
	return user, nil
}

// UpdateUserInput carries an admin PATCH; nil fields are left alone.
type UpdateUserInput struct {
	Name            *string
	Role            *string
	ThemePreference *string
	IsApproved      *bool
	Password        *string
}

func (s *UserService) Update(ctx context.Context, actor models.User, id string, input UpdateUserInput) (models.User, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return models.User{}, ErrInvalidPayload
		}
		user.Name = name
	}
	if input.Role != nil {
		role := models.UserRole(*input.Role)
		if !role.Valid() {
			return models.User{}, ErrInvalidPayload
		}
		if user.ID == actor.ID && role != models.UserRoleAdmin {
			return models.User{}, ErrCannotDemoteSelf
		}
		user.Role = role
	}
	if input.ThemePreference != nil {
		theme := models.ThemePreference(*input.ThemePreference)
		if !theme.Valid() {
			return models.User{}, ErrInvalidPayload
		}
		user.ThemePreference = theme
	}
	if input.IsApproved != nil {
		if user.ID == actor.ID && !*input.IsApproved {
			return models.User{}, ErrCannotDemoteSelf
		}
		user.IsApproved = *input.IsApproved
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return models.User{}, ErrInvalidPayload
		}
		passwordHash, err := security.HashPassword(*input.Password)
		if err != nil {
			return models.User{}, err
		}
		user.PasswordHash = passwordHash
	}

	return s.save(ctx, user)
}

func (s *UserService) Approve(ctx context.Context, id string) (models.User, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.IsApproved = true
	return s.save(ctx, user)
}

// Delete removes another user's account. Admins cannot remove themselves.
func (s *UserService) Delete(ctx context.Context, actor models.User, id string) error {
	if actor.ID == id {
		return ErrCannotDeleteSelf
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.log.Info().Str("user_id", id).Str("actor_id", actor.ID).Msg("user deleted")
	return nil
}

type ProfileInput struct {
	Name            *string
	ThemePreference *string
}

func (s *UserService) UpdateProfile(ctx context.Context, actor models.User, input ProfileInput) (models.User, error) {
	user, err := s.get(ctx, actor.ID)
	if err != nil {
		return models.User{}, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return models.User{}, ErrInvalidPayload
		}
		user.Name = name
	}
	if input.ThemePreference != nil {
		theme := models.ThemePreference(*input.ThemePreference)
		if !theme.Valid() {
			return models.User{}, ErrInvalidTheme
		}
		user.ThemePreference = theme
	}

	return s.save(ctx, user)
}

// EnsureAdmin provisions the bootstrap administrator.
func (s *UserService) EnsureAdmin(ctx context.Context, email string, name string, password string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < minPasswordLength {
		return models.User{}, ErrInvalidPayload
	}
	if strings.TrimSpace(name) == "" {
		name = "System Admin"
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.UpsertAdmin(ctx, models.User{
		ID:           ids.New(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("upsert admin: %w", err)
	}
	return user, nil
}

func (s *UserService) get(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) save(ctx context.Context, user models.User) (models.User, error) {
	updated, err := s.users.Update(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return updated, nil
}
