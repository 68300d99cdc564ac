package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

type ThemePreference string

const (
	ThemeSystem ThemePreference = "SYSTEM"
	ThemeLight  ThemePreference = "LIGHT"
	ThemeDark   ThemePreference = "DARK"
)

func (t ThemePreference) Valid() bool {
	switch t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return true
	}
	return false
}

type User struct {
	ID              string
	Email           string
	Name            string
	PasswordHash    []byte
	Role            UserRole
	IsApproved      bool
	ThemePreference ThemePreference
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

type Session struct {
	ID        string
	UserID    string
	TokenHash []byte
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
