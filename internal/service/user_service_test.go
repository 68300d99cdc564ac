package service_test

import (
	"context"
	"testing"

	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/service"
)

func TestUserAdministration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.register(t, "Admin", "admin@example.com")

	t.Run("create validates payload", func(t *testing.T) {
		_, err := f.users.Create(ctx, service.CreateUserInput{Name: "Short", Email: "s@example.com", Password: "123"})
		assertCode(t, err, "invalid_payload")

		_, err = f.users.Create(ctx, service.CreateUserInput{Name: "Bad", Email: "b@example.com", Password: "secret123", Role: "ROOT"})
		assertCode(t, err, "invalid_payload")
	})

	t.Run("create defaults to approved user", func(t *testing.T) {
		user, err := f.users.Create(ctx, service.CreateUserInput{Name: "Made", Email: "made@example.com", Password: "secret123"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if user.Role != models.UserRoleUser || !user.IsApproved {
			t.Fatalf("created = %+v", user)
		}

		_, err = f.users.Create(ctx, service.CreateUserInput{Name: "Made", Email: "MADE@example.com", Password: "secret123"})
		assertCode(t, err, "email_exists")
	})

	t.Run("approve pending registrant", func(t *testing.T) {
		pending := f.register(t, "Pending", "pending@example.com")
		approved, err := f.users.Approve(ctx, pending.ID)
		if err != nil {
			t.Fatalf("approve: %v", err)
		}
		if !approved.IsApproved {
			t.Fatal("approve did not set flag")
		}

		_, err = f.users.Approve(ctx, "missing")
		assertCode(t, err, "not_found")
	})

	t.Run("update applies only given fields", func(t *testing.T) {
		user, err := f.users.Create(ctx, service.CreateUserInput{Name: "Patch", Email: "patch@example.com", Password: "secret123"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		updated, err := f.users.Update(ctx, admin, user.ID, service.UpdateUserInput{Role: strPtr("ADMIN")})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Role != models.UserRoleAdmin || updated.Name != "Patch" {
			t.Fatalf("updated = %+v", updated)
		}

		_, err = f.users.Update(ctx, admin, user.ID, service.UpdateUserInput{ThemePreference: strPtr("NEON")})
		assertCode(t, err, "invalid_payload")
		_, err = f.users.Update(ctx, admin, user.ID, service.UpdateUserInput{Password: strPtr("123")})
		assertCode(t, err, "invalid_payload")
	})

	t.Run("admin cannot demote or unapprove self", func(t *testing.T) {
		_, err := f.users.Update(ctx, admin, admin.ID, service.UpdateUserInput{Role: strPtr("USER")})
		assertCode(t, err, "cannot_demote_self")
		_, err = f.users.Update(ctx, admin, admin.ID, service.UpdateUserInput{IsApproved: boolPtr(false)})
		assertCode(t, err, "cannot_demote_self")
	})

	t.Run("delete", func(t *testing.T) {
		err := f.users.Delete(ctx, admin, admin.ID)
		assertCode(t, err, "cannot_delete_self")

		victim, err := f.users.Create(ctx, service.CreateUserInput{Name: "Gone", Email: "gone@example.com", Password: "secret123"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := f.users.Delete(ctx, admin, victim.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		err = f.users.Delete(ctx, admin, victim.ID)
		assertCode(t, err, "not_found")
	})
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "Me", "me@example.com")

	updated, err := f.users.UpdateProfile(ctx, user, service.ProfileInput{ThemePreference: strPtr("DARK")})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.ThemePreference != models.ThemeDark || updated.Name != "Me" {
		t.Fatalf("updated = %+v", updated)
	}

	_, err = f.users.UpdateProfile(ctx, user, service.ProfileInput{ThemePreference: strPtr("PINK")})
	assertCode(t, err, "invalid_theme")
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "First", "first@example.com")
	existing := f.register(t, "Boot", "boot@example.com")

	admin, err := f.users.EnsureAdmin(ctx, "Boot@Example.com", "Bootstrap", "secret123")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if admin.ID != existing.ID || admin.Role != models.UserRoleAdmin || !admin.IsApproved {
		t.Fatalf("ensure admin = %+v", admin)
	}

	if _, err := f.auth.Login(ctx, service.LoginInput{Email: "boot@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("login as bootstrap admin: %v", err)
	}
}
