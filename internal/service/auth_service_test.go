package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/service"
)

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.Register(ctx, service.RegisterInput{Name: "Admin", Email: "  Admin@Example.com ", Password: "secret123"})
	if err != nil {
		t.Fatalf("register first: %v", err)
	}
	if first.User.Role != models.UserRoleAdmin || !first.User.IsApproved || first.PendingApproval {
		t.Fatalf("first registrant = %+v, want approved admin", first)
	}
	if first.User.Email != "admin@example.com" {
		t.Fatalf("email not normalized: %q", first.User.Email)
	}

	second, err := f.auth.Register(ctx, service.RegisterInput{Name: "Bee", Email: "bee@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if second.User.Role != models.UserRoleUser || second.User.IsApproved || !second.PendingApproval {
		t.Fatalf("second registrant = %+v, want pending user", second)
	}
}

func TestRegisterConcurrentSingleAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 4
	var wg sync.WaitGroup
	results := make([]service.RegisterResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.auth.Register(ctx, service.RegisterInput{
				Name:     "user",
				Email:    string(rune('a'+i)) + "@example.com",
				Password: "secret123",
			})
			if err != nil {
				t.Errorf("register %d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	admins := 0
	for _, res := range results {
		if res.User.Role == models.UserRoleAdmin {
			admins++
		}
	}
	if admins != 1 {
		t.Fatalf("admins = %d, want 1", admins)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, service.RegisterInput{Name: "", Email: "x@example.com", Password: "secret123"})
	assertCode(t, err, "missing_fields")

	f.register(t, "One", "one@example.com")
	_, err = f.auth.Register(ctx, service.RegisterInput{Name: "Dup", Email: "ONE@example.com", Password: "secret123"})
	assertCode(t, err, "email_exists")
}

func TestLoginAndResolveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "Admin", "admin@example.com")
	pending := f.register(t, "Pending", "pending@example.com")

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.auth.Login(ctx, service.LoginInput{Email: "admin@example.com", Password: "nope"})
		assertCode(t, err, "invalid_credentials")
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.auth.Login(ctx, service.LoginInput{Email: "ghost@example.com", Password: "secret123"})
		assertCode(t, err, "invalid_credentials")
	})

	t.Run("unapproved still authenticates", func(t *testing.T) {
		res, err := f.auth.Login(ctx, service.LoginInput{Email: "pending@example.com", Password: "secret123"})
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if res.User.IsApproved {
			t.Fatal("expected unapproved user")
		}
		user, err := f.auth.ResolveSession(ctx, res.Token)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if user.ID != pending.ID {
			t.Fatalf("resolved %s, want %s", user.ID, pending.ID)
		}
	})

	t.Run("session lasts seven days", func(t *testing.T) {
		res, err := f.auth.Login(ctx, service.LoginInput{Email: "Admin@example.com", Password: "secret123"})
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if got := time.Until(res.ExpiresAt); got < f.auth.SessionTTL()-time.Minute || got > f.auth.SessionTTL() {
			t.Fatalf("session expires in %v, want about %v", got, f.auth.SessionTTL())
		}
		if len(res.Token) != 64 {
			t.Fatalf("token length = %d, want 64 hex chars", len(res.Token))
		}
	})
}

func TestResolveSessionFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.register(t, "Admin", "admin@example.com")
	res, err := f.auth.Login(ctx, service.LoginInput{Email: "admin@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = f.auth.ResolveSession(ctx, "")
	assertCode(t, err, "unauthorized")

	_, err = f.auth.ResolveSession(ctx, "deadbeef")
	assertCode(t, err, "unauthorized")

	f.store.Sessions().Expire(admin.ID)
	_, err = f.auth.ResolveSession(ctx, res.Token)
	assertCode(t, err, "unauthorized")
	if n := f.store.Sessions().Count(); n != 0 {
		t.Fatalf("expired session not removed, %d left", n)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "Admin", "admin@example.com")
	res, err := f.auth.Login(ctx, service.LoginInput{Email: "admin@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := f.auth.Logout(ctx, res.Token); err != nil {
			t.Fatalf("logout #%d: %v", i+1, err)
		}
	}
	if _, err := f.auth.ResolveSession(ctx, res.Token); err == nil {
		t.Fatal("session still resolves after logout")
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.register(t, "Admin", "admin@example.com")
	for i := 0; i < 2; i++ {
		if _, err := f.auth.Login(ctx, service.LoginInput{Email: "admin@example.com", Password: "secret123"}); err != nil {
			t.Fatalf("login: %v", err)
		}
	}
	f.store.Sessions().Expire(admin.ID)

	removed, err := f.auth.CleanupExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
}
