package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/apperr"
	"github.com/kriwitj/nso-forms/internal/config"
	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/service"
	"github.com/kriwitj/nso-forms/internal/testutil"
)

type fixture struct {
	store       *testutil.Store
	auth        *service.AuthService
	users       *service.UserService
	forms       *service.FormService
	submissions *service.SubmissionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testutil.NewStore()
	cfg := &config.AppConfig{
		Security: config.SecurityConfig{SessionTTL: 7 * 24 * time.Hour},
		Forms: config.FormsConfig{
			PageSizes:       []int{10, 20, 50, 100},
			DefaultPageSize: 20,
			TimeZone:        "Asia/Bangkok",
		},
	}
	logger := zerolog.Nop()

	return &fixture{
		store:       store,
		auth:        service.NewAuthService(store.Users(), store.Sessions(), cfg, logger),
		users:       service.NewUserService(store.Users(), logger),
		forms:       service.NewFormService(store.Forms(), store.Questions(), cfg.Forms, logger),
		submissions: service.NewSubmissionService(store.Forms(), store.Questions(), store.Submissions(), nil, logger),
	}
}

func (f *fixture) register(t *testing.T, name, email string) models.User {
	t.Helper()
	res, err := f.auth.Register(context.Background(), service.RegisterInput{Name: name, Email: email, Password: "secret123"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res.User
}

// approvedUser registers a user and approves them through the admin path.
func (f *fixture) approvedUser(t *testing.T, name, email string) models.User {
	t.Helper()
	user := f.register(t, name, email)
	if user.IsApproved {
		return user
	}
	approved, err := f.users.Approve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("approve %s: %v", email, err)
	}
	return approved
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", code)
	}
	appErr, ok := apperr.As(err)
	if !ok {
		t.Fatalf("expected apperr %q, got %v", code, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %q, got %q", code, appErr.Code)
	}
}

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }
