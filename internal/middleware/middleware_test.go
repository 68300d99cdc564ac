package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/apperr"
	"github.com/kriwitj/nso-forms/internal/middleware"
	"github.com/kriwitj/nso-forms/internal/models"
)

type fakeResolver map[string]models.User

func (f fakeResolver) ResolveSession(_ context.Context, token string) (models.User, error) {
	if token == "broken" {
		return models.User{}, errors.New("db down")
	}
	user, ok := f[token]
	if !ok {
		return models.User{}, apperr.Unauthorized("unauthorized")
	}
	return user, nil
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	resolver := fakeResolver{
		"admin":   {ID: "u1", Role: models.UserRoleAdmin, IsApproved: true},
		"user":    {ID: "u2", Role: models.UserRoleUser, IsApproved: true},
		"pending": {ID: "u3", Role: models.UserRoleUser},
	}
	r.Use(middleware.Session("session_token", resolver, zerolog.Nop()))
	chain := append(handlers, func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.ID)
	})
	r.GET("/", chain...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSessionIsOptional(t *testing.T) {
	r := newRouter()

	tests := []struct {
		token  string
		status int
		body   string
	}{
		{token: "", status: http.StatusOK, body: "anonymous"},
		{token: "unknown", status: http.StatusOK, body: "anonymous"},
		{token: "user", status: http.StatusOK, body: "u2"},
		{token: "broken", status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := do(r, tt.token)
		if rec.Code != tt.status {
			t.Fatalf("token %q: status %d, want %d", tt.token, rec.Code, tt.status)
		}
		if tt.body != "" && rec.Body.String() != tt.body {
			t.Fatalf("token %q: body %q, want %q", tt.token, rec.Body.String(), tt.body)
		}
	}
}

func TestRequireUser(t *testing.T) {
	r := newRouter(middleware.RequireUser())

	tests := []struct {
		name   string
		token  string
		status int
		body   string
	}{
		{name: "no session", token: "", status: http.StatusUnauthorized, body: `{"error":"unauthorized"}`},
		{name: "unapproved", token: "pending", status: http.StatusForbidden, body: `{"error":"not_approved"}`},
		{name: "approved", token: "user", status: http.StatusOK, body: "u2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, tt.token)
			if rec.Code != tt.status || rec.Body.String() != tt.body {
				t.Fatalf("got %d %s, want %d %s", rec.Code, rec.Body.String(), tt.status, tt.body)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	r := newRouter(middleware.RequireUser(), middleware.RequireRoles(models.UserRoleAdmin))

	if rec := do(r, "user"); rec.Code != http.StatusForbidden {
		t.Fatalf("user: status %d, want 403", rec.Code)
	}
	if rec := do(r, "admin"); rec.Code != http.StatusOK {
		t.Fatalf("admin: status %d, want 200", rec.Code)
	}
}

func TestMetricsCountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(metrics.Handler())
	r.GET("/forms/:formId", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, id := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/forms/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	count, err := promtest.GatherAndCount(reg, "nsoforms_http_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 1 {
		t.Fatalf("series = %d, want 1 per route template", count)
	}
}

func TestRequestIDHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("missing generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "abc" {
		t.Fatalf("request id = %q, want abc", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "bad id\r\ninjected")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got == "" || strings.Contains(got, "injected") {
		t.Fatalf("request id = %q, want a fresh id", got)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(zerolog.Nop()))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError || rec.Body.String() != `{"error":"internal_server_error"}` {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CORS([]string{"https://forms.nso.go.th/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name        string
		method      string
		origin      string
		preflight   bool
		status      int
		allowOrigin string
	}{
		{name: "same origin", method: http.MethodGet, status: http.StatusOK},
		{name: "allowed origin", method: http.MethodGet, origin: "https://forms.nso.go.th", status: http.StatusOK, allowOrigin: "https://forms.nso.go.th"},
		{name: "foreign origin", method: http.MethodGet, origin: "https://evil.example", status: http.StatusOK},
		{name: "allowed preflight", method: http.MethodOptions, origin: "https://forms.nso.go.th", preflight: true, status: http.StatusNoContent, allowOrigin: "https://forms.nso.go.th"},
		{name: "foreign preflight", method: http.MethodOptions, origin: "https://evil.example", preflight: true, status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.allowOrigin {
				t.Fatalf("allow origin = %q, want %q", got, tt.allowOrigin)
			}
			wantCreds := ""
			if tt.allowOrigin != "" {
				wantCreds = "true"
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != wantCreds {
				t.Fatalf("allow credentials = %q, want %q", got, wantCreds)
			}
			if tt.preflight && tt.allowOrigin != "" && !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch) {
				t.Fatalf("allow methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}
