package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/security/audit"
	"github.com/yourorg/tastebook/internal/security/auth"
	"github.com/yourorg/tastebook/internal/security/ratelimit"
	"github.com/yourorg/tastebook/internal/tenant"
)

type members map[string]*domain.Member

func (m members) GetMember(_ context.Context, id string) (*domain.Member, error) {
	if mem, ok := m[id]; ok {
		return mem, nil
	}
	return nil, domain.ErrNotFound
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func actorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := tenant.FromContext(r.Context())
		if !ok {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(actor.HouseholdID + "/" + actor.Username))
	})
}

func TestTenantMiddleware(t *testing.T) {
	tm := auth.NewTokenManager("secret", "tastebook")
	resolver := tenant.NewResolver(members{
		"m1": {ID: "m1", HouseholdID: "h1", Username: "giulia"},
	}, time.Minute, quietLogger())
	h := TenantMiddleware(tm, resolver, quietLogger())(actorEcho())

	token, err := tm.GenerateToken("h1", "m1", "giulia", time.Hour)
	require.NoError(t, err)
	forged, err := tm.GenerateToken("h2", "m1", "giulia", time.Hour)
	require.NoError(t, err)
	ghost, err := tm.GenerateToken("h1", "m9", "ghost", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{name: "valid token", path: "/api/places", header: "Bearer " + token, status: http.StatusOK, body: "h1/giulia"},
		{name: "missing header", path: "/api/places", status: http.StatusUnauthorized},
		{name: "wrong scheme", path: "/api/places", header: "Token " + token, status: http.StatusUnauthorized},
		{name: "garbage token", path: "/api/places", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "household mismatch", path: "/api/places", header: "Bearer " + forged, status: http.StatusUnauthorized},
		{name: "unknown member", path: "/api/places", header: "Bearer " + ghost, status: http.StatusUnauthorized},
		{name: "public path", path: "/healthz", status: http.StatusOK, body: "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.NewLimiter(1, time.Minute, quietLogger())
	h := RateLimitMiddleware(limiter, quietLogger())(actorEcho())

	call := func(household string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/places", nil)
		if household != "" {
			req = req.WithContext(tenant.WithActor(req.Context(), tenant.Actor{HouseholdID: household, MemberID: "m"}))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("h1").Code)
	rec := call("h1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, call("h2").Code)
	assert.Equal(t, http.StatusOK, call("").Code)
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = audit.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestStrictJSONFlag(t *testing.T) {
	h := ValidateJSONContentType(quietLogger())(actorEcho())
	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/tags", strings.NewReader("name=x"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post())
	t.Setenv("FLAG_STRICT_JSON", "true")
	assert.Equal(t, http.StatusUnsupportedMediaType, post())
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://app.example"})(actorEcho())
	req := httptest.NewRequest(http.MethodOptions, "/api/places", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/places", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
