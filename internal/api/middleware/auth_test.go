package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/easymo/notify/internal/repository/redis"
	"github.com/easymo/notify/internal/security"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	tokens := security.NewTokenManager("test-secret", time.Hour)
	auth := NewAuthMiddleware(tokens)

	validToken, err := tokens.Generate("voice-agent", nil)
	require.NoError(t, err)

	var gotService string
	handler := auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotService, _ = GetServiceName(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", authHeader: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer not.a.token", wantStatus: http.StatusUnauthorized},
		{name: "valid token", authHeader: "Bearer " + validToken, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	assert.Equal(t, "voice-agent", gotService)
}

func TestAuthenticate_RejectsTokenFromOtherSecret(t *testing.T) {
	auth := NewAuthMiddleware(security.NewTokenManager("secret-a", time.Hour))
	other := security.NewTokenManager("secret-b", time.Hour)

	token, err := other.Generate("voice-agent", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	auth.Authenticate(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	limiter := redis.NewRateLimiter(redis.NewClientFromRedis(rdb), 2, 0)
	limit := NewRateLimitMiddleware(limiter)
	tokens := security.NewTokenManager("test-secret", time.Hour)
	auth := NewAuthMiddleware(tokens)

	token, err := tokens.Generate("voice-agent", nil)
	require.NoError(t, err)

	handler := auth.Authenticate(limit.Limit(okHandler()))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/notifications", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	first := do()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	second := do()
	assert.Equal(t, http.StatusOK, second.Code)

	third := do()
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("X-RateLimit-Reset"))
}

func TestLimit_RequiresAuthenticatedService(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	limit := NewRateLimitMiddleware(redis.NewRateLimiter(redis.NewClientFromRedis(rdb), 2, 0))

	rec := httptest.NewRecorder()
	limit.Limit(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLimit_FailsOpenWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	limiter := redis.NewRateLimiter(redis.NewClientFromRedis(rdb), 1, 0)
	limit := NewRateLimitMiddleware(limiter)
	tokens := security.NewTokenManager("test-secret", time.Hour)
	auth := NewAuthMiddleware(tokens)

	token, err := tokens.Generate("voice-agent", nil)
	require.NoError(t, err)

	handler := auth.Authenticate(limit.Limit(okHandler()))

	req := httptest.NewRequest(http.MethodPost, "/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
