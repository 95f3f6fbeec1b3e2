package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	code, _ := body["code"].(string)
	return code
}

// --- Auth ---

func TestJWTAuth(t *testing.T) {
	cfg := AuthConfig{Secret: testSecret}

	r := gin.New()
	r.Use(JWTAuth(cfg))
	r.GET("/me", func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.String(http.StatusOK, id+"|"+GetRole(c))
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, "other", Claims{UserID: "u1", Role: "ADMIN"}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired",
			header: "Bearer " + signToken(t, testSecret, Claims{UserID: "u1", Role: "ADMIN",
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid lower-case role",
			header:     "Bearer " + signToken(t, testSecret, Claims{UserID: "u1", Role: "dj"}),
			wantStatus: http.StatusOK,
			wantBody:   "u1|DJ",
		},
		{
			name: "subject fallback",
			header: "Bearer " + signToken(t, testSecret, Claims{Role: "CLIENT",
				RegisteredClaims: jwt.RegisteredClaims{Subject: "u2"}}),
			wantStatus: http.StatusOK,
			wantBody:   "u2|CLIENT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
			} else {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestParseToken_IssuerChecked(t *testing.T) {
	token := signToken(t, testSecret, Claims{UserID: "u1", Role: "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"}})

	_, err := ParseToken(AuthConfig{Secret: testSecret, Issuer: "prodj"}, token)
	assert.Error(t, err)

	claims, err := ParseToken(AuthConfig{Secret: testSecret}, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"no role", "", http.StatusUnauthorized},
		{"client", RoleClient, http.StatusForbidden},
		{"admin", RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) {
				if tt.role != "" {
					c.Set(ContextKeyRole, tt.role)
				}
				c.Next()
			})
			r.GET("/admin", AdminOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// --- Cron ---

func TestCronSecret(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
		wantCalled bool
	}{
		{"not configured", "", "Bearer x", http.StatusServiceUnavailable, false},
		{"missing header", "s3cret", "", http.StatusUnauthorized, false},
		{"wrong secret", "s3cret", "Bearer nope", http.StatusUnauthorized, false},
		{"prefix of secret", "s3cret", "Bearer s3cr", http.StatusUnauthorized, false},
		{"correct", "s3cret", "Bearer s3cret", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			r := gin.New()
			r.POST("/cron", CronSecret(tt.secret), func(c *gin.Context) {
				called = true
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/cron", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

// --- Request ID / access log ---

func TestRequestID_GeneratesNew(t *testing.T) {
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)

	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	headerID := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, headerID)
	assert.Equal(t, headerID, w.Body.String())
}

func TestRequestID_UsesExisting(t *testing.T) {
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)

	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "existing-request-id-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "existing-request-id-123", w.Body.String())
}

func TestAccessLog_DoesNotAlterResponse(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), AccessLog(logger.NewNop(), "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for path, want := range map[string]int{"/health": 200, "/boom": 500} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code)
	}
}

// --- Rate limiter ---

func TestLocalLimiter_Burst(t *testing.T) {
	l := newLocalLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2, EntryTTL: time.Minute})
	defer l.close()

	now := time.Now()
	assert.True(t, l.allow("k", now))
	assert.True(t, l.allow("k", now))
	assert.False(t, l.allow("k", now))
	assert.True(t, l.allow("other", now))

	assert.True(t, l.allow("k", now.Add(1100*time.Millisecond)))
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	defer rl.Stop()

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(t, w2))

	allowed, rejected := rl.Stats()
	assert.Equal(t, uint64(1), allowed)
	assert.Equal(t, uint64(1), rejected)
}

func TestRateLimiter_Unlimited(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})
	defer rl.Stop()
	for i := 0; i < 10; i++ {
		assert.True(t, rl.Allow(context.Background(), "k"))
	}
	rl.Stop()
}

// --- Idempotency ---

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func idempotentRouter(store RedisClient, status *int, calls *int) *gin.Engine {
	r := gin.New()
	r.Use(Idempotency(DefaultIdempotencyConfig(store)))
	r.PATCH("/bookings/:id/mark-paid", func(c *gin.Context) {
		*calls++
		c.JSON(*status, gin.H{"ok": *status < 400, "n": *calls})
	})
	return r
}

func patch(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/bookings/b1/mark-paid", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	status, calls := http.StatusOK, 0
	r := idempotentRouter(newFakeRedis(), &status, &calls)

	first := patch(r, "k1", `{}`)
	second := patch(r, "k1", `{}`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Code, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotency_KeyReusedWithDifferentBody(t *testing.T) {
	status, calls := http.StatusOK, 0
	r := idempotentRouter(newFakeRedis(), &status, &calls)

	patch(r, "k1", `{"a":1}`)
	w := patch(r, "k1", `{"a":2}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_OptionalKey(t *testing.T) {
	status, calls := http.StatusOK, 0
	r := idempotentRouter(newFakeRedis(), &status, &calls)

	patch(r, "", `{}`)
	patch(r, "", `{}`)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_ServerErrorsNotStored(t *testing.T) {
	status, calls := http.StatusInternalServerError, 0
	store := newFakeRedis()
	r := idempotentRouter(store, &status, &calls)

	patch(r, "k1", `{}`)
	status = http.StatusOK
	w := patch(r, "k1", `{}`)

	assert.Equal(t, 2, calls)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIdempotency_InProgress(t *testing.T) {
	store := newFakeRedis()
	status, calls := http.StatusOK, 0
	r := idempotentRouter(store, &status, &calls)

	// Seed an in-flight marker with the hash the router will compute.
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPatch, "/bookings/b1/mark-paid", nil)
	rec, _ := json.Marshal(idempotencyRecord{Status: statusProcessing, RequestHash: requestHash(c, []byte(`{}`))})
	store.data[IdempotencyKeyPrefix+"k1"] = string(rec)

	resp := patch(r, "k1", `{}`)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, 0, calls)
}
