package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/farellandr/ticketmart/internal/models"
	"github.com/farellandr/ticketmart/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubParser struct {
	claims map[string]*service.Claims
}

func (p stubParser) ParseToken(token string) (*service.Claims, error) {
	if c, ok := p.claims[token]; ok {
		return c, nil
	}
	return nil, models.ErrInvalidToken
}

func TestJWTAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	parser := stubParser{claims: map[string]*service.Claims{
		"good": {UserID: userID, Role: models.RoleOrganizer},
	}}

	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(parser), func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		c.String(http.StatusOK, actor.UserID.String()+" "+string(actor.Role))
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, userID.String()+" organizer", w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	parser := stubParser{claims: map[string]*service.Claims{
		"admin":   {UserID: uuid.New(), Role: models.RoleAdmin},
		"shopper": {UserID: uuid.New(), Role: models.RoleShopper},
	}}
	r := gin.New()
	r.GET("/admin", JWTAuthMiddleware(parser), Authorize(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/unguarded", Authorize(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	do := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, do("/admin", "admin").Code)

	w := do("/admin", "shopper")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "User role shopper is not authorized")

	assert.Equal(t, http.StatusUnauthorized, do("/unguarded", "").Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeyRequestID))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRequestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/missing", entries[1].ContextMap()["path"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	down bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

var errRedisDown = errors.New("connection refused")

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return redis.NewStringResult("", errRedisDown)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return redis.NewBoolResult(false, errRedisDown)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func idempotentRouter(store *fakeRedis, calls *int, status int) *gin.Engine {
	r := gin.New()
	r.POST("/pay", Idempotency(store, time.Hour, zap.NewNop()), func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls})
	})
	return r
}

func postPay(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	store := newFakeRedis()
	calls := 0
	r := idempotentRouter(store, &calls, http.StatusCreated)

	first := postPay(r, "k1", `{"paymentIntentId":"pi_1"}`)
	second := postPay(r, "k1", `{"paymentIntentId":"pi_1"}`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotency_KeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeRedis()
	calls := 0
	r := idempotentRouter(store, &calls, http.StatusOK)

	postPay(r, "k1", `{"a":1}`)
	w := postPay(r, "k1", `{"a":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_InFlight(t *testing.T) {
	store := newFakeRedis()
	calls := 0
	r := idempotentRouter(store, &calls, http.StatusOK)

	postPay(r, "k1", `{}`)
	// Rewind the stored record to the processing state.
	key := IdempotencyKeyPrefix + "k1"
	raw := store.data[key]
	store.data[key] = strings.Replace(raw, `"status":"completed"`, `"status":"processing"`, 1)

	w := postPay(r, "k1", `{}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	store := newFakeRedis()
	calls := 0
	r := idempotentRouter(store, &calls, http.StatusInternalServerError)

	postPay(r, "k1", `{}`)
	postPay(r, "k1", `{}`)
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data)
}

func TestIdempotency_PassThrough(t *testing.T) {
	store := newFakeRedis()
	calls := 0
	r := idempotentRouter(store, &calls, http.StatusOK)

	postPay(r, "", `{}`)
	postPay(r, "", `{}`)
	assert.Equal(t, 2, calls, "requests without a key are never deduplicated")

	store.down = true
	postPay(r, "k2", `{}`)
	postPay(r, "k2", `{}`)
	assert.Equal(t, 4, calls, "an unreachable store fails open")
}

type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestIdempotency_UnreadableBody(t *testing.T) {
	store := newFakeRedis()
	calls := 0
	r := idempotentRouter(store, &calls, http.StatusOK)

	req := httptest.NewRequest(http.MethodPost, "/pay", failingBody{})
	req.Header.Set(IdempotencyKeyHeader, "k1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, calls)
	assert.Empty(t, store.data)
}
