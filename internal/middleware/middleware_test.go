package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/observability"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func protectedRouter(tokens TokenParser) *gin.Engine {
	r := gin.New()
	r.GET("/me", Auth(tokens), func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "email": Email(c)})
	})
	return r
}

// =============================================================================
// extractToken Tests
// =============================================================================

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"bearer", map[string]string{"Authorization": "Bearer abc123"}, "abc123"},
		{"lowercase scheme", map[string]string{"Authorization": "bearer abc123"}, "abc123"},
		{"access token header", map[string]string{"x-access-token": "abc123"}, "abc123"},
		{"basic auth", map[string]string{"Authorization": "Basic abc123"}, ""},
		{"only bearer", map[string]string{"Authorization": "Bearer"}, ""},
		{"missing", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, extractToken(c))
		})
	}
}

// =============================================================================
// Auth Tests
// =============================================================================

func TestAuth_ValidToken(t *testing.T) {
	tokens := service.NewTokenIssuer("secret", time.Hour)
	token, err := tokens.Issue(&models.User{ID: 42, Email: "ann@example.com"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protectedRouter(tokens).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 42, body.ID)
	assert.Equal(t, "ann@example.com", body.Email)
}

func TestAuth_MissingToken(t *testing.T) {
	w := httptest.NewRecorder()
	protectedRouter(service.NewTokenIssuer("secret", time.Hour)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperr.CodeNoToken, decodeError(t, w).Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("x-access-token", "not-a-token")
	protectedRouter(service.NewTokenIssuer("secret", time.Hour)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperr.CodeInvalidToken, decodeError(t, w).Code)
}

// =============================================================================
// Abort Tests
// =============================================================================

func TestAbort(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apperr.NotFound("Question not found"), http.StatusNotFound, apperr.CodeNotFound},
		{"forbidden", apperr.Forbidden("no"), http.StatusForbidden, apperr.CodeForbidden},
		{"wrapped", errors.Join(errors.New("ctx"), apperr.Conflict("Voted")), http.StatusConflict, apperr.CodeConflict},
		{"plain error", errors.New("db down"), http.StatusInternalServerError, apperr.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Abort(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestAbort_FieldErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	Abort(c, apperr.Validation(apperr.Field(apperr.LocationBody, "/email", apperr.CodeInvalidParameter, "bad")))

	body := decodeError(t, w)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "/email", body.Errors[0].Field)
}

// =============================================================================
// RequestLogger Tests
// =============================================================================

func TestRequestLogger_AssignsIDAndCountsRequest(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/things/:id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})
	counter := observability.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/things/:id", "200")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/7", nil))

	id := w.Header().Get(requestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRequestLogger_KeepsIncomingID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(requestIDHeader))
}

// =============================================================================
// RateLimiter Tests
// =============================================================================

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	defer rl.Close()
	frozen := time.Now()
	rl.now = func() time.Time { return frozen }

	for i := 0; i < 3; i++ {
		require.True(t, rl.Allow("ip-a"), "request %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow("ip-a"))
	assert.True(t, rl.Allow("ip-b"), "keys are independent")

	frozen = frozen.Add(time.Second)
	assert.True(t, rl.Allow("ip-a"), "one token refills per second")
}

func TestRateLimiter_Handler(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Close()
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, apperr.CodeTooManyRequests, decodeError(t, second).Code)
}

func TestRateLimiter_SweepDropsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Close()
	frozen := time.Now()
	rl.now = func() time.Time { return frozen }
	rl.Allow("ip-a")

	frozen = frozen.Add(limiterIdle + time.Second)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.visitors)
}

// =============================================================================
// Recovery Tests
// =============================================================================

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperr.CodeInternal, decodeError(t, w).Code)
}
