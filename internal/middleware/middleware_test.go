package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockpos/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests-32chars"

func init() { gin.SetMode(gin.TestMode) }

func signToken(t *testing.T, role string, ttl time.Duration, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	claims := &middleware.JWTClaims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func protectedRouter(roles ...string) *gin.Engine {
	r := gin.New()
	chain := []gin.HandlerFunc{middleware.JWTAuth(testSecret)}
	if len(roles) > 0 {
		chain = append(chain, middleware.RequireRole(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": middleware.GetClaims(c).Role})
	})
	r.GET("/protected", chain...)
	return r
}

func get(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_NoToken(t *testing.T) {
	w := get(protectedRouter(), "/protected", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_ValidToken(t *testing.T) {
	tok := signToken(t, middleware.RoleCashier, time.Hour, jwt.SigningMethodHS256, []byte(testSecret))
	w := get(protectedRouter(), "/protected", map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cashier")
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	tok := signToken(t, middleware.RoleAdmin, -time.Minute, jwt.SigningMethodHS256, []byte(testSecret))
	w := get(protectedRouter(), "/protected", map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	tok := signToken(t, middleware.RoleAdmin, time.Hour, jwt.SigningMethodHS256, []byte("another-secret"))
	w := get(protectedRouter(), "/protected", map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_RejectsNoneAlgorithm(t *testing.T) {
	tok := signToken(t, middleware.RoleAdmin, time.Hour, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)
	w := get(protectedRouter(), "/protected", map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := protectedRouter(middleware.RoleAdmin, middleware.RoleManager)

	cashier := signToken(t, middleware.RoleCashier, time.Hour, jwt.SigningMethodHS256, []byte(testSecret))
	w := get(r, "/protected", map[string]string{"Authorization": "Bearer " + cashier})
	assert.Equal(t, http.StatusForbidden, w.Code)

	manager := signToken(t, middleware.RoleManager, time.Hour, jwt.SigningMethodHS256, []byte(testSecret))
	w = get(r, "/protected", map[string]string{"Authorization": "Bearer " + manager})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(middleware.RequestIDKey)) })

	w := get(r, "/", map[string]string{middleware.RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	w = get(r, "/", nil)
	assert.Len(t, w.Header().Get(middleware.RequestIDHeader), 36)

	w = get(r, "/", map[string]string{middleware.RequestIDHeader: strings.Repeat("x", 100)})
	assert.Len(t, w.Body.String(), 36)
}

func TestIPRateLimiter(t *testing.T) {
	rl := middleware.NewIPRateLimiter(20) // burst 2
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/", nil).Code)
	w := get(r, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	assert.Equal(t, 0, rl.Purge(time.Now()))
	assert.Equal(t, 1, rl.Purge(time.Now().Add(10*time.Minute)))
	assert.Equal(t, http.StatusOK, get(r, "/", nil).Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery())
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := get(r, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestErrorHandler_HidesDetails(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/", func(c *gin.Context) { _ = c.Error(assert.AnError) })

	w := get(r, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestLogger_RequestScopedFields(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger())
	r.GET("/items/:id", func(c *gin.Context) {
		middleware.ReqLog(c).Info().Msg("inside handler")
		c.Status(http.StatusNoContent)
	})

	get(r, "/items/7", map[string]string{"X-Request-ID": "req-abc"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"request_id":"req-abc"`)
	assert.Contains(t, lines[0], `"message":"inside handler"`)
	assert.Contains(t, lines[1], `"route":"/items/:id"`)
	assert.Contains(t, lines[1], `"status":204`)
}

func TestErrorHandler_SetsInternalCode(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/", func(c *gin.Context) { _ = c.Error(assert.AnError) })

	assert.Contains(t, get(r, "/", nil).Body.String(), `"code":"internal"`)
}

type recordingObserver struct{ routes []string }

func (o *recordingObserver) ObserveRequest(route, method, code string, _ float64) {
	o.routes = append(o.routes, route+" "+method+" "+code)
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	obs := &recordingObserver{}
	r := gin.New()
	r.Use(middleware.Metrics(obs))
	r.GET("/v1/sales/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	get(r, "/v1/sales/123", nil)
	get(r, "/nowhere", nil)
	assert.Equal(t, []string{"/v1/sales/:id GET 204", "unmatched GET 404"}, obs.routes)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS("https://pos.example.com/, https://admin.example.com"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/", map[string]string{"Origin": "https://pos.example.com"})
	assert.Equal(t, "https://pos.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, "/", map[string]string{"Origin": "https://evil.example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
