package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-api/internal/auth"
	"account-api/internal/cache"
	"account-api/internal/metrics"
	"account-api/internal/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var e response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func protectedEngine(secret string) *gin.Engine {
	router := gin.New()
	router.GET("/protected", Authenticate(secret), func(c *gin.Context) {
		ident, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, ident)
	})
	return router
}

func TestAuthenticateMissingHeader(t *testing.T) {
	router := protectedEngine("secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	e := decodeEnvelope(t, w)
	assert.Equal(t, response.CodeUnauthorized, e.Error.Code)
	assert.Equal(t, "authentication token required", e.Message)
}

func TestAuthenticateValidBearer(t *testing.T) {
	router := protectedEngine("secret")
	token, err := auth.Sign("secret", 7, "a@x.com", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var ident Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ident))
	assert.Equal(t, int64(7), ident.ID)
	assert.Equal(t, "a@x.com", ident.Email)
}

func TestAuthenticateLenientScheme(t *testing.T) {
	// a header without the Bearer prefix is treated as the raw token
	router := protectedEngine("secret")
	token, err := auth.Sign("secret", 7, "a@x.com", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticateEmptyToken(t *testing.T) {
	router := protectedEngine("secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer ")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid token format", decodeEnvelope(t, w).Message)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	router := protectedEngine("secret")
	token, err := auth.Sign("secret", 7, "a@x.com", -time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token expired", decodeEnvelope(t, w).Message)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	router := protectedEngine("secret")
	token, err := auth.Sign("another-secret", 7, "a@x.com", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid token", decodeEnvelope(t, w).Message)
}

func TestAuthenticateMissingServerSecret(t *testing.T) {
	// a misconfigured secret is reported as unauthorized, not 500
	router := protectedEngine("")
	token, err := auth.Sign("whatever", 7, "a@x.com", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "server configuration error", decodeEnvelope(t, w).Message)
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	router := gin.New()
	router.GET("/guarded", RequireRole(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolePassesAnyAuthenticatedIdentity(t *testing.T) {
	router := gin.New()
	router.GET("/guarded", Authenticate("secret"), RequireRole(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	token, err := auth.Sign("secret", 1, "a@x.com", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidateHeaders(t *testing.T) {
	router := gin.New()
	router.Use(ValidateHeaders())
	router.GET("/r", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/r", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name        string
		method      string
		accept      string
		contentType string
		want        int
	}{
		{"get with json accept", http.MethodGet, "application/json", "", http.StatusOK},
		{"get without accept", http.MethodGet, "", "", http.StatusNotAcceptable},
		{"get with wrong accept", http.MethodGet, "text/html", "", http.StatusNotAcceptable},
		{"post with both headers", http.MethodPost, "application/json", "application/json", http.StatusOK},
		{"post without content type", http.MethodPost, "application/json", "", http.StatusNotAcceptable},
		{"post with wrong content type", http.MethodPost, "application/json", "text/plain", http.StatusNotAcceptable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/r", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusNotAcceptable {
				assert.Equal(t, response.CodeNotAcceptable, decodeEnvelope(t, w).Error.Code)
			}
		})
	}
}

func TestUnmatchedRouteIsForbidden(t *testing.T) {
	router := gin.New()
	router.NoRoute(ForbidAccess)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.CodeForbidden, decodeEnvelope(t, w).Error.Code)
}

func TestRateLimitExceeded(t *testing.T) {
	logger := discardLogger()
	h := NewHandler(Config{JWTSecret: "secret", Environment: "test", Logger: logger},
		nil, cache.New(0), NewClientLimiter(2, time.Hour), metrics.New())

	router := gin.New()
	router.Use(h.rateLimit())
	router.GET("/r", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/r", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/r", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, response.CodeRateLimited, decodeEnvelope(t, w).Error.Code)
}

func TestClientLimiterPrune(t *testing.T) {
	l := NewClientLimiter(10, time.Minute)
	l.Allow("1.2.3.4")
	l.Allow("5.6.7.8")

	assert.Equal(t, 0, l.Prune(time.Minute))
	assert.Equal(t, 2, l.Prune(0))
}

func TestCORSPreflight(t *testing.T) {
	router := gin.New()
	router.Use(corsMiddleware())
	router.GET("/r", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/r", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}
