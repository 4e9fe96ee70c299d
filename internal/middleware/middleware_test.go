package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

func signToken(t *testing.T, secret, rol string, dur time.Duration, empleadoID *string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": uuid.NewString(), "username": "testuser", "rol": rol,
		"exp": time.Now().Add(dur).Unix(), "iat": time.Now().Unix(),
	}
	if empleadoID != nil {
		claims["empleado_id"] = *empleadoID
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func ginTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.JWTAuth(testSecret))
	r.GET("/protected", func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		emp, ok := claims.Empleado()
		c.JSON(http.StatusOK, gin.H{"rol": claims.Rol, "empleado": emp.String(), "ligado": ok})
	})
	r.GET("/admin", middleware.RequireRole("administrador", "supervisor"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── JWT ───────────────────────────────────────────────────────────────────────

func TestJWTAuth(t *testing.T) {
	r := ginTestRouter()

	assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", "basura").Code)
	assert.Equal(t, http.StatusUnauthorized,
		get(r, "/protected", signToken(t, testSecret, "cobrador", -time.Second, nil)).Code, "expirado")
	assert.Equal(t, http.StatusUnauthorized,
		get(r, "/protected", signToken(t, "otro-secreto", "cobrador", time.Hour, nil)).Code, "firma ajena")

	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(), "rol": "administrador", "typ": middleware.TokenRefresh,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", refresh).Code, "refresh token as bearer")

	emp := uuid.NewString()
	w := get(r, "/protected", signToken(t, testSecret, "cobrador", time.Hour, &emp))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), emp)
	assert.Contains(t, w.Body.String(), `"ligado":true`)
}

func TestRequireRole(t *testing.T) {
	r := ginTestRouter()

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", signToken(t, testSecret, "cobrador", time.Hour, nil)).Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin", signToken(t, testSecret, "supervisor", time.Hour, nil)).Code)
}

// ── Rate limiter ──────────────────────────────────────────────────────────────

func TestLimiter_VentanaFija(t *testing.T) {
	l := middleware.NewLimiter(2, time.Minute, "basta")
	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	ok, _ := l.Allow("1.1.1.1", t0)
	assert.True(t, ok)
	ok, _ = l.Allow("1.1.1.1", t0.Add(time.Second))
	assert.True(t, ok)
	ok, fin := l.Allow("1.1.1.1", t0.Add(2*time.Second))
	assert.False(t, ok)
	assert.Equal(t, t0.Add(time.Minute), fin)

	ok, _ = l.Allow("2.2.2.2", t0.Add(2*time.Second))
	assert.True(t, ok, "cada IP tiene su propia ventana")

	ok, _ = l.Allow("1.1.1.1", t0.Add(61*time.Second))
	assert.True(t, ok, "la ventana se renueva")

	assert.Equal(t, 1, l.Purge(t0.Add(90*time.Second)))
}

func TestLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", middleware.NewLimiter(1, time.Minute, "basta").Handler(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, get(r, "/ping", "").Code)
	w := get(r, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "basta")
}

// ── Request ID / CORS ─────────────────────────────────────────────────────────

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(middleware.RequestIDKey)) })

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))

	w = get(r, "/", "")
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestCORS_Produccion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CORS("production", "https://panel.example.com"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://panel.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://panel.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest(http.MethodOptions, "/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
