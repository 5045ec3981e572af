package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookmarket_go/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString("user_id"),
			"name":    c.GetString("user_name"),
			"email":   c.GetString("user_email"),
		})
	})
	return r
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	r := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token not found, authorization denied")
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	r := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("x-auth-token", "garbage-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	r := newAuthTestRouter()

	expired := config.NewJWTService(&config.JWTConfig{
		SecretKey:      config.GetJWTConfig().SecretKey,
		ExpirationTime: -time.Minute,
		Issuer:         "bookmarket",
	})
	token, err := expired.GenerateToken("user-1", "张三", "zhangsan@example.com")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("x-auth-token", token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	r := newAuthTestRouter()

	token, err := config.GetJWTService().GenerateToken("user-1", "张三", "zhangsan@example.com")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("x-auth-token", token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
	assert.Contains(t, w.Body.String(), "zhangsan@example.com")
}

func TestAuthMiddlewareBearerFallback(t *testing.T) {
	r := newAuthTestRouter()

	token, err := config.GetJWTService().GenerateToken("user-2", "李四", "lisi@example.com")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-2")
}

func TestExtractTokenPrefersXAuthToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("x-auth-token", "primary")
	c.Request.Header.Set("Authorization", "Bearer fallback")

	// x-auth-token 优先
	assert.Equal(t, "primary", ExtractToken(c))
}
