package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimitedRouter(t *testing.T, rps float64, burst int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(rps, burst, time.Minute)
	t.Cleanup(rl.Stop)

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func doRequest(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-For", ip)
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiterBurstExhaustion(t *testing.T) {
	// 令牌耗尽后返回 429 和统一错误包络
	router := setupLimitedRouter(t, 0.001, 2)

	assert.Equal(t, http.StatusOK, doRequest(router, "198.51.100.7").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "198.51.100.7").Code)

	w := doRequest(router, "198.51.100.7")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Too many requests", body["message"])
}

func TestRateLimiterPerClientBuckets(t *testing.T) {
	// 不同 IP 各自独立的令牌桶
	router := setupLimitedRouter(t, 0.001, 1)

	assert.Equal(t, http.StatusOK, doRequest(router, "198.51.100.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "198.51.100.1").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, "198.51.100.2").Code)
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(10, 10, time.Minute)
	rl.Stop()
	rl.Stop()
}

func TestClientKeyPrefersForwardedFor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "203.0.113.9", clientKey(c))
}
