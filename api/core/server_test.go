package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/authenx/evidence-hub/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestVersionEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.InitConfig()

	router, cleanup := setupRouter(&ServerDependencies{})
	defer cleanup()

	req, _ := http.NewRequest("GET", "/version", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), config.Version)
}

func TestHealthReportsUninitializedDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.InitConfig()

	router, cleanup := setupRouter(&ServerDependencies{})
	defer cleanup()

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not initialized")
}
