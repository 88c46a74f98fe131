package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSystemRouter() *gin.Engine {
	h := NewSystemHandler("1.2.3")
	r := gin.New()
	group := r.Group("/api/v1/system")
	h.RegisterRoutes(group)
	return r
}

func TestSystemHandler_Info(t *testing.T) {
	r := setupSystemRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Loanbook Backend API", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
}

func TestSystemHandler_Ping(t *testing.T) {
	r := setupSystemRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}
