package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanbook/backend/internal/infrastructure/cache"
	"github.com/loanbook/backend/internal/interfaces/http/middleware"
)

func setupIndexRouter() (*gin.Engine, *cache.InMemoryIndexSource) {
	middleware.SetupValidator()
	source := cache.NewInMemoryIndexSource()
	h := NewIndexHandler(source)

	r := gin.New()
	group := r.Group("/api/v1/indexes")
	h.RegisterRoutes(group)
	return r, source
}

func TestIndexHandler_Store(t *testing.T) {
	t.Run("stores an index value", func(t *testing.T) {
		r, source := setupIndexRouter()

		body := strings.NewReader(`{"code":"ipca","value":0.005,"reference_date":"2024-02-01"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/indexes", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		// Code is normalized to upper case
		stored, err := source.Latest(req.Context(), "IPCA")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "0.005", stored.Value.String())
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		r, _ := setupIndexRouter()

		body := strings.NewReader(`{"code":"IPCA"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/indexes", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects malformed reference date", func(t *testing.T) {
		r, _ := setupIndexRouter()

		body := strings.NewReader(`{"code":"IPCA","value":0.005,"reference_date":"02/01/2024"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/indexes", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIndexHandler_Latest(t *testing.T) {
	t.Run("returns the most recent value", func(t *testing.T) {
		r, _ := setupIndexRouter()

		for _, payload := range []string{
			`{"code":"IPCA","value":0.004,"reference_date":"2024-01-01"}`,
			`{"code":"IPCA","value":0.005,"reference_date":"2024-02-01"}`,
		} {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/indexes", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			require.Equal(t, http.StatusCreated, w.Code)
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/indexes/IPCA/latest", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "IPCA", data["code"])
		assert.Equal(t, "0.005", data["value"])
	})

	t.Run("unknown index returns 404", func(t *testing.T) {
		r, _ := setupIndexRouter()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/indexes/SELIC/latest", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
