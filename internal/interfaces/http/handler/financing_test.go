package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appfinancing "github.com/loanbook/backend/internal/application/financing"
	"github.com/loanbook/backend/internal/domain/financing"
	"github.com/loanbook/backend/internal/domain/shared/valueobject"
	"github.com/loanbook/backend/internal/interfaces/http/dto"
	"github.com/loanbook/backend/internal/interfaces/http/middleware"
)

// =============================================================================
// Mock Repository
// =============================================================================

type mockFinancingRepository struct {
	mock.Mock
}

func (m *mockFinancingRepository) FindByID(ctx context.Context, id uuid.UUID) (*financing.Financing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financing.Financing), args.Error(1)
}

func (m *mockFinancingRepository) FindByContractNumber(ctx context.Context, contractNumber string) (*financing.Financing, error) {
	args := m.Called(ctx, contractNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financing.Financing), args.Error(1)
}

func (m *mockFinancingRepository) FindAll(ctx context.Context, filter financing.FinancingFilter) ([]financing.Financing, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]financing.Financing), args.Error(1)
}

func (m *mockFinancingRepository) FindActive(ctx context.Context) ([]financing.Financing, error) {
	args := m.Called(ctx)
	return args.Get(0).([]financing.Financing), args.Error(1)
}

func (m *mockFinancingRepository) Save(ctx context.Context, f *financing.Financing) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *mockFinancingRepository) SaveWithLock(ctx context.Context, f *financing.Financing, expectedVersion int) error {
	args := m.Called(ctx, f, expectedVersion)
	return args.Error(0)
}

func (m *mockFinancingRepository) Count(ctx context.Context, filter financing.FinancingFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// =============================================================================
// Helpers
// =============================================================================

func setupFinancingRouter(repo *mockFinancingRepository) *gin.Engine {
	middleware.SetupValidator()
	service := appfinancing.NewFinancingService(repo)
	h := NewFinancingHandler(service)

	r := gin.New()
	group := r.Group("/api/v1/financings")
	h.RegisterRoutes(group)
	return r
}

func storedFinancing(t *testing.T) *financing.Financing {
	t.Helper()
	f, err := financing.NewFinancing(
		"FIN-2024-001",
		uuid.New(),
		"Maria Souza",
		valueobject.NewMoneyBRLFromFloat(12000),
		decimal.NewFromFloat(12),
		12,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		financing.MethodPrice,
	)
	require.NoError(t, err)
	f.ClearDomainEvents()
	return f
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

// =============================================================================
// Create
// =============================================================================

func TestFinancingHandler_Create(t *testing.T) {
	t.Run("creates financing and returns 201", func(t *testing.T) {
		repo := &mockFinancingRepository{}
		repo.On("FindByContractNumber", mock.Anything, "FIN-2024-001").Return(nil, nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		r := setupFinancingRouter(repo)

		body := jsonBody(t, gin.H{
			"contract_number": "FIN-2024-001",
			"customer_id":     uuid.New().String(),
			"customer_name":   "Maria Souza",
			"principal":       12000.0,
			"annual_rate":     12.0,
			"term_months":     12,
			"start_date":      "2024-01-01",
			"method":          "PRICE",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "FIN-2024-001", data["contract_number"])
		assert.Equal(t, "ACTIVE", data["status"])
		assert.Len(t, data["installments"], 12)
		repo.AssertExpectations(t)
	})

	t.Run("accepts a zero interest rate", func(t *testing.T) {
		repo := &mockFinancingRepository{}
		repo.On("FindByContractNumber", mock.Anything, "FIN-2024-002").Return(nil, nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(nil)
		r := setupFinancingRouter(repo)

		body := jsonBody(t, gin.H{
			"contract_number": "FIN-2024-002",
			"customer_id":     uuid.New().String(),
			"customer_name":   "Maria Souza",
			"principal":       12000.0,
			"annual_rate":     0.0,
			"term_months":     12,
			"start_date":      "2024-01-01",
			"method":          "PRICE",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := decodeResponse(t, w)
		require.True(t, resp.Success)

		// Zero-rate PRICE degrades to principal/term: 12 equal
		// interest-free installments of 1000.
		data := resp.Data.(map[string]interface{})
		installments := data["installments"].([]interface{})
		require.Len(t, installments, 12)
		for _, raw := range installments {
			inst := raw.(map[string]interface{})
			assert.Equal(t, "1000", inst["total_amount"])
			assert.Equal(t, "0", inst["interest_amount"])
		}
	})

	t.Run("rejects missing fields with 400", func(t *testing.T) {
		repo := &mockFinancingRepository{}
		r := setupFinancingRouter(repo)

		body := jsonBody(t, gin.H{"contract_number": "FIN-2024-001"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Details)
	})

	t.Run("rejects unknown amortization method with 400", func(t *testing.T) {
		repo := &mockFinancingRepository{}
		r := setupFinancingRouter(repo)

		body := jsonBody(t, gin.H{
			"contract_number": "FIN-2024-001",
			"customer_id":     uuid.New().String(),
			"customer_name":   "Maria Souza",
			"principal":       12000.0,
			"annual_rate":     12.0,
			"term_months":     12,
			"start_date":      "2024-01-01",
			"method":          "AMERICAN",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate contract number returns 409", func(t *testing.T) {
		repo := &mockFinancingRepository{}
		repo.On("FindByContractNumber", mock.Anything, "FIN-2024-001").Return(storedFinancing(t), nil)
		r := setupFinancingRouter(repo)

		body := jsonBody(t, gin.H{
			"contract_number": "FIN-2024-001",
			"customer_id":     uuid.New().String(),
			"customer_name":   "Maria Souza",
			"principal":       12000.0,
			"annual_rate":     12.0,
			"term_months":     12,
			"start_date":      "2024-01-01",
			"method":          "PRICE",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
	})
}

// =============================================================================
// GetByID / ListInstallments
// =============================================================================

func TestFinancingHandler_GetByID(t *testing.T) {
	t.Run("returns financing with installments", func(t *testing.T) {
		f := storedFinancing(t)
		repo := &mockFinancingRepository{}
		repo.On("FindByID", mock.Anything, f.ID).Return(f, nil)
		r := setupFinancingRouter(repo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/financings/"+f.ID.String(), nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Len(t, data["installments"], 12)
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		repo := &mockFinancingRepository{}
		repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)
		r := setupFinancingRouter(repo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/financings/"+uuid.New().String(), nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		repo := &mockFinancingRepository{}
		r := setupFinancingRouter(repo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/financings/not-a-uuid", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestFinancingHandler_ListInstallments(t *testing.T) {
	f := storedFinancing(t)
	repo := &mockFinancingRepository{}
	repo.On("FindByID", mock.Anything, f.ID).Return(f, nil)
	r := setupFinancingRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/financings/"+f.ID.String()+"/installments", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	items := resp.Data.([]interface{})
	assert.Len(t, items, 12)
}

// =============================================================================
// List
// =============================================================================

func TestFinancingHandler_List(t *testing.T) {
	t.Run("returns paginated list", func(t *testing.T) {
		f := storedFinancing(t)
		repo := &mockFinancingRepository{}
		repo.On("FindAll", mock.Anything, mock.Anything).Return([]financing.Financing{*f}, nil)
		repo.On("Count", mock.Anything, mock.Anything).Return(int64(1), nil)
		r := setupFinancingRouter(repo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/financings?page=1&page_size=20", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)
	})

	t.Run("filters by status", func(t *testing.T) {
		repo := &mockFinancingRepository{}
		repo.On("FindAll", mock.Anything, mock.MatchedBy(func(filter financing.FinancingFilter) bool {
			return filter.Status != nil && *filter.Status == financing.FinancingStatusActive
		})).Return([]financing.Financing{}, nil)
		repo.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)
		r := setupFinancingRouter(repo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/financings?status=ACTIVE", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		repo.AssertExpectations(t)
	})

	t.Run("rejects invalid status filter", func(t *testing.T) {
		repo := &mockFinancingRepository{}
		r := setupFinancingRouter(repo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/financings?status=SUSPENDED", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// =============================================================================
// Payments
// =============================================================================

func TestFinancingHandler_RegisterPayment(t *testing.T) {
	t.Run("credits a full payment", func(t *testing.T) {
		f := storedFinancing(t)
		installmentTotal := f.Installments[0].TotalAmount
		repo := &mockFinancingRepository{}
		repo.On("FindByID", mock.Anything, f.ID).Return(f, nil)
		repo.On("SaveWithLock", mock.Anything, f, mock.AnythingOfType("int")).Return(nil)
		r := setupFinancingRouter(repo)

		amount, _ := installmentTotal.Float64()
		body := jsonBody(t, gin.H{
			"sequence_number": 1,
			"amount":          amount,
			"payment_date":    "2024-02-01",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings/"+f.ID.String()+"/payments", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		installments := data["installments"].([]interface{})
		first := installments[0].(map[string]interface{})
		assert.Equal(t, "PAID", first["status"])
	})

	t.Run("overpayment returns 422", func(t *testing.T) {
		f := storedFinancing(t)
		repo := &mockFinancingRepository{}
		repo.On("FindByID", mock.Anything, f.ID).Return(f, nil)
		r := setupFinancingRouter(repo)

		body := jsonBody(t, gin.H{
			"sequence_number": 1,
			"amount":          999999.0,
			"payment_date":    "2024-02-01",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings/"+f.ID.String()+"/payments", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidPaymentAmount, resp.Error.Code)
	})

	t.Run("unknown sequence returns 422", func(t *testing.T) {
		f := storedFinancing(t)
		repo := &mockFinancingRepository{}
		repo.On("FindByID", mock.Anything, f.ID).Return(f, nil)
		r := setupFinancingRouter(repo)

		body := jsonBody(t, gin.H{
			"sequence_number": 99,
			"amount":          100.0,
			"payment_date":    "2024-02-01",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings/"+f.ID.String()+"/payments", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

// =============================================================================
// Corrections
// =============================================================================

func TestFinancingHandler_ApplyCorrection(t *testing.T) {
	t.Run("applies correction and returns updated balance", func(t *testing.T) {
		f := storedFinancing(t)
		repo := &mockFinancingRepository{}
		repo.On("FindByID", mock.Anything, f.ID).Return(f, nil)
		repo.On("SaveWithLock", mock.Anything, f, mock.AnythingOfType("int")).Return(nil)
		r := setupFinancingRouter(repo)

		body := jsonBody(t, gin.H{
			"index_value":     0.005,
			"correction_date": "2024-02-01",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings/"+f.ID.String()+"/corrections", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("correction before last correction date returns 422", func(t *testing.T) {
		f := storedFinancing(t)
		repo := &mockFinancingRepository{}
		repo.On("FindByID", mock.Anything, f.ID).Return(f, nil)
		r := setupFinancingRouter(repo)

		body := jsonBody(t, gin.H{
			"index_value":     0.005,
			"correction_date": "2020-01-01",
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings/"+f.ID.String()+"/corrections", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidCorrectionDate, resp.Error.Code)
	})
}

// =============================================================================
// Cancel
// =============================================================================

func TestFinancingHandler_Cancel(t *testing.T) {
	t.Run("cancels an active financing", func(t *testing.T) {
		f := storedFinancing(t)
		repo := &mockFinancingRepository{}
		repo.On("FindByID", mock.Anything, f.ID).Return(f, nil)
		repo.On("SaveWithLock", mock.Anything, f, mock.AnythingOfType("int")).Return(nil)
		r := setupFinancingRouter(repo)

		body := jsonBody(t, gin.H{"reason": "customer requested termination"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings/"+f.ID.String()+"/cancel", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "CANCELLED", data["status"])
	})

	t.Run("missing reason returns 400", func(t *testing.T) {
		repo := &mockFinancingRepository{}
		r := setupFinancingRouter(repo)

		body := jsonBody(t, gin.H{})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/financings/"+uuid.New().String()+"/cancel", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
