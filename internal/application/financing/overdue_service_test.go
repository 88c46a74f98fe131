package financing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loanbook/backend/internal/domain/financing"
	"github.com/loanbook/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOverdueService_Run(t *testing.T) {
	t.Run("flags past due installments", func(t *testing.T) {
		repo := &MockFinancingRepository{}
		svc := NewOverdueService(repo, zap.NewNop())
		f := createStoredFinancing(t)

		// Flagging two installments bumps the version twice; the save must
		// still be matched against the version the sweep loaded.
		loadedVersion := f.Version
		repo.On("FindActive", mock.Anything).Return([]financing.Financing{*f}, nil)
		repo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*financing.Financing"), loadedVersion).Return(nil)

		// installments 1 and 2 are due 2024-02-01 and 2024-03-01
		result, err := svc.Run(context.Background(), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		assert.Equal(t, 1, result.FinancingsTouched)
		assert.Equal(t, 2, result.Installments)
		assert.Equal(t, 0, result.Failed)
		repo.AssertExpectations(t)
	})

	t.Run("skips financings with nothing past due", func(t *testing.T) {
		repo := &MockFinancingRepository{}
		svc := NewOverdueService(repo, zap.NewNop())
		f := createStoredFinancing(t)

		repo.On("FindActive", mock.Anything).Return([]financing.Financing{*f}, nil)

		result, err := svc.Run(context.Background(), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		assert.Equal(t, 0, result.FinancingsTouched)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ignores paid installments", func(t *testing.T) {
		repo := &MockFinancingRepository{}
		svc := NewOverdueService(repo, zap.NewNop())
		f := createStoredFinancing(t)
		require.NoError(t, f.AddPayment(1, valueobject.NewMoneyBRLFromFloat(1120),
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
		f.ClearDomainEvents()

		repo.On("FindActive", mock.Anything).Return([]financing.Financing{*f}, nil)
		repo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*financing.Financing"), mock.AnythingOfType("int")).Return(nil)

		result, err := svc.Run(context.Background(), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		assert.Equal(t, 1, result.Installments)
	})

	t.Run("propagates repository listing failure", func(t *testing.T) {
		repo := &MockFinancingRepository{}
		svc := NewOverdueService(repo, zap.NewNop())

		repo.On("FindActive", mock.Anything).Return([]financing.Financing(nil), errors.New("db down"))

		_, err := svc.Run(context.Background(), time.Now())
		assert.Error(t, err)
	})
}

func TestCorrectionRunService_Run(t *testing.T) {
	indexDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("applies index to active financings", func(t *testing.T) {
		repo := &MockFinancingRepository{}
		source := &MockIndexSource{}
		svc := NewCorrectionRunService(repo, source, "IPCA", zap.NewNop())
		f := createStoredFinancing(t)

		source.On("Latest", mock.Anything, "IPCA").Return(&IndexValue{
			Code:          "IPCA",
			Value:         decimal.NewFromFloat(0.005),
			ReferenceDate: indexDate,
		}, nil)
		repo.On("FindActive", mock.Anything).Return([]financing.Financing{*f}, nil)
		repo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*financing.Financing"), mock.AnythingOfType("int")).Return(nil)

		result, err := svc.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, result.Applied)
		assert.Equal(t, 0, result.Skipped)
		assert.Equal(t, 0, result.Failed)
	})

	t.Run("skips financings already corrected for the period", func(t *testing.T) {
		repo := &MockFinancingRepository{}
		source := &MockIndexSource{}
		svc := NewCorrectionRunService(repo, source, "IPCA", zap.NewNop())
		f := createStoredFinancing(t)
		require.NoError(t, f.ApplyCorrection(valueobject.NewRateFromFloat(0.005), indexDate))
		f.ClearDomainEvents()

		source.On("Latest", mock.Anything, "IPCA").Return(&IndexValue{
			Code:          "IPCA",
			Value:         decimal.NewFromFloat(0.005),
			ReferenceDate: indexDate,
		}, nil)
		repo.On("FindActive", mock.Anything).Return([]financing.Financing{*f}, nil)

		result, err := svc.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 0, result.Applied)
		assert.Equal(t, 1, result.Skipped)
		repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fails when no index value is available", func(t *testing.T) {
		repo := &MockFinancingRepository{}
		source := &MockIndexSource{}
		svc := NewCorrectionRunService(repo, source, "IPCA", zap.NewNop())

		source.On("Latest", mock.Anything, "IPCA").Return(nil, nil)

		_, err := svc.Run(context.Background())
		assert.Error(t, err)
	})
}

// =============================================================================
// Mock Index Source
// =============================================================================

type MockIndexSource struct {
	mock.Mock
}

func (m *MockIndexSource) Latest(ctx context.Context, code string) (*IndexValue, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IndexValue), args.Error(1)
}

func (m *MockIndexSource) Store(ctx context.Context, value IndexValue) error {
	args := m.Called(ctx, value)
	return args.Error(0)
}
