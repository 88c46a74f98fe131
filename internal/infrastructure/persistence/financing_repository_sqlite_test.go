package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/loanbook/backend/internal/domain/financing"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/loanbook/backend/internal/domain/shared/valueobject"
	"github.com/loanbook/backend/internal/infrastructure/persistence/models"
)

func setupFinancingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.FinancingModel{}, &models.FinancingInstallmentModel{})
	require.NoError(t, err)

	return db
}

func newTestFinancing(t *testing.T, contractNumber string) *financing.Financing {
	f, err := financing.NewFinancing(
		contractNumber,
		uuid.New(),
		"Maria Souza",
		valueobject.NewMoneyBRLFromFloat(12000),
		decimal.NewFromInt(12),
		12,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		financing.MethodPrice,
	)
	require.NoError(t, err)
	f.ClearDomainEvents()
	return f
}

func TestGormFinancingRepository_SaveAndFindByID(t *testing.T) {
	db := setupFinancingTestDB(t)
	repo := NewGormFinancingRepository(db)
	ctx := context.Background()

	t.Run("round-trips the aggregate with its installments", func(t *testing.T) {
		f := newTestFinancing(t, "FIN-2024-001")
		require.NoError(t, repo.Save(ctx, f))

		found, err := repo.FindByID(ctx, f.ID)
		require.NoError(t, err)
		require.NotNil(t, found)

		assert.Equal(t, f.ID, found.ID)
		assert.Equal(t, "FIN-2024-001", found.ContractNumber)
		assert.Equal(t, f.CustomerID, found.CustomerID)
		assert.Equal(t, financing.FinancingStatusActive, found.Status)
		assert.Equal(t, financing.MethodPrice, found.Method)
		assert.True(t, found.Principal.Equal(decimal.NewFromInt(12000)))
		assert.True(t, found.OutstandingBalance.Equal(decimal.NewFromInt(12000)))

		require.Len(t, found.Installments, 12)
		for i, inst := range found.Installments {
			assert.Equal(t, i+1, inst.SequenceNumber)
			assert.Equal(t, financing.InstallmentStatusPending, inst.Status)
			assert.Equal(t, f.ID, inst.FinancingID)
		}
	})

	t.Run("returns nil for unknown id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormFinancingRepository_FindByContractNumber(t *testing.T) {
	db := setupFinancingTestDB(t)
	repo := NewGormFinancingRepository(db)
	ctx := context.Background()

	f := newTestFinancing(t, "FIN-2024-002")
	require.NoError(t, repo.Save(ctx, f))

	t.Run("finds existing contract", func(t *testing.T) {
		found, err := repo.FindByContractNumber(ctx, "FIN-2024-002")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, f.ID, found.ID)
		assert.Len(t, found.Installments, 12)
	})

	t.Run("returns nil for unknown contract", func(t *testing.T) {
		found, err := repo.FindByContractNumber(ctx, "FIN-9999-999")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormFinancingRepository_SaveWithLock(t *testing.T) {
	db := setupFinancingTestDB(t)
	repo := NewGormFinancingRepository(db)
	ctx := context.Background()

	t.Run("persists a mutated aggregate when the version matches", func(t *testing.T) {
		f := newTestFinancing(t, "FIN-2024-003")
		require.NoError(t, repo.Save(ctx, f))

		loadedVersion := f.Version
		err := f.ApplyCorrection(
			valueobject.NewRate(decimal.NewFromFloat(0.005)),
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		)
		require.NoError(t, err)
		require.Equal(t, 2, f.Version)

		require.NoError(t, repo.SaveWithLock(ctx, f, loadedVersion))

		found, err := repo.FindByID(ctx, f.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, 2, found.Version)
		assert.True(t, found.OutstandingBalance.Equal(decimal.NewFromInt(12060)),
			"expected corrected balance 12060, got %s", found.OutstandingBalance)
	})

	t.Run("rejects a stale writer", func(t *testing.T) {
		f := newTestFinancing(t, "FIN-2024-004")
		require.NoError(t, repo.Save(ctx, f))

		loadedVersion := f.Version
		err := f.ApplyCorrection(
			valueobject.NewRate(decimal.NewFromFloat(0.01)),
			time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		)
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(ctx, f, loadedVersion))

		// Re-applying the same write claims the pre-correction version is
		// still in the database, which is no longer true.
		err = repo.SaveWithLock(ctx, f, loadedVersion)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("accepts a use case that bumps the version more than once", func(t *testing.T) {
		f := newTestFinancing(t, "FIN-2024-010")
		require.NoError(t, repo.Save(ctx, f))

		// A sweep flags every past-due installment in one unit of work,
		// incrementing the version once per installment.
		loadedVersion := f.Version
		reference := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
		pastDue := f.PastDueInstallments(reference)
		require.Len(t, pastDue, 3)
		for _, inst := range pastDue {
			require.NoError(t, f.MarkInstallmentOverdue(inst.SequenceNumber))
		}
		require.Equal(t, loadedVersion+3, f.Version)

		require.NoError(t, repo.SaveWithLock(ctx, f, loadedVersion))

		found, err := repo.FindByID(ctx, f.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, loadedVersion+3, found.Version)
		for seq := 1; seq <= 3; seq++ {
			assert.Equal(t, financing.InstallmentStatusOverdue, found.GetInstallment(seq).Status)
		}
		assert.Equal(t, financing.InstallmentStatusPending, found.GetInstallment(4).Status)
	})

	t.Run("accepts an idempotent repeat that leaves the version untouched", func(t *testing.T) {
		f := newTestFinancing(t, "FIN-2024-011")
		require.NoError(t, f.Complete(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
		f.ClearDomainEvents()
		require.NoError(t, repo.Save(ctx, f))

		reloaded, err := repo.FindByID(ctx, f.ID)
		require.NoError(t, err)
		require.NotNil(t, reloaded)

		loadedVersion := reloaded.Version
		require.NoError(t, reloaded.Complete(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)))
		require.Equal(t, loadedVersion, reloaded.Version)

		assert.NoError(t, repo.SaveWithLock(ctx, reloaded, loadedVersion))
	})
}

func TestGormFinancingRepository_InstallmentStateRoundTrip(t *testing.T) {
	db := setupFinancingTestDB(t)
	repo := NewGormFinancingRepository(db)
	ctx := context.Background()

	f := newTestFinancing(t, "FIN-2024-005")
	require.NoError(t, repo.Save(ctx, f))

	loadedVersion := f.Version
	total := f.Installments[0].TotalAmount
	paymentDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.AddPayment(1, valueobject.NewMoneyBRL(total), paymentDate, paymentDate))
	require.NoError(t, repo.SaveWithLock(ctx, f, loadedVersion))

	found, err := repo.FindByID(ctx, f.ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	first := found.GetInstallment(1)
	require.NotNil(t, first)
	assert.Equal(t, financing.InstallmentStatusPaid, first.Status)
	assert.True(t, first.PaidAmount.Equal(total))
	assert.True(t, first.RemainingAmount.IsZero())
	require.NotNil(t, first.PaymentDate)
	assert.Equal(t, financing.InstallmentStatusPending, found.GetInstallment(2).Status)
}

func TestGormFinancingRepository_FindActive(t *testing.T) {
	db := setupFinancingTestDB(t)
	repo := NewGormFinancingRepository(db)
	ctx := context.Background()

	active := newTestFinancing(t, "FIN-2024-006")
	require.NoError(t, repo.Save(ctx, active))

	cancelled := newTestFinancing(t, "FIN-2024-007")
	require.NoError(t, cancelled.Cancel("customer request"))
	cancelled.ClearDomainEvents()
	require.NoError(t, repo.Save(ctx, cancelled))

	found, err := repo.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, active.ID, found[0].ID)
	assert.Len(t, found[0].Installments, 12)
}

func TestGormFinancingRepository_FindAllAndCount(t *testing.T) {
	db := setupFinancingTestDB(t)
	repo := NewGormFinancingRepository(db)
	ctx := context.Background()

	first := newTestFinancing(t, "FIN-2024-008")
	require.NoError(t, repo.Save(ctx, first))

	second := newTestFinancing(t, "FIN-2024-009")
	require.NoError(t, second.Cancel("duplicate contract"))
	second.ClearDomainEvents()
	require.NoError(t, repo.Save(ctx, second))

	t.Run("filters by status", func(t *testing.T) {
		status := financing.FinancingStatusCancelled
		filter := financing.FinancingFilter{Filter: shared.DefaultFilter()}
		filter.Status = &status

		found, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, second.ID, found[0].ID)

		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("filters by customer", func(t *testing.T) {
		filter := financing.FinancingFilter{Filter: shared.DefaultFilter()}
		filter.CustomerID = &first.CustomerID

		found, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, first.ID, found[0].ID)
	})

	t.Run("pages results", func(t *testing.T) {
		filter := financing.FinancingFilter{Filter: shared.DefaultFilter()}
		filter.PageSize = 1
		filter.OrderBy = "contract_number"
		filter.OrderDir = "asc"

		page1, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, page1, 1)
		assert.Equal(t, "FIN-2024-008", page1[0].ContractNumber)

		filter.Page = 2
		page2, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, page2, 1)
		assert.Equal(t, "FIN-2024-009", page2[0].ContractNumber)

		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}
