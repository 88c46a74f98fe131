package financing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/loanbook/backend/internal/domain/shared"
)

// FinancingFilter defines filtering options for financing queries
type FinancingFilter struct {
	shared.Filter
	CustomerID *uuid.UUID          // Filter by customer
	Status     *FinancingStatus    // Filter by status
	Method     *AmortizationMethod // Filter by amortization method
	StartFrom  *time.Time          // Filter by start date range start
	StartTo    *time.Time          // Filter by start date range end
}

// FinancingRepository defines the interface for financing persistence.
// Implementations load and save the full aggregate including its
// installments; mutation itself happens only in memory through the
// aggregate's methods.
type FinancingRepository interface {
	// FindByID finds a financing by ID with its installments
	FindByID(ctx context.Context, id uuid.UUID) (*Financing, error)

	// FindByContractNumber finds a financing by contract number
	FindByContractNumber(ctx context.Context, contractNumber string) (*Financing, error)

	// FindAll finds financings with filtering and paging
	FindAll(ctx context.Context, filter FinancingFilter) ([]Financing, error)

	// FindActive finds all active financings, for correction runs and
	// overdue sweeps
	FindActive(ctx context.Context) ([]Financing, error)

	// Save creates or updates a financing and its installments
	Save(ctx context.Context, f *Financing) error

	// SaveWithLock saves with optimistic locking. expectedVersion is the
	// version the caller loaded the aggregate at; a use case may increment
	// the version any number of times (or not at all) before saving.
	SaveWithLock(ctx context.Context, f *Financing, expectedVersion int) error

	// Count counts financings matching the filter
	Count(ctx context.Context, filter FinancingFilter) (int64, error)
}
