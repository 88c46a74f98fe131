package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/loanbook/backend/internal/domain/financing"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/loanbook/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFinancingRepository implements FinancingRepository using GORM
type GormFinancingRepository struct {
	db *gorm.DB
}

// NewGormFinancingRepository creates a new GormFinancingRepository
func NewGormFinancingRepository(db *gorm.DB) *GormFinancingRepository {
	return &GormFinancingRepository{db: db}
}

// FindByID finds a financing by its ID with its installments
func (r *GormFinancingRepository) FindByID(ctx context.Context, id uuid.UUID) (*financing.Financing, error) {
	var model models.FinancingModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_number ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByContractNumber finds a financing by contract number
func (r *GormFinancingRepository) FindByContractNumber(ctx context.Context, contractNumber string) (*financing.Financing, error) {
	var model models.FinancingModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_number ASC")
		}).
		Where("contract_number = ?", contractNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds financings with filtering and paging
func (r *GormFinancingRepository) FindAll(ctx context.Context, filter financing.FinancingFilter) ([]financing.Financing, error) {
	var financingModels []models.FinancingModel
	query := r.db.WithContext(ctx).Model(&models.FinancingModel{}).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_number ASC")
		})
	query = r.applyFilter(query, filter)

	if err := query.Find(&financingModels).Error; err != nil {
		return nil, err
	}
	financings := make([]financing.Financing, len(financingModels))
	for i := range financingModels {
		financings[i] = *financingModels[i].ToDomain()
	}
	return financings, nil
}

// FindActive finds all active financings for correction runs and overdue sweeps
func (r *GormFinancingRepository) FindActive(ctx context.Context) ([]financing.Financing, error) {
	var financingModels []models.FinancingModel
	if err := r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_number ASC")
		}).
		Where("status = ?", financing.FinancingStatusActive).
		Order("created_at ASC").
		Find(&financingModels).Error; err != nil {
		return nil, err
	}
	financings := make([]financing.Financing, len(financingModels))
	for i := range financingModels {
		financings[i] = *financingModels[i].ToDomain()
	}
	return financings, nil
}

// Save creates or updates a financing and its installments
func (r *GormFinancingRepository) Save(ctx context.Context, f *financing.Financing) error {
	model := models.FinancingModelFromDomain(f)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		installments := model.Installments
		model.Installments = nil
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		return saveInstallments(tx, installments)
	})
}

// SaveWithLock saves with optimistic locking on the aggregate version.
// The row is matched against the version the caller loaded, not against
// f.Version-1: a use case may bump the version several times (an overdue
// sweep flagging multiple installments) or leave it untouched (an
// idempotent repeat of Complete or Cancel). Installments are written only
// when the version check passed, so a stale writer cannot clobber another
// writer's recalculation.
func (r *GormFinancingRepository) SaveWithLock(ctx context.Context, f *financing.Financing, expectedVersion int) error {
	model := models.FinancingModelFromDomain(f)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		installments := model.Installments
		model.Installments = nil

		result := tx.Model(model).
			Select("*").
			Omit("created_at").
			Where("id = ? AND version = ?", f.ID, expectedVersion).
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return saveInstallments(tx, installments)
	})
}

// saveInstallments upserts the aggregate's installment rows
func saveInstallments(tx *gorm.DB, installments []models.FinancingInstallmentModel) error {
	if len(installments) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_amount", "interest_amount", "amortization_amount",
			"due_date", "payment_date", "status",
			"paid_amount", "remaining_amount", "updated_at",
		}),
	}).Create(&installments).Error
}

// Count counts financings matching the filter
func (r *GormFinancingRepository) Count(ctx context.Context, filter financing.FinancingFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.FinancingModel{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormFinancingRepository) applyFilter(query *gorm.DB, filter financing.FinancingFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormFinancingRepository) applyFilterWithoutPagination(query *gorm.DB, filter financing.FinancingFilter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("contract_number ILIKE ? OR customer_name ILIKE ?",
			searchPattern, searchPattern)
	}

	// Apply specific filters
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Method != nil {
		query = query.Where("method = ?", *filter.Method)
	}
	if filter.StartFrom != nil {
		query = query.Where("start_date >= ?", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		query = query.Where("start_date <= ?", *filter.StartTo)
	}

	return query
}

// Ensure GormFinancingRepository implements FinancingRepository
var _ financing.FinancingRepository = (*GormFinancingRepository)(nil)
