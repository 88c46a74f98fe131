package financing

import (
	"context"
	"fmt"

	"github.com/loanbook/backend/internal/domain/financing"
	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/loanbook/backend/internal/domain/shared/valueobject"
	"github.com/loanbook/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CorrectionRunService applies the latest value of a correction index to
// every active financing. It is invoked by the scheduler once per period.
type CorrectionRunService struct {
	repo           financing.FinancingRepository
	indexSource    IndexSource
	indexCode      string
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCorrectionRunService creates a new CorrectionRunService
func NewCorrectionRunService(repo financing.FinancingRepository, indexSource IndexSource, indexCode string, logger *zap.Logger) *CorrectionRunService {
	return &CorrectionRunService{
		repo:        repo,
		indexSource: indexSource,
		indexCode:   indexCode,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *CorrectionRunService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CorrectionRunResult summarizes one correction run
type CorrectionRunResult struct {
	IndexCode string `json:"index_code"`
	Applied   int    `json:"applied"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// Run applies the latest stored index value to all active financings.
// Financings whose last correction date is not before the index reference
// date are skipped; individual failures do not abort the run.
func (s *CorrectionRunService) Run(ctx context.Context) (*CorrectionRunResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "correction_run", "run")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrIndexCode, s.indexCode)

	index, err := s.indexSource.Latest(ctx, s.indexCode)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load index value: %w", err)
	}
	if index == nil {
		err := shared.NewDomainError("INDEX_UNAVAILABLE", fmt.Sprintf("No value available for index %s", s.indexCode))
		telemetry.RecordError(span, err)
		return nil, err
	}

	active, err := s.repo.FindActive(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load active financings: %w", err)
	}

	result := &CorrectionRunResult{IndexCode: s.indexCode}
	rate := valueobject.NewRate(index.Value)

	for i := range active {
		f := &active[i]

		if !index.ReferenceDate.After(f.LastCorrectionDate) {
			result.Skipped++
			continue
		}

		loadedVersion := f.Version
		if err := f.ApplyCorrection(rate, index.ReferenceDate); err != nil {
			result.Failed++
			s.logger.Warn("Correction rejected",
				zap.String("financing_id", f.ID.String()),
				zap.String("contract_number", f.ContractNumber),
				zap.Error(err))
			continue
		}

		if err := s.repo.SaveWithLock(ctx, f, loadedVersion); err != nil {
			result.Failed++
			s.logger.Error("Failed to save corrected financing",
				zap.String("financing_id", f.ID.String()),
				zap.Error(err))
			continue
		}

		if s.eventPublisher != nil {
			_ = s.eventPublisher.Publish(ctx, f.GetDomainEvents()...)
			f.ClearDomainEvents()
		}
		result.Applied++
	}

	s.logger.Info("Correction run finished",
		zap.String("index_code", s.indexCode),
		zap.String("index_value", index.Value.String()),
		zap.Int("applied", result.Applied),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return result, nil
}
