package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appfinancing "github.com/loanbook/backend/internal/application/financing"
)

// OverdueRunner marks past-due installments for a reference date
type OverdueRunner interface {
	Run(ctx context.Context, reference time.Time) (*appfinancing.OverdueSweepResult, error)
}

// CorrectionRunner applies the latest index value to active financings
type CorrectionRunner interface {
	Run(ctx context.Context) (*appfinancing.CorrectionRunResult, error)
}

// MaintenanceExecutor executes scheduled maintenance jobs by dispatching
// to the application services
type MaintenanceExecutor struct {
	overdue    OverdueRunner
	correction CorrectionRunner
	logger     *zap.Logger
}

// NewMaintenanceExecutor creates a new maintenance executor
func NewMaintenanceExecutor(overdue OverdueRunner, correction CorrectionRunner, logger *zap.Logger) *MaintenanceExecutor {
	return &MaintenanceExecutor{
		overdue:    overdue,
		correction: correction,
		logger:     logger,
	}
}

// Execute runs a single maintenance job
func (e *MaintenanceExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeOverdueSweep:
		result, err := e.overdue.Run(ctx, job.Reference)
		if err != nil {
			return fmt.Errorf("overdue sweep failed: %w", err)
		}
		e.logger.Info("Overdue sweep finished",
			zap.String("job_id", job.ID.String()),
			zap.Int("financings_touched", result.FinancingsTouched),
			zap.Int("installments_flagged", result.Installments),
			zap.Int("failed", result.Failed),
		)
		return nil

	case JobTypeCorrectionRun:
		result, err := e.correction.Run(ctx)
		if err != nil {
			return fmt.Errorf("correction run failed: %w", err)
		}
		e.logger.Info("Correction run finished",
			zap.String("job_id", job.ID.String()),
			zap.String("index_code", result.IndexCode),
			zap.Int("applied", result.Applied),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
		)
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrInvalidJobType, job.Type)
	}
}

var _ JobExecutor = (*MaintenanceExecutor)(nil)
