package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfinancing "github.com/loanbook/backend/internal/application/financing"
)

type stubOverdueRunner struct {
	result *appfinancing.OverdueSweepResult
	err    error
	calls  int
	ref    time.Time
}

func (s *stubOverdueRunner) Run(ctx context.Context, reference time.Time) (*appfinancing.OverdueSweepResult, error) {
	s.calls++
	s.ref = reference
	return s.result, s.err
}

type stubCorrectionRunner struct {
	result *appfinancing.CorrectionRunResult
	err    error
	calls  int
}

func (s *stubCorrectionRunner) Run(ctx context.Context) (*appfinancing.CorrectionRunResult, error) {
	s.calls++
	return s.result, s.err
}

func TestMaintenanceExecutor_OverdueSweep(t *testing.T) {
	overdue := &stubOverdueRunner{result: &appfinancing.OverdueSweepResult{FinancingsTouched: 2, Installments: 5}}
	correction := &stubCorrectionRunner{}
	executor := NewMaintenanceExecutor(overdue, correction, newTestLogger())

	reference := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	job := NewJob(JobTypeOverdueSweep, reference, 3)

	err := executor.Execute(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, 1, overdue.calls)
	assert.Equal(t, reference, overdue.ref)
	assert.Equal(t, 0, correction.calls)
}

func TestMaintenanceExecutor_CorrectionRun(t *testing.T) {
	overdue := &stubOverdueRunner{}
	correction := &stubCorrectionRunner{result: &appfinancing.CorrectionRunResult{IndexCode: "IPCA", Applied: 3}}
	executor := NewMaintenanceExecutor(overdue, correction, newTestLogger())

	job := NewJob(JobTypeCorrectionRun, time.Now(), 3)

	err := executor.Execute(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, 0, overdue.calls)
	assert.Equal(t, 1, correction.calls)
}

func TestMaintenanceExecutor_PropagatesFailure(t *testing.T) {
	overdue := &stubOverdueRunner{err: errors.New("database unavailable")}
	executor := NewMaintenanceExecutor(overdue, &stubCorrectionRunner{}, newTestLogger())

	job := NewJob(JobTypeOverdueSweep, time.Now(), 3)

	err := executor.Execute(context.Background(), job)

	assert.ErrorContains(t, err, "database unavailable")
}

func TestMaintenanceExecutor_UnknownJobType(t *testing.T) {
	executor := NewMaintenanceExecutor(&stubOverdueRunner{}, &stubCorrectionRunner{}, newTestLogger())

	job := NewJob(JobType("REINDEX"), time.Now(), 3)

	err := executor.Execute(context.Background(), job)

	assert.ErrorIs(t, err, ErrInvalidJobType)
}
