package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanbook/backend/internal/infrastructure/scheduler"
	"github.com/loanbook/backend/internal/interfaces/http/middleware"
)

type stubMaintenanceTrigger struct {
	jobType   scheduler.JobType
	reference time.Time
	err       error
	calls     int
}

func (s *stubMaintenanceTrigger) TriggerManualRun(ctx context.Context, jobType scheduler.JobType, reference time.Time) error {
	s.calls++
	s.jobType = jobType
	s.reference = reference
	return s.err
}

func setupMaintenanceRouter(trigger *stubMaintenanceTrigger) *gin.Engine {
	middleware.SetupValidator()
	h := NewMaintenanceHandler(trigger)

	r := gin.New()
	group := r.Group("/api/v1/maintenance")
	h.RegisterRoutes(group)
	return r
}

func TestMaintenanceHandler_TriggerOverdueSweep(t *testing.T) {
	t.Run("schedules with default reference", func(t *testing.T) {
		trigger := &stubMaintenanceTrigger{}
		r := setupMaintenanceRouter(trigger)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/overdue-sweep", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, 1, trigger.calls)
		assert.Equal(t, scheduler.JobTypeOverdueSweep, trigger.jobType)
		assert.WithinDuration(t, time.Now(), trigger.reference, 5*time.Second)
	})

	t.Run("accepts explicit reference date", func(t *testing.T) {
		trigger := &stubMaintenanceTrigger{}
		r := setupMaintenanceRouter(trigger)

		body := strings.NewReader(`{"reference_date":"2024-03-15"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/overdue-sweep", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), trigger.reference)
	})

	t.Run("rejects malformed reference date", func(t *testing.T) {
		trigger := &stubMaintenanceTrigger{}
		r := setupMaintenanceRouter(trigger)

		body := strings.NewReader(`{"reference_date":"15/03/2024"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/overdue-sweep", body)
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, trigger.calls)
	})
}

func TestMaintenanceHandler_TriggerCorrectionRun(t *testing.T) {
	trigger := &stubMaintenanceTrigger{}
	r := setupMaintenanceRouter(trigger)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/correction-run", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, scheduler.JobTypeCorrectionRun, trigger.jobType)

	resp := decodeResponse(t, w)
	require.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "CORRECTION_RUN", data["job_type"])
}
