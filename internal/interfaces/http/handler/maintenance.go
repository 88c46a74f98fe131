package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loanbook/backend/internal/infrastructure/scheduler"
	"github.com/loanbook/backend/internal/interfaces/http/dto"
)

// MaintenanceTrigger schedules maintenance jobs on demand.
type MaintenanceTrigger interface {
	TriggerManualRun(ctx context.Context, jobType scheduler.JobType, reference time.Time) error
}

// MaintenanceHandler exposes manual triggers for the scheduled
// maintenance jobs (overdue sweep, correction run).
type MaintenanceHandler struct {
	BaseHandler
	trigger MaintenanceTrigger
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(trigger MaintenanceTrigger) *MaintenanceHandler {
	return &MaintenanceHandler{trigger: trigger}
}

// RegisterRoutes registers maintenance routes on the given group
func (h *MaintenanceHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/overdue-sweep", h.TriggerOverdueSweep)
	group.POST("/correction-run", h.TriggerCorrectionRun)
}

// TriggerMaintenanceRequest optionally overrides the reference date
type TriggerMaintenanceRequest struct {
	ReferenceDate string `json:"reference_date" binding:"omitempty,datetime=2006-01-02"`
}

// TriggerMaintenanceResponse confirms a scheduled job
type TriggerMaintenanceResponse struct {
	JobType       string    `json:"job_type"`
	ReferenceDate time.Time `json:"reference_date"`
	ScheduledAt   time.Time `json:"scheduled_at"`
}

// TriggerOverdueSweep godoc
// @Summary Trigger an overdue sweep
// @Description Schedules an immediate run of the overdue flagging job
// @Tags maintenance
// @Accept json
// @Produce json
// @Param request body TriggerMaintenanceRequest false "Optional reference date"
// @Success 202 {object} dto.Response
// @Router /maintenance/overdue-sweep [post]
func (h *MaintenanceHandler) TriggerOverdueSweep(c *gin.Context) {
	h.schedule(c, scheduler.JobTypeOverdueSweep)
}

// TriggerCorrectionRun godoc
// @Summary Trigger a correction run
// @Description Schedules an immediate run of the monetary correction job
// @Tags maintenance
// @Accept json
// @Produce json
// @Param request body TriggerMaintenanceRequest false "Optional reference date"
// @Success 202 {object} dto.Response
// @Router /maintenance/correction-run [post]
func (h *MaintenanceHandler) TriggerCorrectionRun(c *gin.Context) {
	h.schedule(c, scheduler.JobTypeCorrectionRun)
}

func (h *MaintenanceHandler) schedule(c *gin.Context, jobType scheduler.JobType) {
	reference := time.Now()

	// Body is optional; an empty body means "run for today"
	if c.Request.ContentLength > 0 {
		var req TriggerMaintenanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
		if req.ReferenceDate != "" {
			parsed, err := time.Parse(dateLayout, req.ReferenceDate)
			if err != nil {
				h.BadRequest(c, "reference_date must be in format YYYY-MM-DD")
				return
			}
			reference = parsed
		}
	}

	if err := h.trigger.TriggerManualRun(c.Request.Context(), jobType, reference); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(TriggerMaintenanceResponse{
		JobType:       string(jobType),
		ReferenceDate: reference,
		ScheduledAt:   time.Now(),
	}))
}
