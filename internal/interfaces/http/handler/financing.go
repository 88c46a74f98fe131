package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appfinancing "github.com/loanbook/backend/internal/application/financing"
	"github.com/loanbook/backend/internal/domain/financing"
	"github.com/loanbook/backend/internal/domain/shared"
)

const dateLayout = "2006-01-02"

// FinancingHandler exposes the financing contract lifecycle over HTTP.
type FinancingHandler struct {
	BaseHandler
	service *appfinancing.FinancingService
}

// NewFinancingHandler creates a new financing handler
func NewFinancingHandler(service *appfinancing.FinancingService) *FinancingHandler {
	return &FinancingHandler{service: service}
}

// RegisterRoutes registers financing routes on the given group
func (h *FinancingHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.GetByID)
	group.GET("/:id/installments", h.ListInstallments)
	group.POST("/:id/corrections", h.ApplyCorrection)
	group.POST("/:id/payments", h.RegisterPayment)
	group.POST("/:id/payments/reverse", h.ReversePayment)
	group.POST("/:id/complete", h.Complete)
	group.POST("/:id/cancel", h.Cancel)
}

// ============================================================================
// Request DTOs
// ============================================================================

// CreateFinancingRequest is the HTTP payload for creating a financing contract
type CreateFinancingRequest struct {
	ContractNumber string  `json:"contract_number" binding:"required,min=1,max=50"`
	CustomerID     string  `json:"customer_id" binding:"required,uuid"`
	CustomerName   string  `json:"customer_name" binding:"required,min=1,max=255"`
	Principal      float64 `json:"principal" binding:"required,gt=0"`
	AnnualRate     float64 `json:"annual_rate" binding:"gte=0"`
	TermMonths     int     `json:"term_months" binding:"required,gt=0,lte=480"`
	StartDate      string  `json:"start_date" binding:"required,datetime=2006-01-02"`
	Method         string  `json:"method" binding:"required,oneof=PRICE SAC"`
}

// ApplyCorrectionRequest is the HTTP payload for a manual monetary correction
type ApplyCorrectionRequest struct {
	IndexValue     float64 `json:"index_value" binding:"required"`
	CorrectionDate string  `json:"correction_date" binding:"required,datetime=2006-01-02"`
}

// RegisterPaymentRequest is the HTTP payload for crediting a payment
type RegisterPaymentRequest struct {
	SequenceNumber int     `json:"sequence_number" binding:"required,gt=0"`
	Amount         float64 `json:"amount" binding:"required,gt=0"`
	PaymentDate    string  `json:"payment_date" binding:"required,datetime=2006-01-02"`
}

// ReversePaymentRequest is the HTTP payload for reversing a payment
type ReversePaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// CancelFinancingRequest is the HTTP payload for cancelling a contract
type CancelFinancingRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ListFinancingsRequest binds the query parameters for listing contracts
type ListFinancingsRequest struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	CustomerID string `form:"customer_id"`
	Status     string `form:"status"`
	Method     string `form:"method"`
	StartFrom  string `form:"start_from"`
	StartTo    string `form:"start_to"`
	Search     string `form:"search"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir"`
}

// ============================================================================
// Handlers
// ============================================================================

// Create godoc
// @Summary Create a financing contract
// @Description Creates a contract and generates its full installment schedule
// @Tags financings
// @Accept json
// @Produce json
// @Param request body CreateFinancingRequest true "Financing data"
// @Success 201 {object} dto.Response
// @Failure 400 {object} dto.Response
// @Failure 409 {object} dto.Response
// @Router /financings [post]
func (h *FinancingHandler) Create(c *gin.Context) {
	var req CreateFinancingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "customer_id must be a valid UUID")
		return
	}
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		h.BadRequest(c, "start_date must be in format YYYY-MM-DD")
		return
	}

	resp, err := h.service.Create(c.Request.Context(), appfinancing.CreateFinancingRequest{
		ContractNumber: req.ContractNumber,
		CustomerID:     customerID,
		CustomerName:   req.CustomerName,
		Principal:      decimal.NewFromFloat(req.Principal),
		AnnualRate:     decimal.NewFromFloat(req.AnnualRate),
		TermMonths:     req.TermMonths,
		StartDate:      startDate,
		Method:         financing.AmortizationMethod(req.Method),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, resp)
}

// List godoc
// @Summary List financing contracts
// @Description Lists contracts with pagination and filtering
// @Tags financings
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param customer_id query string false "Filter by customer"
// @Param status query string false "Filter by status (ACTIVE, COMPLETED, CANCELLED)"
// @Param method query string false "Filter by method (PRICE, SAC)"
// @Success 200 {object} dto.Response
// @Router /financings [get]
func (h *FinancingHandler) List(c *gin.Context) {
	var req ListFinancingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid query parameters")
		return
	}

	filter, err := h.buildFilter(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary Get a financing contract
// @Description Returns a contract with its full installment schedule
// @Tags financings
// @Produce json
// @Param id path string true "Financing ID"
// @Success 200 {object} dto.Response
// @Failure 404 {object} dto.Response
// @Router /financings/{id} [get]
func (h *FinancingHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListInstallments godoc
// @Summary List installments of a contract
// @Tags financings
// @Produce json
// @Param id path string true "Financing ID"
// @Success 200 {object} dto.Response
// @Failure 404 {object} dto.Response
// @Router /financings/{id}/installments [get]
func (h *FinancingHandler) ListInstallments(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	items, err := h.service.ListInstallments(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// ApplyCorrection godoc
// @Summary Apply a monetary correction
// @Description Corrects the outstanding balance by the index factor and recalculates future installments
// @Tags financings
// @Accept json
// @Produce json
// @Param id path string true "Financing ID"
// @Param request body ApplyCorrectionRequest true "Correction data"
// @Success 200 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /financings/{id}/corrections [post]
func (h *FinancingHandler) ApplyCorrection(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req ApplyCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	correctionDate, err := time.Parse(dateLayout, req.CorrectionDate)
	if err != nil {
		h.BadRequest(c, "correction_date must be in format YYYY-MM-DD")
		return
	}

	resp, err := h.service.ApplyCorrection(c.Request.Context(), id, appfinancing.ApplyCorrectionRequest{
		IndexValue:     decimal.NewFromFloat(req.IndexValue),
		CorrectionDate: correctionDate,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterPayment godoc
// @Summary Register an installment payment
// @Description Credits a payment against an installment, handling partial payments and overpayment rejection
// @Tags financings
// @Accept json
// @Produce json
// @Param id path string true "Financing ID"
// @Param request body RegisterPaymentRequest true "Payment data"
// @Success 200 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /financings/{id}/payments [post]
func (h *FinancingHandler) RegisterPayment(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	paymentDate, err := time.Parse(dateLayout, req.PaymentDate)
	if err != nil {
		h.BadRequest(c, "payment_date must be in format YYYY-MM-DD")
		return
	}

	resp, err := h.service.RegisterPayment(c.Request.Context(), id, appfinancing.RegisterPaymentRequest{
		SequenceNumber: req.SequenceNumber,
		Amount:         decimal.NewFromFloat(req.Amount),
		PaymentDate:    paymentDate,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// ReversePayment godoc
// @Summary Reverse a payment
// @Description Restores the reversed amount to the outstanding balance
// @Tags financings
// @Accept json
// @Produce json
// @Param id path string true "Financing ID"
// @Param request body ReversePaymentRequest true "Reversal data"
// @Success 200 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /financings/{id}/payments/reverse [post]
func (h *FinancingHandler) ReversePayment(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req ReversePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.ReversePayment(c.Request.Context(), id, appfinancing.ReversePaymentRequest{
		Amount: decimal.NewFromFloat(req.Amount),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Complete godoc
// @Summary Complete a financing contract
// @Description Marks a fully settled contract as completed
// @Tags financings
// @Produce json
// @Param id path string true "Financing ID"
// @Success 200 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /financings/{id}/complete [post]
func (h *FinancingHandler) Complete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel godoc
// @Summary Cancel a financing contract
// @Tags financings
// @Accept json
// @Produce json
// @Param id path string true "Financing ID"
// @Param request body CancelFinancingRequest true "Cancellation reason"
// @Success 200 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /financings/{id}/cancel [post]
func (h *FinancingHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req CancelFinancingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.service.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// ============================================================================
// Helpers
// ============================================================================

func (h *FinancingHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *FinancingHandler) buildFilter(req ListFinancingsRequest) (financing.FinancingFilter, error) {
	base := shared.DefaultFilter()
	if req.Page > 0 {
		base.Page = req.Page
	}
	if req.PageSize > 0 && req.PageSize <= 100 {
		base.PageSize = req.PageSize
	}
	base.Search = req.Search
	if req.OrderBy != "" {
		base.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		base.OrderDir = req.OrderDir
	}

	filter := financing.FinancingFilter{Filter: base}

	if req.CustomerID != "" {
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return filter, errors.New("customer_id must be a valid UUID")
		}
		filter.CustomerID = &customerID
	}
	if req.Status != "" {
		status := financing.FinancingStatus(req.Status)
		if !status.IsValid() {
			return filter, errors.New("status must be one of ACTIVE, COMPLETED, CANCELLED")
		}
		filter.Status = &status
	}
	if req.Method != "" {
		method := financing.AmortizationMethod(req.Method)
		if !method.IsValid() {
			return filter, errors.New("method must be one of PRICE, SAC")
		}
		filter.Method = &method
	}
	if req.StartFrom != "" {
		from, err := time.Parse(dateLayout, req.StartFrom)
		if err != nil {
			return filter, errors.New("start_from must be in format YYYY-MM-DD")
		}
		filter.StartFrom = &from
	}
	if req.StartTo != "" {
		to, err := time.Parse(dateLayout, req.StartTo)
		if err != nil {
			return filter, errors.New("start_to must be in format YYYY-MM-DD")
		}
		filter.StartTo = &to
	}

	return filter, nil
}
