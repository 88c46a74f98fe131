package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	appfinancing "github.com/loanbook/backend/internal/application/financing"
)

// IndexHandler exposes correction index value ingestion and lookup.
type IndexHandler struct {
	BaseHandler
	source appfinancing.IndexSource
}

// NewIndexHandler creates a new index handler
func NewIndexHandler(source appfinancing.IndexSource) *IndexHandler {
	return &IndexHandler{source: source}
}

// RegisterRoutes registers index routes on the given group
func (h *IndexHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.Store)
	group.GET("/:code/latest", h.Latest)
}

// StoreIndexValueRequest is the HTTP payload for publishing an index value
type StoreIndexValueRequest struct {
	Code          string  `json:"code" binding:"required,min=1,max=20"`
	Value         float64 `json:"value" binding:"required"`
	ReferenceDate string  `json:"reference_date" binding:"required,datetime=2006-01-02"`
}

// IndexValueResponse is the read model for an index value
type IndexValueResponse struct {
	Code          string          `json:"code"`
	Value         decimal.Decimal `json:"value"`
	ReferenceDate time.Time       `json:"reference_date"`
}

// Store godoc
// @Summary Publish a correction index value
// @Description Records an index value (e.g. IPCA) for use by correction runs
// @Tags indexes
// @Accept json
// @Produce json
// @Param request body StoreIndexValueRequest true "Index value"
// @Success 201 {object} dto.Response
// @Failure 400 {object} dto.Response
// @Router /indexes [post]
func (h *IndexHandler) Store(c *gin.Context) {
	var req StoreIndexValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	referenceDate, err := time.Parse(dateLayout, req.ReferenceDate)
	if err != nil {
		h.BadRequest(c, "reference_date must be in format YYYY-MM-DD")
		return
	}

	value := appfinancing.IndexValue{
		Code:          strings.ToUpper(req.Code),
		Value:         decimal.NewFromFloat(req.Value),
		ReferenceDate: referenceDate,
	}
	if err := h.source.Store(c.Request.Context(), value); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, IndexValueResponse{
		Code:          value.Code,
		Value:         value.Value,
		ReferenceDate: value.ReferenceDate,
	})
}

// Latest godoc
// @Summary Get the latest value of an index
// @Tags indexes
// @Produce json
// @Param code path string true "Index code (e.g. IPCA)"
// @Success 200 {object} dto.Response
// @Failure 404 {object} dto.Response
// @Router /indexes/{code}/latest [get]
func (h *IndexHandler) Latest(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))

	value, err := h.source.Latest(c.Request.Context(), code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if value == nil {
		h.NotFound(c, "no value recorded for index "+code)
		return
	}

	h.Success(c, IndexValueResponse{
		Code:          value.Code,
		Value:         value.Value,
		ReferenceDate: value.ReferenceDate,
	})
}
