package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loanbook/backend/internal/domain/shared"
	"github.com/loanbook/backend/internal/interfaces/http/dto"
	"github.com/loanbook/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common response helpers shared by all handlers.
type BaseHandler struct{}

// getRequestID extracts the request ID set by the RequestID middleware.
func (h *BaseHandler) getRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a 200 response with the given data
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with data and pagination metadata
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data interface{}, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response with the given data
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 response for malformed input
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeBadRequest, message, h.getRequestID(c)))
}

// ValidationError sends a 400 response with per-field validation details
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	details := middleware.FormatValidationErrors(err)
	if len(details) == 0 {
		h.BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Validation failed", h.getRequestID(c), details))
}

// NotFound sends a 404 response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeNotFound, message, h.getRequestID(c)))
}

// InternalError sends a 500 response without leaking internals
func (h *BaseHandler) InternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal, "An internal error occurred", h.getRequestID(c)))
}

// HandleDomainError maps domain errors to HTTP responses. Domain error
// codes are normalized to API codes, everything else becomes a 500.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		c.JSON(status, dto.NewErrorResponseWithRequestID(code, domainErr.Message, h.getRequestID(c)))
		return
	}
	h.InternalError(c)
}
