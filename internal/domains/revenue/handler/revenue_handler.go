package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"course-payments/internal/domains/revenue/model"
	"course-payments/internal/domains/revenue/service"
	"course-payments/internal/shared/middleware"
	"course-payments/internal/shared/response"
	"course-payments/pkg/logger"
)

type RevenueHandler struct {
	service service.Service
}

func NewRevenueHandler(service service.Service) *RevenueHandler {
	return &RevenueHandler{service: service}
}

// Summary
// @Router /v1/revenue/summary [get]
func (h *RevenueHandler) Summary(c *gin.Context) {
	actor, req, ok := h.bind(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), actor, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// Transactions lists the rows behind a summary.
// @Router /v1/revenue/transactions [get]
func (h *RevenueHandler) Transactions(c *gin.Context) {
	actor, req, ok := h.bind(c)
	if !ok {
		return
	}

	rows, meta, err := h.service.Transactions(c.Request.Context(), actor, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, rows, meta)
}

// Export
// @Router /v1/revenue/export [post]
func (h *RevenueHandler) Export(c *gin.Context) {
	actor, req, ok := h.bind(c)
	if !ok {
		return
	}

	resp, err := h.service.Export(c.Request.Context(), actor, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

func (h *RevenueHandler) bind(c *gin.Context) (model.Actor, model.ReportRequest, bool) {
	var req model.ReportRequest
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return model.Actor{}, req, false
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return model.Actor{}, req, false
	}
	return model.Actor{UserID: userID, Role: role}, req, true
}

func (h *RevenueHandler) handleError(c *gin.Context, err error) {
	var validationErrs validation.Errors
	switch {
	case errors.Is(err, model.ErrScopeForbidden):
		response.ErrorResponse(c, http.StatusForbidden, model.ErrCodeScopeForbidden, "Revenue is not available for this role")
	case errors.As(err, &validationErrs):
		response.ValidationError(c, validationErrs)
	case errors.Is(err, model.ErrInvalidDateRange):
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidCriteria, err.Error())
	default:
		logger.Error("revenue request failed", err)
		response.InternalServerError(c, "Internal server error")
	}
}
