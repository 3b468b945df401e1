package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"course-payments/internal/domains/discount/model"
	"course-payments/internal/domains/discount/service"
	"course-payments/internal/shared/response"
	"course-payments/pkg/logger"
)

type DiscountHandler struct {
	service service.Service
}

func NewDiscountHandler(service service.Service) *DiscountHandler {
	return &DiscountHandler{service: service}
}

// ValidateCode previews a code against an amount.
// @Router /v1/discounts/validate [post]
func (h *DiscountHandler) ValidateCode(c *gin.Context) {
	var req model.ValidateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	resp, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// -------------------------------------------------------------------
// ADMIN
// -------------------------------------------------------------------

// Create
// @Router /v1/admin/discounts [post]
func (h *DiscountHandler) Create(c *gin.Context) {
	var req model.CreateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	d, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, d)
}

// GetByCode
// @Router /v1/admin/discounts/:code [get]
func (h *DiscountHandler) GetByCode(c *gin.Context) {
	d, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, d)
}

// Deactivate
// @Router /v1/admin/discounts/:id/deactivate [patch]
func (h *DiscountHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid discount ID")
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id, "is_active": false})
}

func (h *DiscountHandler) handleError(c *gin.Context, err error) {
	var appErr *model.AppError
	switch {
	case errors.As(err, &appErr):
		response.ErrorWithDetails(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message, appErr.Details)
	case errors.Is(err, model.ErrDiscountNotFound):
		response.ErrorResponse(c, http.StatusNotFound, string(model.ErrCodeDiscountNotFound), err.Error())
	case errors.Is(err, model.ErrCodeExists):
		response.ErrorResponse(c, http.StatusConflict, string(model.ErrCodeDuplicateCode), err.Error())
	default:
		logger.Error("discount request failed", err)
		response.InternalServerError(c, "Internal server error")
	}
}
