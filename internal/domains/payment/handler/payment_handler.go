package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutModel "course-payments/internal/domains/checkout/model"
	discountModel "course-payments/internal/domains/discount/model"
	"course-payments/internal/domains/payment/model"
	"course-payments/internal/domains/payment/service"
	"course-payments/internal/shared/middleware"
	"course-payments/internal/shared/response"
	"course-payments/pkg/logger"
)

type PaymentHandler struct {
	paymentService service.Service
}

func NewPaymentHandler(paymentService service.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateTripayPayment opens a Tripay closed payment for the current user.
// @Router /v1/payments/tripay [post]
func (h *PaymentHandler) CreateTripayPayment(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.CreateTripayPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	resp, err := h.paymentService.CreateTripayPayment(c.Request.Context(), userID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

// GetPayment
// @Router /v1/payments/:merchant_ref [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	ref, err := h.paymentService.GetByMerchantRef(c.Request.Context(), userID, c.Param("merchant_ref"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ref)
}

// =====================================================
// ERROR MAPPING HELPER
// =====================================================

func (h *PaymentHandler) handleError(c *gin.Context, err error) {
	var discountErr *discountModel.AppError
	switch {
	case errors.As(err, &discountErr):
		response.ErrorWithDetails(c, discountErr.HTTPStatus, string(discountErr.Code), discountErr.Message, discountErr.Details)
	case errors.Is(err, model.ErrUnknownReference), errors.Is(err, model.ErrForbidden):
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeReferenceNotFound, "Payment not found")
	case errors.Is(err, checkoutModel.ErrCourseUnavailable):
		response.ErrorResponse(c, http.StatusUnprocessableEntity, checkoutModel.ErrCodeCourseUnavailable, err.Error())
	case errors.Is(err, checkoutModel.ErrNothingToPay):
		response.ErrorResponse(c, http.StatusUnprocessableEntity, checkoutModel.ErrCodeNothingToPay, err.Error())
	case errors.Is(err, model.ErrGatewayUnavailable):
		logger.Error("tripay gateway failed", err)
		response.ErrorResponse(c, http.StatusBadGateway, model.ErrCodeGatewayUnavailable, "Payment gateway unavailable")
	default:
		logger.Error("payment request failed", err)
		response.InternalServerError(c, "Internal server error")
	}
}
