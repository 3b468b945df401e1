package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"course-payments/internal/domains/checkout/model"
	"course-payments/internal/domains/checkout/service"
	discountModel "course-payments/internal/domains/discount/model"
	paymentModel "course-payments/internal/domains/payment/model"
	"course-payments/internal/shared/middleware"
	"course-payments/internal/shared/response"
	"course-payments/pkg/logger"
)

type CheckoutHandler struct {
	service service.Service
}

func NewCheckoutHandler(service service.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// Open starts a Midtrans Snap checkout for the current user.
// @Router /v1/checkouts [post]
func (h *CheckoutHandler) Open(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.OpenCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	resp, err := h.service.Open(c.Request.Context(), userID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

// Get
// @Router /v1/checkouts/:order_id [get]
func (h *CheckoutHandler) Get(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	p, err := h.service.GetForUser(c.Request.Context(), userID, c.Param("order_id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, p)
}

func (h *CheckoutHandler) handleError(c *gin.Context, err error) {
	var discountErr *discountModel.AppError
	switch {
	case errors.As(err, &discountErr):
		response.ErrorWithDetails(c, discountErr.HTTPStatus, string(discountErr.Code), discountErr.Message, discountErr.Details)
	case errors.Is(err, model.ErrCheckoutNotFound), errors.Is(err, model.ErrNotOwner):
		// Someone else's checkout is reported as missing
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeCheckoutNotFound, "Checkout not found")
	case errors.Is(err, model.ErrCourseUnavailable):
		response.ErrorResponse(c, http.StatusUnprocessableEntity, model.ErrCodeCourseUnavailable, err.Error())
	case errors.Is(err, model.ErrNothingToPay):
		response.ErrorResponse(c, http.StatusUnprocessableEntity, model.ErrCodeNothingToPay, err.Error())
	case errors.Is(err, paymentModel.ErrGatewayUnavailable):
		logger.Error("snap gateway failed", err)
		response.ErrorResponse(c, http.StatusBadGateway, model.ErrCodeGatewayFailed, "Payment gateway unavailable")
	default:
		logger.Error("checkout request failed", err)
		response.InternalServerError(c, "Internal server error")
	}
}
