package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutModel "course-payments/internal/domains/checkout/model"
	discountModel "course-payments/internal/domains/discount/model"
	"course-payments/internal/domains/settlement/model"
	"course-payments/internal/domains/settlement/service"
	"course-payments/internal/shared/response"
	"course-payments/pkg/logger"
)

type SettlementHandler struct {
	service service.Service
}

func NewSettlementHandler(service service.Service) *SettlementHandler {
	return &SettlementHandler{service: service}
}

// RecordManual creates a ledger row for a payment taken outside any gateway.
// @Router /v1/admin/settlements [post]
func (h *SettlementHandler) RecordManual(c *gin.Context) {
	var req model.ManualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	trx, err := h.service.RecordManualPayment(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, trx)
}

// @Router /v1/admin/settlements/:booking_id [get]
func (h *SettlementHandler) Get(c *gin.Context) {
	trx, err := h.service.Get(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, trx)
}

// UpdatePaid only ever moves a booking to paid.
// @Router /v1/admin/settlements/:booking_id/paid [patch]
func (h *SettlementHandler) UpdatePaid(c *gin.Context) {
	var req model.UpdatePaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	trx, err := h.service.SetPaid(c.Request.Context(), c.Param("booking_id"), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, trx)
}

// @Router /v1/admin/settlements/:booking_id/reconcile [post]
func (h *SettlementHandler) Reconcile(c *gin.Context) {
	bookingID := c.Param("booking_id")
	linked, err := h.service.Reconcile(c.Request.Context(), bookingID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, model.ReconcileResponse{BookingTrxID: bookingID, Linked: linked})
}

// @Router /v1/admin/settlements/:booking_id [delete]
func (h *SettlementHandler) Delete(c *gin.Context) {
	if err := h.service.SoftDelete(c.Request.Context(), c.Param("booking_id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SettlementHandler) handleError(c *gin.Context, err error) {
	var discountErr *discountModel.AppError
	switch {
	case errors.As(err, &discountErr):
		response.ErrorWithDetails(c, discountErr.HTTPStatus, string(discountErr.Code), discountErr.Message, discountErr.Details)
	case errors.Is(err, model.ErrTransactionNotFound):
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeTransactionNotFound, err.Error())
	case errors.Is(err, model.ErrPaidIsFinal):
		response.ErrorResponse(c, http.StatusConflict, model.ErrCodePaidIsFinal, err.Error())
	case errors.Is(err, model.ErrNotPaid):
		response.ErrorResponse(c, http.StatusConflict, model.ErrCodeNotPaid, err.Error())
	case errors.Is(err, model.ErrInvalidSettlement), errors.Is(err, model.ErrGrandTotalMismatch),
		errors.Is(err, checkoutModel.ErrCourseUnavailable), errors.Is(err, checkoutModel.ErrNothingToPay):
		response.ErrorResponse(c, http.StatusUnprocessableEntity, model.ErrCodeInvalidSettlement, err.Error())
	default:
		logger.Error("settlement request failed", err)
		response.InternalServerError(c, "Internal server error")
	}
}
