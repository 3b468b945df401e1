package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"course-payments/internal/domains/payment/model"
	"course-payments/internal/domains/payment/service"
)

// maxWebhookBody bounds what a gateway may post.
const maxWebhookBody = 1 << 20

// WebhookHandler answers gateway callbacks. A 2xx tells the gateway to stop
// retrying, so only transient failures get a 5xx.
type WebhookHandler struct {
	paymentService service.Service
}

func NewWebhookHandler(paymentService service.Service) *WebhookHandler {
	return &WebhookHandler{paymentService: paymentService}
}

// MidtransNotification
// @Router /v1/webhooks/midtrans [post]
func (h *WebhookHandler) MidtransNotification(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid request body"})
		return
	}

	err = h.paymentService.ProcessMidtransNotification(c.Request.Context(), body, webhookHeaders(c))
	status, message := webhookStatus(err)
	if status != http.StatusOK {
		c.JSON(status, gin.H{"status": "error", "message": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TripayCallback
// @Router /v1/webhooks/tripay [post]
func (h *WebhookHandler) TripayCallback(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	err = h.paymentService.ProcessTripayCallback(c.Request.Context(), body, webhookHeaders(c))
	status, message := webhookStatus(err)
	if status != http.StatusOK {
		c.JSON(status, gin.H{"success": false, "message": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func webhookStatus(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, model.ErrInvalidSignature):
		return http.StatusUnauthorized, "Invalid signature"
	case errors.Is(err, model.ErrInvalidPayload):
		return http.StatusBadRequest, "Invalid payload"
	default:
		return http.StatusInternalServerError, "Temporary failure"
	}
}

// readBody keeps the raw bytes: Tripay signs the body exactly as sent.
func readBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
}

func webhookHeaders(c *gin.Context) map[string]string {
	headers := map[string]string{
		"Content-Type": c.GetHeader("Content-Type"),
		"User-Agent":   c.GetHeader("User-Agent"),
		"X-Request-ID": c.GetHeader("X-Request-ID"),
	}
	for _, name := range []string{model.HeaderTripayEvent, model.HeaderTripaySignature} {
		if v := c.GetHeader(name); v != "" {
			headers[name] = v
		}
	}
	return headers
}
