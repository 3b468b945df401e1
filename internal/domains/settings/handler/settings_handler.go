package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"course-payments/internal/domains/settings/model"
	"course-payments/internal/domains/settings/service"
	"course-payments/internal/shared/response"
	"course-payments/pkg/logger"
)

type SettingsHandler struct {
	service service.Service
}

func NewSettingsHandler(service service.Service) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// @Router /v1/admin/settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.service.Get(c.Request.Context())
	if err != nil {
		logger.Error("load settings failed", err)
		response.InternalServerError(c, "Failed to load settings")
		return
	}
	response.Success(c, http.StatusOK, s)
}

// @Router /v1/admin/settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req model.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err)
		return
	}

	s, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		logger.Error("update settings failed", err)
		response.InternalServerError(c, "Failed to update settings")
		return
	}
	response.Success(c, http.StatusOK, s)
}
