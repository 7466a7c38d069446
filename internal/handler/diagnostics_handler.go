package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"property-recon/internal/diagnostics"
	"property-recon/pkg/logger"
	"property-recon/pkg/response"
)

type DiagnosticsHandler struct {
	service *diagnostics.Service
}

func NewDiagnosticsHandler(service *diagnostics.Service) *DiagnosticsHandler {
	return &DiagnosticsHandler{service: service}
}

// Diagnose godoc
// @Summary Diagnose reconciliation gaps
// @Description Explain missing data and suggest fixes for one property and period
// @Tags diagnostics
// @Produce json
// @Param property_id path int true "Property ID"
// @Param period_id path int true "Period ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/diagnostics/{property_id}/{period_id} [get]
func (h *DiagnosticsHandler) Diagnose(c *gin.Context) {
	propertyID, err := strconv.ParseInt(c.Param("property_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid property_id", "Must be an integer")
		return
	}
	periodID, err := strconv.ParseInt(c.Param("period_id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid period_id", "Must be an integer")
		return
	}

	report, err := h.service.Diagnose(propertyID, periodID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Diagnostics failed")
		response.InternalError(c, "Diagnostics failed", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Diagnostics generated successfully", report)
}
