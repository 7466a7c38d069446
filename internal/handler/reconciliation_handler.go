package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"property-recon/internal/service"
	"property-recon/pkg/logger"
	"property-recon/pkg/response"
)

type ReconciliationHandler struct {
	service service.ReconciliationService
}

func NewReconciliationHandler(service service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

type ReconcileRequest struct {
	PropertyID  int64 `json:"property_id" binding:"required"`
	EndPeriodID int64 `json:"end_period_id" binding:"required"`
}

// Reconcile godoc
// @Summary Run reconciliation
// @Description Align periods and match line items across statements for one property and end period
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param request body ReconcileRequest true "Reconciliation request"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/reconcile [post]
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithError(err).Error("Invalid request")
		response.ValidationError(c, err.Error())
		return
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"property_id":   req.PropertyID,
		"end_period_id": req.EndPeriodID,
	}).Info("Reconciliation requested")

	summary, err := h.service.Reconcile(req.PropertyID, req.EndPeriodID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Reconciliation failed")
		response.InternalError(c, "Reconciliation failed", err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Reconciliation completed successfully", summary)
}

// GetRunStatus godoc
// @Summary Get reconciliation run status
// @Tags reconciliation
// @Produce json
// @Param run_id path string true "Run ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/reconcile/runs/{run_id} [get]
func (h *ReconciliationHandler) GetRunStatus(c *gin.Context) {
	runID := c.Param("run_id")

	run, err := h.service.GetRunStatus(runID)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("run_id", runID).Error("Run not found")
		response.NotFound(c, "Run not found")
		return
	}

	response.Success(c, http.StatusOK, "Run status retrieved successfully", run)
}

// GetRunSummary godoc
// @Summary Get reconciliation run summary
// @Tags reconciliation
// @Produce json
// @Param run_id path string true "Run ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/reconcile/runs/{run_id}/summary [get]
func (h *ReconciliationHandler) GetRunSummary(c *gin.Context) {
	runID := c.Param("run_id")

	summary, err := h.service.GetRunSummary(runID)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("run_id", runID).Error("Failed to get run summary")
		response.NotFound(c, "Run not found")
		return
	}

	response.Success(c, http.StatusOK, "Run summary retrieved successfully", summary)
}

// GetAlignment godoc
// @Summary Resolve period alignment
// @Description Resolve the begin period and window for one property and end period without running the engine
// @Tags alignment
// @Produce json
// @Param property_id path int true "Property ID"
// @Param period_id path int true "End period ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/alignment/{property_id}/{period_id} [get]
func (h *ReconciliationHandler) GetAlignment(c *gin.Context) {
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

	ctx := h.service.ResolveAlignment(propertyID, periodID)
	response.Success(c, http.StatusOK, "Alignment resolved successfully", ctx)
}
