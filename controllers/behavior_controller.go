package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/shared"
)

type BehaviorController struct {
	anomalyService shared.AnomalyService
}

func NewBehaviorController(anomalyService shared.AnomalyService) *BehaviorController {
	return &BehaviorController{anomalyService: anomalyService}
}

// ReportMetrics accepts one telemetry window. Consumption is asynchronous,
// the detector never runs on this path.
func (h *BehaviorController) ReportMetrics(c shared.Context) error {
	attemptID, err := parseUUIDParam(c, "attemptID")
	if err != nil {
		return err
	}

	var dto dtos.BehavioralMetricsDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").WithInternal(err)
	}

	if err := h.anomalyService.ReportMetrics(c.Request().Context(), attemptID, dto); err != nil {
		return translateError(err, "could not store behavioral metrics")
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *BehaviorController) Anomaly(c shared.Context) error {
	attemptID, err := parseUUIDParam(c, "attemptID")
	if err != nil {
		return err
	}

	result, err := h.anomalyService.Result(attemptID)
	if err != nil {
		return translateError(err, "could not read anomaly result")
	}
	return c.JSON(http.StatusOK, result)
}
