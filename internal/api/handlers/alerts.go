package handlers

import (
	"fleet-tracking-service/internal/api/dto"
	"fleet-tracking-service/internal/domain"
	"fleet-tracking-service/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	Alerts *services.AlertService
}

func (h *AlertHandler) ListUnread(c *gin.Context) {
	alerts, err := h.Alerts.ListUnread(c.Request.Context(), actor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	res := dto.ListAlertsResponse{Alerts: make([]dto.AlertResponse, 0, len(alerts))}
	for i := range alerts {
		res.Alerts = append(res.Alerts, toAlertResponse(&alerts[i]))
	}
	c.JSON(http.StatusOK, res)
}

func (h *AlertHandler) Acknowledge(c *gin.Context) {
	var req dto.AcknowledgeAlertRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.Alerts.Acknowledge(c.Request.Context(), actor(c), c.Param("id"), domain.AlertStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAlertResponse(a))
}
