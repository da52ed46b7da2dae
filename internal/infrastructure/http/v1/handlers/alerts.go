package handlers

import (
	"github.com/gin-gonic/gin"

	"rasoi/internal/domain/alerts"
	"rasoi/internal/infrastructure/http/v1/dto"
)

// AlertsHandler serves low-stock alert scans.
type AlertsHandler struct {
	*BaseHandler
	service *alerts.Service
}

// NewAlertsHandler creates an alerts handler.
func NewAlertsHandler(base *BaseHandler, service *alerts.Service) *AlertsHandler {
	return &AlertsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Scan handles GET /alerts - evaluate the rule set against every active
// ingredient's current stock.
func (h *AlertsHandler) Scan(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := h.service.Scan(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"alerts": dto.FromAlerts(items),
		"count":  len(items),
	})
}
