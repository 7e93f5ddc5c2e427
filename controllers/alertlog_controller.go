package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"aquaguard-backend/models"
)

// AlertLogReader lists assignment rows for dashboard views.
type AlertLogReader interface {
	List(ctx context.Context) ([]models.AlertLog, error)
}

type AlertLogController struct {
	alertLogs AlertLogReader
}

func NewAlertLogController(alertLogs AlertLogReader) *AlertLogController {
	return &AlertLogController{alertLogs: alertLogs}
}

// List handles GET /alert-logs. Clients re-hit this endpoint whenever an
// updateAlertLogs event arrives on the real-time channel.
func (alc *AlertLogController) List(c *fiber.Ctx) error {
	logs, err := alc.alertLogs.List(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	if logs == nil {
		logs = []models.AlertLog{}
	}
	return c.JSON(logs)
}
