package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":         "ok",
		"message":        "PowerBrief is running",
		"timestamp":      time.Now().Format(time.RFC3339),
		"active_uploads": deps.Progress.Active(),
	}

	if deps.SchedulerStatus != nil {
		body["scheduler"] = deps.SchedulerStatus()
	}

	c.JSON(200, body)
}
