package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
)

const maxNotificationsListed = 200

// TestSlack posts a test message to the brand webhook, even when Slack
// notifications are switched off for the brand.
func TestSlack(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	if access.Brand.SlackWebhookURL == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Brand has no Slack webhook URL"})
		return
	}

	err := deps.Notifier.SendSlack(ctx.Request.Context(), access.Brand, types.EventSlackTest, services.SlackTestMessage(access.Brand))
	if err != nil {
		upstreamError(ctx, "Failed to send Slack message", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Test message sent"})
}

func ListNotifications(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	query := db.DB.Where("brand_id = ?", access.Brand.ID)

	if channel := ctx.Query("channel"); channel != "" {
		query = query.Where("channel = ?", channel)
	}
	if event := ctx.Query("event"); event != "" {
		query = query.Where("event = ?", event)
	}

	var logs []models.NotificationLog

	if err := query.Order("created_at DESC").Limit(maxNotificationsListed).Find(&logs).Error; err != nil {
		serverError(ctx, "Failed to retrieve notifications", err)
		return
	}

	ctx.JSON(http.StatusOK, logs)
}
