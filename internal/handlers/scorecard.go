package handlers

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
)

type ScorecardMetricRequest struct {
	Name          string  `json:"name" binding:"required"`
	MetaField     string  `json:"meta_field" binding:"required"`
	TargetValue   float64 `json:"target_value"`
	Direction     string  `json:"direction" binding:"required,oneof=higher_is_better lower_is_better"`
	DisplayFormat string  `json:"display_format" binding:"omitempty,oneof=number currency percent"`
}

type ScorecardSyncRequest struct {
	Period string `json:"period"`
}

// ScorecardEntry is a metric with its latest value for the requested period.
type ScorecardEntry struct {
	models.ScorecardMetric
	Value    *float64 `json:"value"`
	SyncedAt *string  `json:"synced_at"`
	Status   string   `json:"status"`
}

func applyMetricRequest(ctx *gin.Context, metric *models.ScorecardMetric) bool {
	var body ScorecardMetricRequest

	if !bindJSON(ctx, &body) {
		return false
	}

	if !slices.Contains(types.MetaInsightFields, body.MetaField) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported Meta field"})
		return false
	}

	metric.Name = strings.TrimSpace(body.Name)
	metric.MetaField = body.MetaField
	metric.TargetValue = body.TargetValue
	metric.Direction = body.Direction
	metric.DisplayFormat = body.DisplayFormat
	if metric.DisplayFormat == "" {
		metric.DisplayFormat = "number"
	}
	return true
}

func CreateScorecardMetric(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	metric := models.ScorecardMetric{BrandID: access.Brand.ID}

	if !applyMetricRequest(ctx, &metric) {
		return
	}

	if err := db.DB.Create(&metric).Error; err != nil {
		serverError(ctx, "Failed to create metric", err)
		return
	}

	ctx.JSON(http.StatusCreated, metric)
}

func ListScorecardMetrics(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	var metrics []models.ScorecardMetric

	if err := db.DB.Where("brand_id = ?", access.Brand.ID).Order("created_at ASC").Find(&metrics).Error; err != nil {
		serverError(ctx, "Failed to retrieve metrics", err)
		return
	}

	ctx.JSON(http.StatusOK, metrics)
}

func loadMetric(ctx *gin.Context, brandID string) (models.ScorecardMetric, bool) {
	var metric models.ScorecardMetric

	metricID, ok := uuidParam(ctx, "metric_id")
	if !ok {
		return metric, false
	}

	ok = findOr404(ctx, db.DB.Where("id = ? AND brand_id = ?", metricID, brandID), &metric, "Metric not found")
	return metric, ok
}

func UpdateScorecardMetric(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	metric, ok := loadMetric(ctx, access.Brand.ID)
	if !ok {
		return
	}

	if !applyMetricRequest(ctx, &metric) {
		return
	}

	if err := db.DB.Save(&metric).Error; err != nil {
		serverError(ctx, "Failed to update metric", err)
		return
	}

	ctx.JSON(http.StatusOK, metric)
}

func DeleteScorecardMetric(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	metric, ok := loadMetric(ctx, access.Brand.ID)
	if !ok {
		return
	}

	if err := db.DB.Where("metric_id = ?", metric.ID).Delete(&models.ScorecardValue{}).Error; err != nil {
		serverError(ctx, "Failed to delete metric values", err)
		return
	}

	if err := db.DB.Delete(&metric).Error; err != nil {
		serverError(ctx, "Failed to delete metric", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func scorecardPeriod(ctx *gin.Context, period string) (string, bool) {
	if period == "" {
		return services.PeriodLast7Days, true
	}
	if !services.ValidPeriod(period) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid period"})
		return "", false
	}
	return period, true
}

// GetScorecard returns every metric with its latest synced value.
func GetScorecard(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	period, ok := scorecardPeriod(ctx, ctx.Query("period"))
	if !ok {
		return
	}

	var metrics []models.ScorecardMetric

	if err := db.DB.Where("brand_id = ?", access.Brand.ID).Order("created_at ASC").Find(&metrics).Error; err != nil {
		serverError(ctx, "Failed to retrieve metrics", err)
		return
	}

	entries := make([]ScorecardEntry, 0, len(metrics))
	for _, metric := range metrics {
		latest, err := services.LatestValue(metric.ID, period)
		if err != nil {
			serverError(ctx, "Failed to retrieve metric values", err)
			return
		}

		entry := ScorecardEntry{ScorecardMetric: metric}
		if latest != nil {
			value := latest.Value
			synced := latest.SyncedAt.UTC().Format(time.RFC3339)
			entry.Value = &value
			entry.SyncedAt = &synced
		}
		entry.Status = services.ScoreStatus(metric, entry.Value)

		entries = append(entries, entry)
	}

	ctx.JSON(http.StatusOK, gin.H{"period": period, "metrics": entries})
}

func SyncScorecard(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	var body ScorecardSyncRequest

	if ctx.Request.ContentLength != 0 && !bindJSON(ctx, &body) {
		return
	}

	period, ok := scorecardPeriod(ctx, firstNonEmptyParam(body.Period, ctx.Query("period")))
	if !ok {
		return
	}

	written, err := deps.Scorecard.SyncBrand(ctx.Request.Context(), access.Brand, period)
	switch {
	case errors.Is(err, services.ErrNoAdAccount):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Brand has no Meta ad account"})
		return
	case err != nil:
		upstreamError(ctx, "Failed to sync scorecard", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"period": period, "synced": written})
}

func firstNonEmptyParam(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
