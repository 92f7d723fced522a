package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"gorm.io/gorm"
)

var ErrNoAdAccount = errors.New("brand has no Meta ad account")

const (
	PeriodLast7Days  = "last_7d"
	PeriodLast30Days = "last_30d"
)

var periodDays = map[string]int{
	PeriodLast7Days:  7,
	PeriodLast30Days: 30,
}

func ValidPeriod(period string) bool {
	_, ok := periodDays[period]
	return ok
}

// PeriodRange returns the whole days a Meta date preset covers, ending yesterday.
func PeriodRange(period string, now time.Time) (time.Time, time.Time) {
	days := periodDays[period]
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -days), end.Add(-time.Second)
}

// ScoreStatus compares a value to the metric target in the metric's direction.
func ScoreStatus(metric models.ScorecardMetric, value *float64) string {
	if value == nil {
		return types.ScoreNoData
	}

	onTrack := *value >= metric.TargetValue
	if metric.Direction == types.LowerIsBetter {
		onTrack = *value <= metric.TargetValue
	}

	if onTrack {
		return types.ScoreOnTrack
	}
	return types.ScoreOffTrack
}

type ScorecardSyncer struct {
	Meta MetaAPI
	Log  logger.Logger
}

// SyncBrand pulls account insights for the period and stores one value per
// metric. It returns the number of values written.
func (s *ScorecardSyncer) SyncBrand(ctx context.Context, brand models.Brand, period string) (int, error) {
	if s.Meta == nil {
		return 0, ErrNotConfigured
	}
	if brand.MetaAdAccountID == "" {
		return 0, ErrNoAdAccount
	}
	if !ValidPeriod(period) {
		return 0, fmt.Errorf("unsupported period %q", period)
	}

	var metrics []models.ScorecardMetric
	if err := db.DB.Where("brand_id = ?", brand.ID).Find(&metrics).Error; err != nil {
		return 0, fmt.Errorf("failed to load metrics: %w", err)
	}
	if len(metrics) == 0 {
		return 0, nil
	}

	insights, err := s.Meta.AccountInsights(ctx, brand.MetaAdAccountID, period)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	start, end := PeriodRange(period, now)
	written := 0

	for _, metric := range metrics {
		v, ok := insights[metric.MetaField]
		if !ok {
			continue
		}

		var value models.ScorecardValue
		err := db.DB.Where("metric_id = ? AND period = ? AND period_start = ?", metric.ID, period, start).First(&value).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			value = models.ScorecardValue{
				MetricID:    metric.ID,
				Period:      period,
				PeriodStart: start,
				PeriodEnd:   end,
			}
		case err != nil:
			return written, fmt.Errorf("failed to load value: %w", err)
		}

		value.Value = v
		value.SyncedAt = now

		if err := db.DB.Save(&value).Error; err != nil {
			return written, fmt.Errorf("failed to save value: %w", err)
		}
		written++
	}

	return written, nil
}

// SyncAll runs SyncBrand for every brand with an ad account.
func (s *ScorecardSyncer) SyncAll(ctx context.Context, period string) {
	var brands []models.Brand
	if err := db.DB.Where("meta_ad_account_id <> ''").Find(&brands).Error; err != nil {
		s.Log.Error("Failed to load brands for scorecard sync", "error", err)
		return
	}

	for _, brand := range brands {
		if ctx.Err() != nil {
			return
		}

		written, err := s.SyncBrand(ctx, brand, period)
		if err != nil {
			s.Log.Warn("Scorecard sync failed", "brand_id", brand.ID, "error", err)
			continue
		}
		s.Log.Debug("Scorecard synced", "brand_id", brand.ID, "values", written)
	}
}

// LatestValue returns the most recently synced value of a metric for a period.
func LatestValue(metricID, period string) (*models.ScorecardValue, error) {
	var value models.ScorecardValue
	err := db.DB.Where("metric_id = ? AND period = ?", metricID, period).
		Order("synced_at DESC").
		First(&value).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
