package models

import "time"

type ScorecardMetric struct {
	BaseModel

	BrandID       string  `gorm:"type:varchar(36);not null;index" json:"brand_id"`
	Name          string  `gorm:"not null" json:"name"`
	MetaField     string  `gorm:"not null" json:"meta_field"`
	TargetValue   float64 `json:"target_value"`
	Direction     string  `gorm:"not null" json:"direction"`
	DisplayFormat string  `json:"display_format"`

	// Relationships
	Brand  Brand            `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Values []ScorecardValue `gorm:"foreignKey:MetricID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

type ScorecardValue struct {
	BaseModel

	MetricID    string    `gorm:"type:varchar(36);not null;index" json:"metric_id"`
	Period      string    `gorm:"not null" json:"period"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Value       float64   `json:"value"`
	SyncedAt    time.Time `json:"synced_at"`
}
