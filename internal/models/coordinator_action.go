package models

import "time"

type CoordinatorAction struct {
	BaseModel

	BrandID         string     `gorm:"type:varchar(36);not null;index" json:"brand_id"`
	CreatorID       string     `gorm:"type:varchar(36);not null;index" json:"creator_id"`
	ActionType      string     `gorm:"not null" json:"action_type"`
	Reason          string     `json:"reason"`
	SuggestedStatus string     `json:"suggested_status,omitempty"`
	EmailSubject    string     `json:"email_subject,omitempty"`
	EmailBody       string     `json:"email_body,omitempty"`
	Status          string     `gorm:"not null;index" json:"status"`
	ExecutedAt      *time.Time `json:"executed_at"`

	// Relationships
	Brand   Brand   `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Creator Creator `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
