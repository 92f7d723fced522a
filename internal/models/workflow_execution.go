package models

import (
	"time"

	"gorm.io/datatypes"
)

type WorkflowExecution struct {
	BaseModel

	BrandID        string         `gorm:"type:varchar(36);not null;index" json:"brand_id"`
	Workflow       string         `gorm:"not null;index" json:"workflow"`
	Status         string         `gorm:"not null;index" json:"status"`
	TriggeredBy    string         `gorm:"not null" json:"triggered_by"`
	RequestPayload datatypes.JSON `json:"request_payload"`
	ResponseBody   string         `json:"response_body"`
	Result         datatypes.JSON `json:"result"`
	ErrorMessage   string         `json:"error_message"`
	StartedAt      time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at"`

	// Relationships
	Brand Brand `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
