package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel replaces gorm.Model with string UUID keys.
type BaseModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// All lists every persisted model in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Brand{},
		&BrandShare{},
		&Creator{},
		&Script{},
		&Contract{},
		&ContractRecipient{},
		&ContractAuditLog{},
		&AdBatch{},
		&AdDraft{},
		&AdDraftAsset{},
		&OneSheet{},
		&WorkflowExecution{},
		&NotificationLog{},
		&CoordinatorAction{},
		&ScorecardMetric{},
		&ScorecardValue{},
	}
}
