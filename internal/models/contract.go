package models

import "time"

type Contract struct {
	BaseModel

	BrandID      string     `gorm:"type:varchar(36);not null;index" json:"brand_id"`
	CreatorID    *string    `gorm:"type:varchar(36);index" json:"creator_id"`
	Title        string     `gorm:"not null" json:"title"`
	DocumentURL  string     `json:"document_url"`
	DocumentKey  string     `json:"-"`
	DocumentName string     `json:"document_name"`
	Status       string     `gorm:"not null;index" json:"status"`
	SentAt       *time.Time `json:"sent_at"`
	CompletedAt  *time.Time `json:"completed_at"`

	// Relationships
	Brand      Brand               `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Recipients []ContractRecipient `gorm:"foreignKey:ContractID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"recipients,omitempty"`
}

type ContractRecipient struct {
	BaseModel

	ContractID   string     `gorm:"type:varchar(36);not null;index" json:"contract_id"`
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"not null" json:"email"`
	SigningOrder int        `json:"signing_order"`
	Status       string     `gorm:"not null" json:"status"`
	TokenHash    string     `gorm:"index" json:"-"`
	SignedAt     *time.Time `json:"signed_at"`
	Signature    string     `json:"signature,omitempty"`
	SignerIP     string     `json:"signer_ip,omitempty"`
	UserAgent    string     `json:"-"`
}

type ContractAuditLog struct {
	BaseModel

	ContractID string `gorm:"type:varchar(36);not null;index" json:"contract_id"`
	Action     string `gorm:"not null" json:"action"`
	Actor      string `json:"actor"`
	IPAddress  string `json:"ip_address"`
	Details    string `json:"details"`

	// Relationships
	Contract Contract `gorm:"foreignKey:ContractID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
