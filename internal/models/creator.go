package models

import "gorm.io/datatypes"

// Creator emails are unique within a brand. Creators without an email are
// exempt from the check.
type Creator struct {
	BaseModel

	BrandID         string                      `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_creators_brand_email,priority:1,where:email <> ''" json:"brand_id"`
	Name            string                      `gorm:"not null" json:"name"`
	Email           string                      `gorm:"uniqueIndex:idx_creators_brand_email,priority:2,where:email <> ''" json:"email"`
	Phone           string                      `json:"phone"`
	InstagramHandle string                      `json:"instagram_handle"`
	TiktokHandle    string                      `json:"tiktok_handle"`
	PortfolioLink   string                      `json:"portfolio_link"`
	Address         string                      `json:"address"`
	Products        datatypes.JSONSlice[string] `json:"products"`
	Platforms       datatypes.JSONSlice[string] `json:"platforms"`
	PerScriptRate   float64                     `json:"per_script_rate"`
	Status          string                      `gorm:"not null;index" json:"status"`
	ContractStatus  string                      `gorm:"not null" json:"contract_status"`
	Notes           string                      `json:"notes"`

	// Relationships
	Brand   Brand    `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Scripts []Script `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
}
