package models

import "gorm.io/datatypes"

type OneSheet struct {
	BaseModel

	BrandID        string            `gorm:"type:varchar(36);not null;index" json:"brand_id"`
	Title          string            `gorm:"not null" json:"title"`
	Product        string            `json:"product"`
	LandingPageURL string            `json:"landing_page_url"`
	Status         string            `gorm:"not null" json:"status"`
	Sections       datatypes.JSONMap `json:"sections"`

	// Relationships
	Brand Brand `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
