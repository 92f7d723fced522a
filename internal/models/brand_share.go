package models

type BrandShare struct {
	BaseModel

	UserID  string `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_brand" json:"user_id"`
	BrandID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_brand" json:"brand_id"`
	Role    string `gorm:"not null" json:"role"`

	// Relationships
	User  User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Brand Brand `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
