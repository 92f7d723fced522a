package models

type NotificationLog struct {
	BaseModel

	BrandID      string `gorm:"type:varchar(36);not null;index" json:"brand_id"`
	Channel      string `gorm:"not null" json:"channel"`
	Event        string `gorm:"not null" json:"event"`
	Recipient    string `json:"recipient"`
	Status       string `gorm:"not null" json:"status"`
	ErrorMessage string `json:"error_message"`

	// Relationships
	Brand Brand `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
