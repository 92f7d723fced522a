package models

import "gorm.io/datatypes"

type Brand struct {
	BaseModel

	OwnerID        string         `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	Name           string         `gorm:"not null" json:"name"`
	BrandInfo      datatypes.JSON `json:"brand_info"`
	TargetAudience datatypes.JSON `json:"target_audience"`
	Competition    datatypes.JSON `json:"competition"`

	MetaAdAccountID        string `json:"meta_ad_account_id"`
	MetaFacebookPageID     string `json:"meta_facebook_page_id"`
	MetaInstagramAccountID string `json:"meta_instagram_account_id"`
	MetaPixelID            string `json:"meta_pixel_id"`
	DefaultURLParams       string `json:"default_url_params"`

	SlackWebhookURL           string `json:"slack_webhook_url"`
	SlackNotificationsEnabled bool   `gorm:"default:false" json:"slack_notifications_enabled"`

	ElevenLabsVoiceID string `json:"elevenlabs_voice_id"`
	EmailSenderName   string `json:"email_sender_name"`

	// workflow name -> enabled
	AutomationSettings datatypes.JSONMap `json:"automation_settings"`

	// Relationships
	Owner    User         `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Shares   []BrandShare `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Creators []Creator    `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Scripts  []Script     `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// AutomationEnabled reports whether the brand switched the named workflow on.
func (b *Brand) AutomationEnabled(workflow string) bool {
	if b.AutomationSettings == nil {
		return false
	}
	enabled, ok := b.AutomationSettings[workflow].(bool)
	return ok && enabled
}

// SlackEnabled is true when notifications are switched on and a webhook is present.
func (b *Brand) SlackEnabled() bool {
	return b.SlackNotificationsEnabled && b.SlackWebhookURL != ""
}
