package models

type AdBatch struct {
	BaseModel

	BrandID            string `gorm:"type:varchar(36);not null;index" json:"brand_id"`
	Name               string `gorm:"not null" json:"name"`
	AdAccountID        string `json:"ad_account_id"`
	CampaignID         string `json:"campaign_id"`
	AdSetID            string `json:"ad_set_id"`
	FacebookPageID     string `json:"facebook_page_id"`
	InstagramAccountID string `json:"instagram_account_id"`
	URLParams          string `json:"url_params"`
	DestinationURL     string `json:"destination_url"`
	CallToAction       string `json:"call_to_action"`
	Status             string `gorm:"not null" json:"status"`

	// Relationships
	Brand  Brand     `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Drafts []AdDraft `gorm:"foreignKey:AdBatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"drafts,omitempty"`
}

type AdDraft struct {
	BaseModel

	AdBatchID      string `gorm:"type:varchar(36);not null;index" json:"ad_batch_id"`
	AdName         string `gorm:"not null" json:"ad_name"`
	PrimaryText    string `json:"primary_text"`
	Headline       string `json:"headline"`
	Description    string `json:"description"`
	DestinationURL string `json:"destination_url"`
	CallToAction   string `json:"call_to_action"`
	Status         string `gorm:"not null;index" json:"status"`
	MetaCreativeID string `json:"meta_creative_id"`
	MetaAdID       string `json:"meta_ad_id"`
	ErrorMessage   string `json:"error_message"`

	// Relationships
	Assets []AdDraftAsset `gorm:"foreignKey:AdDraftID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assets"`
}

type AdDraftAsset struct {
	BaseModel

	AdDraftID     string `gorm:"type:varchar(36);not null;index" json:"ad_draft_id"`
	FileName      string `gorm:"not null" json:"file_name"`
	StorageKey    string `json:"-"`
	URL           string `gorm:"not null" json:"url"`
	AssetType     string `gorm:"not null" json:"asset_type"`
	MetaImageHash string `json:"meta_image_hash"`
	MetaVideoID   string `json:"meta_video_id"`
}
