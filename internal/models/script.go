package models

import "gorm.io/datatypes"

type ScriptSegment struct {
	Segment    string `json:"segment"`
	ScriptText string `json:"script_text"`
	Visuals    string `json:"visuals"`
}

type ScriptContent struct {
	SceneStart string          `json:"scene_start"`
	Segments   []ScriptSegment `json:"segments"`
	SceneEnd   string          `json:"scene_end"`
}

// Narration joins every spoken line of the script, used for voiceovers.
func (c ScriptContent) Narration() string {
	text := c.SceneStart
	for _, s := range c.Segments {
		if s.ScriptText == "" {
			continue
		}
		if text != "" {
			text += "\n\n"
		}
		text += s.ScriptText
	}
	if c.SceneEnd != "" {
		if text != "" {
			text += "\n\n"
		}
		text += c.SceneEnd
	}
	return text
}

type Script struct {
	BaseModel

	BrandID          string                            `gorm:"type:varchar(36);not null;index" json:"brand_id"`
	CreatorID        *string                           `gorm:"type:varchar(36);index" json:"creator_id"`
	Title            string                            `gorm:"not null" json:"title"`
	Content          datatypes.JSONType[ScriptContent] `json:"content"`
	BRollShotList    datatypes.JSONSlice[string]       `json:"b_roll_shot_list"`
	HookType         string                            `json:"hook_type"`
	HookCount        int                               `json:"hook_count"`
	Status           string                            `gorm:"not null;index" json:"status"`
	ConceptStatus    string                            `json:"concept_status"`
	RevisionNotes    string                            `json:"revision_notes"`
	FinalContentLink string                            `json:"final_content_link"`
	VoiceoverURL     string                            `json:"voiceover_url"`
	ShareID          string                            `gorm:"type:varchar(36);uniqueIndex;not null" json:"share_id"`

	// Relationships
	Brand   Brand    `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Creator *Creator `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}
