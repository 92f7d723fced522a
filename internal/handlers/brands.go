package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateBrandRequest struct {
	Name                      string          `json:"name" binding:"required"`
	BrandInfo                 json.RawMessage `json:"brand_info"`
	TargetAudience            json.RawMessage `json:"target_audience"`
	Competition               json.RawMessage `json:"competition"`
	MetaAdAccountID           string          `json:"meta_ad_account_id"`
	MetaFacebookPageID        string          `json:"meta_facebook_page_id"`
	MetaInstagramAccountID    string          `json:"meta_instagram_account_id"`
	MetaPixelID               string          `json:"meta_pixel_id"`
	DefaultURLParams          string          `json:"default_url_params"`
	SlackWebhookURL           string          `json:"slack_webhook_url" binding:"omitempty,url"`
	SlackNotificationsEnabled bool            `json:"slack_notifications_enabled"`
	ElevenLabsVoiceID         string          `json:"elevenlabs_voice_id"`
	EmailSenderName           string          `json:"email_sender_name"`
	AutomationSettings        map[string]bool `json:"automation_settings"`
}

// UpdateBrandRequest only touches the fields present in the body.
type UpdateBrandRequest struct {
	Name                      *string         `json:"name"`
	BrandInfo                 json.RawMessage `json:"brand_info"`
	TargetAudience            json.RawMessage `json:"target_audience"`
	Competition               json.RawMessage `json:"competition"`
	MetaAdAccountID           *string         `json:"meta_ad_account_id"`
	MetaFacebookPageID        *string         `json:"meta_facebook_page_id"`
	MetaInstagramAccountID    *string         `json:"meta_instagram_account_id"`
	MetaPixelID               *string         `json:"meta_pixel_id"`
	DefaultURLParams          *string         `json:"default_url_params"`
	SlackWebhookURL           *string         `json:"slack_webhook_url" binding:"omitempty,url"`
	SlackNotificationsEnabled *bool           `json:"slack_notifications_enabled"`
	ElevenLabsVoiceID         *string         `json:"elevenlabs_voice_id"`
	EmailSenderName           *string         `json:"email_sender_name"`
	AutomationSettings        map[string]bool `json:"automation_settings"`
}

type BrandResponse struct {
	models.Brand
	Role string `json:"role"`
}

type CreateShareRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=editor viewer"`
}

type ShareResponse struct {
	ID        string `json:"id"`
	BrandID   string `json:"brand_id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Role      string `json:"role"`
}

func automationMap(settings map[string]bool) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for workflow, enabled := range settings {
		out[workflow] = enabled
	}
	return out
}

func rawJSON(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}

func CreateBrand(ctx *gin.Context) {
	user, ok := utils.RequireUser(ctx)
	if !ok {
		return
	}
	userID := user.ID

	var body CreateBrandRequest

	if !bindJSON(ctx, &body) {
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	brand := models.Brand{
		OwnerID:                   userID,
		Name:                      name,
		BrandInfo:                 rawJSON(body.BrandInfo),
		TargetAudience:            rawJSON(body.TargetAudience),
		Competition:               rawJSON(body.Competition),
		MetaAdAccountID:           strings.TrimSpace(body.MetaAdAccountID),
		MetaFacebookPageID:        strings.TrimSpace(body.MetaFacebookPageID),
		MetaInstagramAccountID:    strings.TrimSpace(body.MetaInstagramAccountID),
		MetaPixelID:               strings.TrimSpace(body.MetaPixelID),
		DefaultURLParams:          strings.TrimSpace(body.DefaultURLParams),
		SlackWebhookURL:           body.SlackWebhookURL,
		SlackNotificationsEnabled: body.SlackNotificationsEnabled,
		ElevenLabsVoiceID:         body.ElevenLabsVoiceID,
		EmailSenderName:           body.EmailSenderName,
		AutomationSettings:        automationMap(body.AutomationSettings),
	}

	if err := db.DB.Create(&brand).Error; err != nil {
		serverError(ctx, "Failed to create brand", err)
		return
	}

	ctx.JSON(http.StatusCreated, BrandResponse{Brand: brand, Role: types.RoleOwner})
}

// ListBrands returns owned brands first, then brands shared with the caller.
func ListBrands(ctx *gin.Context) {
	user, ok := utils.RequireUser(ctx)
	if !ok {
		return
	}
	userID := user.ID

	var owned []models.Brand

	if err := db.DB.Where("owner_id = ?", userID).Order("created_at ASC").Find(&owned).Error; err != nil {
		serverError(ctx, "Failed to retrieve brands", err)
		return
	}

	var shares []models.BrandShare

	if err := db.DB.Preload("Brand").Where("user_id = ?", userID).Order("created_at ASC").Find(&shares).Error; err != nil {
		serverError(ctx, "Failed to retrieve brands", err)
		return
	}

	response := make([]BrandResponse, 0, len(owned)+len(shares))

	for _, brand := range owned {
		response = append(response, BrandResponse{Brand: brand, Role: types.RoleOwner})
	}

	for _, share := range shares {
		response = append(response, BrandResponse{Brand: share.Brand, Role: share.Role})
	}

	ctx.JSON(http.StatusOK, response)
}

func GetBrand(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, BrandResponse{Brand: access.Brand, Role: access.Role})
}

func UpdateBrand(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	var body UpdateBrandRequest

	if !bindJSON(ctx, &body) {
		return
	}

	brand := access.Brand

	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
			return
		}
		brand.Name = name
	}

	if body.BrandInfo != nil {
		brand.BrandInfo = rawJSON(body.BrandInfo)
	}
	if body.TargetAudience != nil {
		brand.TargetAudience = rawJSON(body.TargetAudience)
	}
	if body.Competition != nil {
		brand.Competition = rawJSON(body.Competition)
	}

	setTrimmed(&brand.MetaAdAccountID, body.MetaAdAccountID)
	setTrimmed(&brand.MetaFacebookPageID, body.MetaFacebookPageID)
	setTrimmed(&brand.MetaInstagramAccountID, body.MetaInstagramAccountID)
	setTrimmed(&brand.MetaPixelID, body.MetaPixelID)
	setTrimmed(&brand.DefaultURLParams, body.DefaultURLParams)
	setTrimmed(&brand.SlackWebhookURL, body.SlackWebhookURL)
	setTrimmed(&brand.ElevenLabsVoiceID, body.ElevenLabsVoiceID)
	setTrimmed(&brand.EmailSenderName, body.EmailSenderName)

	if body.SlackNotificationsEnabled != nil {
		brand.SlackNotificationsEnabled = *body.SlackNotificationsEnabled
	}

	if body.AutomationSettings != nil {
		merged := automationMap(nil)
		for workflow, enabled := range brand.AutomationSettings {
			merged[workflow] = enabled
		}
		for workflow, enabled := range body.AutomationSettings {
			merged[workflow] = enabled
		}
		brand.AutomationSettings = merged
	}

	if err := db.DB.Save(&brand).Error; err != nil {
		serverError(ctx, "Failed to update brand", err)
		return
	}

	ctx.JSON(http.StatusOK, BrandResponse{Brand: brand, Role: access.Role})
}

func DeleteBrand(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleOwner)
	if !ok {
		return
	}

	if err := db.DB.Delete(&access.Brand).Error; err != nil {
		serverError(ctx, "Failed to delete brand", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func CreateBrandShare(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleOwner)
	if !ok {
		return
	}

	var body CreateShareRequest

	if !bindJSON(ctx, &body) {
		return
	}

	var user models.User

	err := db.DB.Where("email = ?", utils.NormalizeEmail(body.Email)).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		serverError(ctx, "Failed to retrieve user", err)
		return
	}

	if user.ID == access.Brand.OwnerID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Brand owner already has access"})
		return
	}

	share := models.BrandShare{
		UserID:  user.ID,
		BrandID: access.Brand.ID,
		Role:    body.Role,
	}

	if err := db.DB.Create(&share).Error; err != nil {
		if isUniqueViolation(err) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "Brand is already shared with this user"})
			return
		}
		serverError(ctx, "Failed to share brand", err)
		return
	}

	ctx.JSON(http.StatusCreated, ShareResponse{
		ID:        share.ID,
		BrandID:   share.BrandID,
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		Role:      share.Role,
	})
}

func ListBrandShares(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleOwner)
	if !ok {
		return
	}

	var shares []models.BrandShare

	if err := db.DB.Preload("User").Where("brand_id = ?", access.Brand.ID).Order("created_at ASC").Find(&shares).Error; err != nil {
		serverError(ctx, "Failed to retrieve shares", err)
		return
	}

	response := make([]ShareResponse, 0, len(shares))

	for _, share := range shares {
		response = append(response, ShareResponse{
			ID:        share.ID,
			BrandID:   share.BrandID,
			UserID:    share.UserID,
			UserName:  share.User.Name,
			UserEmail: share.User.Email,
			Role:      share.Role,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func DeleteBrandShare(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleOwner)
	if !ok {
		return
	}

	shareID, ok := uuidParam(ctx, "share_id")
	if !ok {
		return
	}

	var share models.BrandShare

	if !findOr404(ctx, db.DB.Where("id = ? AND brand_id = ?", shareID, access.Brand.ID), &share, "Share not found") {
		return
	}

	if err := db.DB.Delete(&share).Error; err != nil {
		serverError(ctx, "Failed to delete share", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func setTrimmed(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
