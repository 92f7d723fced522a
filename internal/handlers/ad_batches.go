package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
	"gorm.io/gorm"
)

type AdBatchRequest struct {
	Name               string `json:"name" binding:"required"`
	AdAccountID        string `json:"ad_account_id"`
	CampaignID         string `json:"campaign_id"`
	AdSetID            string `json:"ad_set_id"`
	FacebookPageID     string `json:"facebook_page_id"`
	InstagramAccountID string `json:"instagram_account_id"`
	URLParams          string `json:"url_params"`
	DestinationURL     string `json:"destination_url" binding:"omitempty,url"`
	CallToAction       string `json:"call_to_action"`
}

type AdDraftRequest struct {
	AdName         string `json:"ad_name" binding:"required"`
	PrimaryText    string `json:"primary_text"`
	Headline       string `json:"headline"`
	Description    string `json:"description"`
	DestinationURL string `json:"destination_url" binding:"omitempty,url"`
	CallToAction   string `json:"call_to_action"`
	Status         string `json:"status" binding:"omitempty,oneof=draft ready"`
}

type LaunchRequest struct {
	DraftIDs []string `json:"draft_ids" binding:"omitempty,dive,uuid"`
}

func applyBatchRequest(batch *models.AdBatch, body AdBatchRequest) {
	batch.Name = strings.TrimSpace(body.Name)
	batch.AdAccountID = strings.TrimSpace(body.AdAccountID)
	batch.CampaignID = strings.TrimSpace(body.CampaignID)
	batch.AdSetID = strings.TrimSpace(body.AdSetID)
	batch.FacebookPageID = strings.TrimSpace(body.FacebookPageID)
	batch.InstagramAccountID = strings.TrimSpace(body.InstagramAccountID)
	batch.URLParams = strings.TrimSpace(body.URLParams)
	batch.DestinationURL = strings.TrimSpace(body.DestinationURL)
	batch.CallToAction = strings.TrimSpace(body.CallToAction)
}

func CreateAdBatch(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	var body AdBatchRequest

	if !bindJSON(ctx, &body) {
		return
	}

	batch := models.AdBatch{BrandID: access.Brand.ID, Status: types.AdDraftDraft}
	applyBatchRequest(&batch, body)

	// brand defaults fill what the sheet leaves empty
	if batch.AdAccountID == "" {
		batch.AdAccountID = access.Brand.MetaAdAccountID
	}
	if batch.FacebookPageID == "" {
		batch.FacebookPageID = access.Brand.MetaFacebookPageID
	}
	if batch.InstagramAccountID == "" {
		batch.InstagramAccountID = access.Brand.MetaInstagramAccountID
	}
	if batch.URLParams == "" {
		batch.URLParams = access.Brand.DefaultURLParams
	}

	if err := db.DB.Create(&batch).Error; err != nil {
		serverError(ctx, "Failed to create ad batch", err)
		return
	}

	ctx.JSON(http.StatusCreated, batch)
}

func ListAdBatches(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	var batches []models.AdBatch

	if err := db.DB.Where("brand_id = ?", access.Brand.ID).Order("created_at DESC").Find(&batches).Error; err != nil {
		serverError(ctx, "Failed to retrieve ad batches", err)
		return
	}

	ctx.JSON(http.StatusOK, batches)
}

func loadAdBatch(ctx *gin.Context, brandID string, withDrafts bool) (models.AdBatch, bool) {
	var batch models.AdBatch

	batchID, ok := uuidParam(ctx, "batch_id")
	if !ok {
		return batch, false
	}

	query := db.DB.Where("id = ? AND brand_id = ?", batchID, brandID)
	if withDrafts {
		query = query.Preload("Drafts", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC")
		}).Preload("Drafts.Assets")
	}

	ok = findOr404(ctx, query, &batch, "Ad batch not found")
	return batch, ok
}

func GetAdBatch(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	batch, ok := loadAdBatch(ctx, access.Brand.ID, true)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, batch)
}

func UpdateAdBatch(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	batch, ok := loadAdBatch(ctx, access.Brand.ID, false)
	if !ok {
		return
	}

	var body AdBatchRequest

	if !bindJSON(ctx, &body) {
		return
	}

	applyBatchRequest(&batch, body)

	if err := db.DB.Save(&batch).Error; err != nil {
		serverError(ctx, "Failed to update ad batch", err)
		return
	}

	ctx.JSON(http.StatusOK, batch)
}

func DeleteAdBatch(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	batch, ok := loadAdBatch(ctx, access.Brand.ID, false)
	if !ok {
		return
	}

	if err := db.DB.Delete(&batch).Error; err != nil {
		serverError(ctx, "Failed to delete ad batch", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func applyDraftRequest(draft *models.AdDraft, body AdDraftRequest) {
	draft.AdName = strings.TrimSpace(body.AdName)
	draft.PrimaryText = body.PrimaryText
	draft.Headline = body.Headline
	draft.Description = body.Description
	draft.DestinationURL = strings.TrimSpace(body.DestinationURL)
	draft.CallToAction = strings.TrimSpace(body.CallToAction)
	if body.Status != "" {
		draft.Status = body.Status
	}
}

func CreateAdDraft(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	batch, ok := loadAdBatch(ctx, access.Brand.ID, false)
	if !ok {
		return
	}

	var body AdDraftRequest

	if !bindJSON(ctx, &body) {
		return
	}

	draft := models.AdDraft{AdBatchID: batch.ID, Status: types.AdDraftDraft}
	applyDraftRequest(&draft, body)

	if err := db.DB.Create(&draft).Error; err != nil {
		serverError(ctx, "Failed to create ad draft", err)
		return
	}

	ctx.JSON(http.StatusCreated, draft)
}

func ListAdDrafts(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	batch, ok := loadAdBatch(ctx, access.Brand.ID, false)
	if !ok {
		return
	}

	query := db.DB.Preload("Assets").Where("ad_batch_id = ?", batch.ID)
	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var drafts []models.AdDraft

	if err := query.Order("created_at ASC").Find(&drafts).Error; err != nil {
		serverError(ctx, "Failed to retrieve ad drafts", err)
		return
	}

	ctx.JSON(http.StatusOK, drafts)
}

func loadAdDraft(ctx *gin.Context, batchID string) (models.AdDraft, bool) {
	var draft models.AdDraft

	draftID, ok := uuidParam(ctx, "draft_id")
	if !ok {
		return draft, false
	}

	ok = findOr404(ctx, db.DB.Preload("Assets").Where("id = ? AND ad_batch_id = ?", draftID, batchID), &draft, "Ad draft not found")
	return draft, ok
}

// loadDraftForWrite resolves brand, batch and draft for a mutating request.
func loadDraftForWrite(ctx *gin.Context) (utils.BrandAccess, models.AdDraft, bool) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return access, models.AdDraft{}, false
	}

	batch, ok := loadAdBatch(ctx, access.Brand.ID, false)
	if !ok {
		return access, models.AdDraft{}, false
	}

	draft, ok := loadAdDraft(ctx, batch.ID)
	return access, draft, ok
}

func UpdateAdDraft(ctx *gin.Context) {
	_, draft, ok := loadDraftForWrite(ctx)
	if !ok {
		return
	}

	if draft.Status == types.AdDraftUploading {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Ad draft is being uploaded"})
		return
	}

	var body AdDraftRequest

	if !bindJSON(ctx, &body) {
		return
	}

	applyDraftRequest(&draft, body)

	if err := db.DB.Omit("Assets").Save(&draft).Error; err != nil {
		serverError(ctx, "Failed to update ad draft", err)
		return
	}

	ctx.JSON(http.StatusOK, draft)
}

func DeleteAdDraft(ctx *gin.Context) {
	_, draft, ok := loadDraftForWrite(ctx)
	if !ok {
		return
	}

	if err := db.DB.Select("Assets").Delete(&draft).Error; err != nil {
		serverError(ctx, "Failed to delete ad draft", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func assetTypeOf(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return types.AssetVideo
	case strings.HasPrefix(contentType, "image/"):
		return types.AssetImage
	default:
		return ""
	}
}

// UploadDraftAsset stores an image or video for the draft.
func UploadDraftAsset(ctx *gin.Context) {
	access, draft, ok := loadDraftForWrite(ctx)
	if !ok {
		return
	}

	header, err := ctx.FormFile("file")
	if err == nil && assetTypeOf(contentTypeOf(header)) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only image and video files can be attached"})
		return
	}

	stored, ok := storeFormFile(ctx, access.Brand.ID, "ad-assets", "file")
	if !ok {
		return
	}

	asset := models.AdDraftAsset{
		AdDraftID:  draft.ID,
		FileName:   stored.FileName,
		StorageKey: stored.Key,
		URL:        stored.URL,
		AssetType:  assetTypeOf(stored.ContentType),
	}

	if err := db.DB.Create(&asset).Error; err != nil {
		serverError(ctx, "Failed to attach asset", err)
		return
	}

	ctx.JSON(http.StatusCreated, asset)
}

func DeleteDraftAsset(ctx *gin.Context) {
	_, draft, ok := loadDraftForWrite(ctx)
	if !ok {
		return
	}

	assetID, ok := uuidParam(ctx, "asset_id")
	if !ok {
		return
	}

	var asset models.AdDraftAsset

	if !findOr404(ctx, db.DB.Where("id = ? AND ad_draft_id = ?", assetID, draft.ID), &asset, "Asset not found") {
		return
	}

	if err := db.DB.Delete(&asset).Error; err != nil {
		serverError(ctx, "Failed to delete asset", err)
		return
	}

	if deps.Store != nil && asset.StorageKey != "" {
		if err := deps.Store.Delete(detached(ctx), asset.StorageKey); err != nil {
			deps.Log.Warn("Failed to delete stored asset", "key", asset.StorageKey, "error", err)
		}
	}

	ctx.Status(http.StatusNoContent)
}

// LaunchAdBatch answers 202 with the progress id and uploads in the background.
func LaunchAdBatch(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	batch, ok := loadAdBatch(ctx, access.Brand.ID, false)
	if !ok {
		return
	}

	var body LaunchRequest

	if err := ctx.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	drafts, err := services.ReadyDrafts(batch.ID, body.DraftIDs)
	if err != nil {
		serverError(ctx, "Failed to load ad drafts", err)
		return
	}

	uploadID, err := deps.Launcher.Start(ctx.Request.Context(), access.Brand, batch, drafts)

	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotConfigured):
		upstreamError(ctx, "Failed to launch ads", err)
		return
	case errors.Is(err, services.ErrNoReadyDrafts), errors.Is(err, services.ErrBatchNoAdSet), errors.Is(err, services.ErrNoAdAccount):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		serverError(ctx, "Failed to launch ads", err)
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{
		"upload_id": uploadID,
		"drafts":    len(drafts),
	})
}
