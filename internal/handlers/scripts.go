package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/storage"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
	"gorm.io/datatypes"
)

type ScriptRequest struct {
	Title            string               `json:"title" binding:"required"`
	CreatorID        *string              `json:"creator_id" binding:"omitempty,uuid"`
	Content          models.ScriptContent `json:"content"`
	BRollShotList    []string             `json:"b_roll_shot_list"`
	HookType         string               `json:"hook_type"`
	HookCount        int                  `json:"hook_count" binding:"min=0"`
	Status           string               `json:"status"`
	ConceptStatus    string               `json:"concept_status"`
	RevisionNotes    string               `json:"revision_notes"`
	FinalContentLink string               `json:"final_content_link"`
}

type ScriptNotesRequest struct {
	Notes string `json:"notes" binding:"required"`
}

type AssignScriptRequest struct {
	CreatorID string `json:"creator_id" binding:"required,uuid"`
}

type GenerateScriptRequest struct {
	Product           string  `json:"product" binding:"required"`
	HookType          string  `json:"hook_type"`
	HookCount         int     `json:"hook_count" binding:"min=0,max=10"`
	CreativeDirection string  `json:"creative_direction"`
	CreatorID         *string `json:"creator_id" binding:"omitempty,uuid"`
}

// scriptShareURL is the public page a creator opens to review a script.
func scriptShareURL(script models.Script) string {
	return strings.TrimSuffix(deps.Config.Server.PublicURL, "/") + "/scripts/" + script.ShareID
}

func creatorInBrand(brandID, creatorID string) (models.Creator, error) {
	var creator models.Creator
	err := db.DB.Where("id = ? AND brand_id = ?", creatorID, brandID).First(&creator).Error
	return creator, err
}

// requireCreatorInBrand answers 400 when the referenced creator is not part of the brand.
func requireCreatorInBrand(ctx *gin.Context, brandID string, creatorID *string) (*models.Creator, bool) {
	if creatorID == nil || *creatorID == "" {
		return nil, true
	}

	creator, err := creatorInBrand(brandID, *creatorID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Creator not found in this brand"})
		return nil, false
	}
	return &creator, true
}

func CreateScript(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	var body ScriptRequest

	if !bindJSON(ctx, &body) {
		return
	}

	if _, ok := requireCreatorInBrand(ctx, access.Brand.ID, body.CreatorID); !ok {
		return
	}

	status := body.Status
	if status == "" {
		status = types.ScriptStatusPendingApproval
	}
	if !slices.Contains(types.ScriptStatuses, status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid script status"})
		return
	}

	script := models.Script{
		BrandID:          access.Brand.ID,
		CreatorID:        emptyToNil(body.CreatorID),
		Title:            strings.TrimSpace(body.Title),
		Content:          datatypes.NewJSONType(body.Content),
		BRollShotList:    body.BRollShotList,
		HookType:         body.HookType,
		HookCount:        body.HookCount,
		Status:           status,
		ConceptStatus:    body.ConceptStatus,
		RevisionNotes:    body.RevisionNotes,
		FinalContentLink: body.FinalContentLink,
		ShareID:          uuid.NewString(),
	}

	if err := db.DB.Create(&script).Error; err != nil {
		serverError(ctx, "Failed to create script", err)
		return
	}

	ctx.JSON(http.StatusCreated, script)
}

func ListScripts(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	query := db.DB.Preload("Creator").Where("brand_id = ?", access.Brand.ID)

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if creatorID := ctx.Query("creator_id"); creatorID != "" {
		query = query.Where("creator_id = ?", creatorID)
	}

	var scripts []models.Script

	if err := query.Order("created_at DESC").Find(&scripts).Error; err != nil {
		serverError(ctx, "Failed to retrieve scripts", err)
		return
	}

	ctx.JSON(http.StatusOK, scripts)
}

func loadScript(ctx *gin.Context, brandID string) (models.Script, bool) {
	var script models.Script

	scriptID, ok := uuidParam(ctx, "script_id")
	if !ok {
		return script, false
	}

	ok = findOr404(ctx, db.DB.Preload("Creator").Where("id = ? AND brand_id = ?", scriptID, brandID), &script, "Script not found")
	return script, ok
}

func GetScript(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	script, ok := loadScript(ctx, access.Brand.ID)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, script)
}

func UpdateScript(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	script, ok := loadScript(ctx, access.Brand.ID)
	if !ok {
		return
	}

	var body ScriptRequest

	if !bindJSON(ctx, &body) {
		return
	}

	if _, ok := requireCreatorInBrand(ctx, access.Brand.ID, body.CreatorID); !ok {
		return
	}

	if body.Status != "" {
		if !slices.Contains(types.ScriptStatuses, body.Status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid script status"})
			return
		}
		script.Status = body.Status
	}

	script.Title = strings.TrimSpace(body.Title)
	script.CreatorID = emptyToNil(body.CreatorID)
	script.Creator = nil
	script.Content = datatypes.NewJSONType(body.Content)
	script.BRollShotList = body.BRollShotList
	script.HookType = body.HookType
	script.HookCount = body.HookCount
	script.ConceptStatus = body.ConceptStatus
	script.RevisionNotes = body.RevisionNotes
	script.FinalContentLink = body.FinalContentLink

	if err := db.DB.Save(&script).Error; err != nil {
		serverError(ctx, "Failed to update script", err)
		return
	}

	ctx.JSON(http.StatusOK, script)
}

func DeleteScript(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	script, ok := loadScript(ctx, access.Brand.ID)
	if !ok {
		return
	}

	if err := db.DB.Delete(&script).Error; err != nil {
		serverError(ctx, "Failed to delete script", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// updateScriptStatus saves the status change and posts the Slack update.
func updateScriptStatus(ctx *gin.Context, brand models.Brand, script *models.Script, updates map[string]interface{}) error {
	// the preloaded creator would be written back over creator_id
	scriptID := script.ID
	if err := db.DB.Model(&models.Script{}).Where("id = ?", scriptID).Updates(updates).Error; err != nil {
		return err
	}

	*script = models.Script{}
	if err := db.DB.Preload("Creator").Where("id = ?", scriptID).First(script).Error; err != nil {
		return err
	}

	creatorName := ""
	if script.Creator != nil {
		creatorName = script.Creator.Name
	}

	deps.Notifier.NotifySlack(detached(ctx), brand, types.EventScriptStatusChanged, services.ScriptStatusMessage(brand, *script, creatorName))
	return nil
}

func scriptAction(ctx *gin.Context, status string, withNotes bool) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	script, ok := loadScript(ctx, access.Brand.ID)
	if !ok {
		return
	}

	updates := map[string]interface{}{"status": status}

	if withNotes {
		var body ScriptNotesRequest
		if !bindJSON(ctx, &body) {
			return
		}
		updates["revision_notes"] = body.Notes
	}

	if err := updateScriptStatus(ctx, access.Brand, &script, updates); err != nil {
		serverError(ctx, "Failed to update script", err)
		return
	}

	ctx.JSON(http.StatusOK, script)
}

func ApproveScript(ctx *gin.Context) {
	scriptAction(ctx, types.ScriptStatusApproved, false)
}

func RequestScriptRevision(ctx *gin.Context) {
	scriptAction(ctx, types.ScriptStatusRevisionRequested, true)
}

func ApproveScriptContent(ctx *gin.Context) {
	scriptAction(ctx, types.ScriptStatusFinalApproved, false)
}

func RequestContentRevision(ctx *gin.Context) {
	scriptAction(ctx, types.ScriptStatusContentRevisionRequested, true)
}

func AssignScript(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	script, ok := loadScript(ctx, access.Brand.ID)
	if !ok {
		return
	}

	var body AssignScriptRequest

	if !bindJSON(ctx, &body) {
		return
	}

	creator, ok := requireCreatorInBrand(ctx, access.Brand.ID, &body.CreatorID)
	if !ok {
		return
	}

	updates := map[string]interface{}{
		"creator_id": creator.ID,
		"status":     types.ScriptStatusAssigned,
	}

	if err := updateScriptStatus(ctx, access.Brand, &script, updates); err != nil {
		serverError(ctx, "Failed to assign script", err)
		return
	}

	deps.Automation.RunIfEnabled(detached(ctx), access.Brand, config.WorkflowScriptAssigned, map[string]any{
		"script_id":     script.ID,
		"script_title":  script.Title,
		"share_url":     scriptShareURL(script),
		"creator_id":    creator.ID,
		"creator_name":  creator.Name,
		"creator_email": creator.Email,
	})

	ctx.JSON(http.StatusOK, script)
}

// GenerateScript drafts a script with one model call and stores it for approval.
func GenerateScript(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	if deps.AI == nil {
		upstreamError(ctx, "Failed to generate script", services.ErrNotConfigured)
		return
	}

	var body GenerateScriptRequest

	if !bindJSON(ctx, &body) {
		return
	}

	creator, ok := requireCreatorInBrand(ctx, access.Brand.ID, body.CreatorID)
	if !ok {
		return
	}

	brief := services.ScriptBrief{
		BrandName:         access.Brand.Name,
		BrandInfo:         string(access.Brand.BrandInfo),
		TargetAudience:    string(access.Brand.TargetAudience),
		Product:           body.Product,
		HookType:          body.HookType,
		HookCount:         body.HookCount,
		CreativeDirection: body.CreativeDirection,
	}
	if creator != nil {
		brief.CreatorName = creator.Name
		brief.CreatorPlatforms = creator.Platforms
	}

	var generated services.GeneratedScript

	if err := deps.AI.GenerateJSON(ctx.Request.Context(), services.ScriptSystemPrompt, services.ScriptPrompt(brief), &generated); err != nil {
		upstreamError(ctx, "Failed to generate script", err)
		return
	}

	content := generated.Content()
	for i, hook := range generated.Hooks {
		content.Segments = append(content.Segments, models.ScriptSegment{
			Segment:    fmt.Sprintf("Alternative hook %d", i+1),
			ScriptText: hook,
		})
	}

	title := strings.TrimSpace(generated.Title)
	if title == "" {
		title = body.Product + " script"
	}

	script := models.Script{
		BrandID:       access.Brand.ID,
		Title:         title,
		Content:       datatypes.NewJSONType(content),
		BRollShotList: generated.BRollShotList,
		HookType:      body.HookType,
		HookCount:     body.HookCount,
		Status:        types.ScriptStatusPendingApproval,
		ShareID:       uuid.NewString(),
	}
	if creator != nil {
		script.CreatorID = &creator.ID
	}

	if err := db.DB.Create(&script).Error; err != nil {
		serverError(ctx, "Failed to save generated script", err)
		return
	}

	ctx.JSON(http.StatusCreated, script)
}

// GenerateVoiceover renders the spoken lines to MP3 and stores the file.
func GenerateVoiceover(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	script, ok := loadScript(ctx, access.Brand.ID)
	if !ok {
		return
	}

	if deps.Voice == nil || deps.Store == nil {
		upstreamError(ctx, "Failed to generate voiceover", services.ErrNotConfigured)
		return
	}

	narration := script.Content.Data().Narration()
	if strings.TrimSpace(narration) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Script has no text to narrate"})
		return
	}

	voiceID := access.Brand.ElevenLabsVoiceID
	if voiceID == "" {
		voiceID = deps.Voice.DefaultVoice()
	}
	if voiceID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Brand has no ElevenLabs voice configured"})
		return
	}

	audio, err := deps.Voice.Synthesize(ctx.Request.Context(), voiceID, narration)
	if err != nil {
		upstreamError(ctx, "Failed to generate voiceover", err)
		return
	}

	key := storage.ObjectKey(access.Brand.ID, "voiceovers", script.ID+".mp3")

	url, err := deps.Store.Put(ctx.Request.Context(), key, "audio/mpeg", bytes.NewReader(audio))
	if err != nil {
		upstreamError(ctx, "Failed to store voiceover", err)
		return
	}

	if err := db.DB.Model(&script).Update("voiceover_url", url).Error; err != nil {
		serverError(ctx, "Failed to update script", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"voiceover_url": url, "script": script})
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
