package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/types"
)

type ScriptResponseRequest struct {
	Accept *bool  `json:"accept" binding:"required"`
	Notes  string `json:"notes"`
}

type SubmitContentRequest struct {
	ContentLink string `json:"content_link" binding:"required,url"`
}

// PublicScript is what a creator sees through the share link.
type PublicScript struct {
	ShareID          string               `json:"share_id"`
	Title            string               `json:"title"`
	BrandName        string               `json:"brand_name"`
	CreatorName      string               `json:"creator_name"`
	Content          models.ScriptContent `json:"content"`
	BRollShotList    []string             `json:"b_roll_shot_list"`
	Status           string               `json:"status"`
	RevisionNotes    string               `json:"revision_notes"`
	FinalContentLink string               `json:"final_content_link"`
}

func toPublicScript(script models.Script) PublicScript {
	view := PublicScript{
		ShareID:          script.ShareID,
		Title:            script.Title,
		BrandName:        script.Brand.Name,
		Content:          script.Content.Data(),
		BRollShotList:    script.BRollShotList,
		Status:           script.Status,
		RevisionNotes:    script.RevisionNotes,
		FinalContentLink: script.FinalContentLink,
	}
	if script.Creator != nil {
		view.CreatorName = script.Creator.Name
	}
	if view.BRollShotList == nil {
		view.BRollShotList = []string{}
	}
	return view
}

func loadSharedScript(ctx *gin.Context) (models.Script, bool) {
	var script models.Script

	shareID, ok := uuidParam(ctx, "share_id")
	if !ok {
		return script, false
	}

	ok = findOr404(ctx, db.DB.Preload("Brand").Preload("Creator").Where("share_id = ?", shareID), &script, "Script not found")
	return script, ok
}

func GetPublicScript(ctx *gin.Context) {
	script, ok := loadSharedScript(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, toPublicScript(script))
}

// RespondToScript records the creator accepting or declining an assigned script.
func RespondToScript(ctx *gin.Context) {
	script, ok := loadSharedScript(ctx)
	if !ok {
		return
	}

	var body ScriptResponseRequest

	if !bindJSON(ctx, &body) {
		return
	}

	if script.Status != types.ScriptStatusAssigned {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Script is not awaiting a creator response"})
		return
	}

	updates := map[string]interface{}{"status": types.ScriptStatusCreatorApproved}
	if !*body.Accept {
		updates["status"] = types.ScriptStatusCreatorReassignment
		updates["revision_notes"] = body.Notes
	}

	brand := script.Brand

	if err := updateScriptStatus(ctx, brand, &script, updates); err != nil {
		serverError(ctx, "Failed to record response", err)
		return
	}
	script.Brand = brand

	ctx.JSON(http.StatusOK, toPublicScript(script))
}

// SubmitScriptContent stores the link to the filmed content.
func SubmitScriptContent(ctx *gin.Context) {
	script, ok := loadSharedScript(ctx)
	if !ok {
		return
	}

	var body SubmitContentRequest

	if !bindJSON(ctx, &body) {
		return
	}

	if script.Status != types.ScriptStatusCreatorApproved && script.Status != types.ScriptStatusContentRevisionRequested {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Script is not accepting content submissions"})
		return
	}

	brand := script.Brand

	updates := map[string]interface{}{
		"status":             types.ScriptStatusContentSubmitted,
		"final_content_link": body.ContentLink,
	}

	if err := updateScriptStatus(ctx, brand, &script, updates); err != nil {
		serverError(ctx, "Failed to submit content", err)
		return
	}
	script.Brand = brand

	ctx.JSON(http.StatusOK, toPublicScript(script))
}
