package handlers

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
	"gorm.io/datatypes"
)

// New OneSheets start with these sections. Other keys are accepted too.
var oneSheetSections = []string{
	"audience_insights",
	"angles",
	"competitor_analysis",
	"hooks",
	"visuals",
	"prior_ads_notes",
}

var sectionKey = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

type OneSheetRequest struct {
	Title          string                 `json:"title" binding:"required"`
	Product        string                 `json:"product"`
	LandingPageURL string                 `json:"landing_page_url" binding:"omitempty,url"`
	Status         string                 `json:"status" binding:"omitempty,oneof=draft in_progress complete"`
	Sections       map[string]interface{} `json:"sections"`
}

type SynthesizeRequest struct {
	Section string `json:"section" binding:"required"`
	Context string `json:"context"`
}

func validSections(sections map[string]interface{}) bool {
	for key := range sections {
		if !sectionKey.MatchString(key) {
			return false
		}
	}
	return true
}

func CreateOneSheet(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	var body OneSheetRequest

	if !bindJSON(ctx, &body) {
		return
	}

	if !validSections(body.Sections) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid section name"})
		return
	}

	sheet := models.OneSheet{
		BrandID:        access.Brand.ID,
		Title:          strings.TrimSpace(body.Title),
		Product:        strings.TrimSpace(body.Product),
		LandingPageURL: body.LandingPageURL,
		Status:         types.OneSheetDraft,
		Sections:       datatypes.JSONMap(body.Sections),
	}
	if body.Status != "" {
		sheet.Status = body.Status
	}
	if sheet.Sections == nil {
		sheet.Sections = datatypes.JSONMap{}
		for _, section := range oneSheetSections {
			sheet.Sections[section] = map[string]interface{}{}
		}
	}

	if err := db.DB.Create(&sheet).Error; err != nil {
		serverError(ctx, "Failed to create OneSheet", err)
		return
	}

	ctx.JSON(http.StatusCreated, sheet)
}

func ListOneSheets(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	var sheets []models.OneSheet

	if err := db.DB.Where("brand_id = ?", access.Brand.ID).Order("updated_at DESC").Find(&sheets).Error; err != nil {
		serverError(ctx, "Failed to retrieve OneSheets", err)
		return
	}

	ctx.JSON(http.StatusOK, sheets)
}

func loadOneSheet(ctx *gin.Context, brandID string) (models.OneSheet, bool) {
	var sheet models.OneSheet

	sheetID, ok := uuidParam(ctx, "onesheet_id")
	if !ok {
		return sheet, false
	}

	ok = findOr404(ctx, db.DB.Where("id = ? AND brand_id = ?", sheetID, brandID), &sheet, "OneSheet not found")
	return sheet, ok
}

func GetOneSheet(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	sheet, ok := loadOneSheet(ctx, access.Brand.ID)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, sheet)
}

func UpdateOneSheet(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	sheet, ok := loadOneSheet(ctx, access.Brand.ID)
	if !ok {
		return
	}

	var body OneSheetRequest

	if !bindJSON(ctx, &body) {
		return
	}

	if !validSections(body.Sections) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid section name"})
		return
	}

	sheet.Title = strings.TrimSpace(body.Title)
	sheet.Product = strings.TrimSpace(body.Product)
	sheet.LandingPageURL = body.LandingPageURL
	if body.Status != "" {
		sheet.Status = body.Status
	}
	if body.Sections != nil {
		sheet.Sections = datatypes.JSONMap(body.Sections)
	}

	if err := db.DB.Save(&sheet).Error; err != nil {
		serverError(ctx, "Failed to update OneSheet", err)
		return
	}

	ctx.JSON(http.StatusOK, sheet)
}

func DeleteOneSheet(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	sheet, ok := loadOneSheet(ctx, access.Brand.ID)
	if !ok {
		return
	}

	if err := db.DB.Delete(&sheet).Error; err != nil {
		serverError(ctx, "Failed to delete OneSheet", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// SynthesizeOneSheetSection writes one section with a single model call.
func SynthesizeOneSheetSection(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	sheet, ok := loadOneSheet(ctx, access.Brand.ID)
	if !ok {
		return
	}

	var body SynthesizeRequest

	if !bindJSON(ctx, &body) {
		return
	}

	if !sectionKey.MatchString(body.Section) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid section name"})
		return
	}

	if deps.AI == nil {
		upstreamError(ctx, "Failed to synthesize section", services.ErrNotConfigured)
		return
	}

	prompt := services.OneSheetSectionPrompt(access.Brand.Name, sheet.Product, sheet.LandingPageURL, body.Section, body.Context)

	var result services.OneSheetSectionResult

	if err := deps.AI.GenerateJSON(ctx.Request.Context(), services.OneSheetSystemPrompt, prompt, &result); err != nil {
		upstreamError(ctx, "Failed to synthesize section", err)
		return
	}

	if result.Bullets == nil {
		result.Bullets = []string{}
	}

	if sheet.Sections == nil {
		sheet.Sections = datatypes.JSONMap{}
	}
	sheet.Sections[body.Section] = map[string]interface{}{
		"content":      result.Content,
		"bullets":      result.Bullets,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if sheet.Status == types.OneSheetDraft {
		sheet.Status = types.OneSheetInProgress
	}

	if err := db.DB.Save(&sheet).Error; err != nil {
		serverError(ctx, "Failed to save section", err)
		return
	}

	ctx.JSON(http.StatusOK, sheet)
}
