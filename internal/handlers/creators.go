package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
)

type CreatorRequest struct {
	Name            string   `json:"name" binding:"required"`
	Email           string   `json:"email" binding:"omitempty,email"`
	Phone           string   `json:"phone"`
	InstagramHandle string   `json:"instagram_handle"`
	TiktokHandle    string   `json:"tiktok_handle"`
	PortfolioLink   string   `json:"portfolio_link"`
	Address         string   `json:"address"`
	Products        []string `json:"products"`
	Platforms       []string `json:"platforms"`
	PerScriptRate   float64  `json:"per_script_rate" binding:"min=0"`
	Status          string   `json:"status"`
	ContractStatus  string   `json:"contract_status"`
	Notes           string   `json:"notes"`
}

type CreatorApplicationRequest struct {
	Name            string   `json:"name" binding:"required"`
	Email           string   `json:"email" binding:"required,email"`
	Phone           string   `json:"phone"`
	InstagramHandle string   `json:"instagram_handle"`
	TiktokHandle    string   `json:"tiktok_handle"`
	PortfolioLink   string   `json:"portfolio_link"`
	Address         string   `json:"address"`
	Products        []string `json:"products"`
	Platforms       []string `json:"platforms"`
	Notes           string   `json:"notes"`
}

type UpdateCreatorStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreatorEmailRequest struct {
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

var contractStatuses = []string{
	types.ContractStatusNotSigned,
	types.ContractStatusSent,
	types.ContractStatusSigned,
}

const duplicateCreatorEmail = "A creator with this email already exists"

func applyCreatorRequest(creator *models.Creator, body CreatorRequest) {
	creator.Name = strings.TrimSpace(body.Name)
	creator.Email = utils.NormalizeEmail(body.Email)
	creator.Phone = strings.TrimSpace(body.Phone)
	creator.InstagramHandle = strings.TrimSpace(body.InstagramHandle)
	creator.TiktokHandle = strings.TrimSpace(body.TiktokHandle)
	creator.PortfolioLink = strings.TrimSpace(body.PortfolioLink)
	creator.Address = body.Address
	creator.Products = body.Products
	creator.Platforms = body.Platforms
	creator.PerScriptRate = body.PerScriptRate
	creator.Notes = body.Notes

	if body.Status != "" {
		creator.Status = body.Status
	}
	if body.ContractStatus != "" {
		creator.ContractStatus = body.ContractStatus
	}
}

func validateCreator(ctx *gin.Context, creator models.Creator) bool {
	if creator.Name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return false
	}
	if !slices.Contains(types.CreatorStatuses, creator.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid creator status"})
		return false
	}
	if !slices.Contains(contractStatuses, creator.ContractStatus) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract status"})
		return false
	}
	return true
}

func CreateCreator(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	var body CreatorRequest

	if !bindJSON(ctx, &body) {
		return
	}

	creator := models.Creator{
		BrandID:        access.Brand.ID,
		Status:         types.CreatorStatusNewSubmission,
		ContractStatus: types.ContractStatusNotSigned,
	}
	applyCreatorRequest(&creator, body)

	if !validateCreator(ctx, creator) {
		return
	}

	if err := db.DB.Create(&creator).Error; err != nil {
		if isUniqueViolation(err) {
			ctx.JSON(http.StatusConflict, gin.H{"error": duplicateCreatorEmail})
			return
		}
		serverError(ctx, "Failed to create creator", err)
		return
	}

	ctx.JSON(http.StatusCreated, creator)
}

func ListCreators(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	query := db.DB.Where("brand_id = ?", access.Brand.ID)

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if q := strings.TrimSpace(ctx.Query("q")); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var creators []models.Creator

	if err := query.Order("created_at DESC").Find(&creators).Error; err != nil {
		serverError(ctx, "Failed to retrieve creators", err)
		return
	}

	ctx.JSON(http.StatusOK, creators)
}

// loadCreator reads :creator_id scoped to the brand.
func loadCreator(ctx *gin.Context, brandID string) (models.Creator, bool) {
	var creator models.Creator

	creatorID, ok := uuidParam(ctx, "creator_id")
	if !ok {
		return creator, false
	}

	ok = findOr404(ctx, db.DB.Where("id = ? AND brand_id = ?", creatorID, brandID), &creator, "Creator not found")
	return creator, ok
}

func GetCreator(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	creator, ok := loadCreator(ctx, access.Brand.ID)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, creator)
}

func UpdateCreator(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	creator, ok := loadCreator(ctx, access.Brand.ID)
	if !ok {
		return
	}

	var body CreatorRequest

	if !bindJSON(ctx, &body) {
		return
	}

	applyCreatorRequest(&creator, body)

	if !validateCreator(ctx, creator) {
		return
	}

	if err := db.DB.Save(&creator).Error; err != nil {
		if isUniqueViolation(err) {
			ctx.JSON(http.StatusConflict, gin.H{"error": duplicateCreatorEmail})
			return
		}
		serverError(ctx, "Failed to update creator", err)
		return
	}

	ctx.JSON(http.StatusOK, creator)
}

func DeleteCreator(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	creator, ok := loadCreator(ctx, access.Brand.ID)
	if !ok {
		return
	}

	if err := db.DB.Delete(&creator).Error; err != nil {
		serverError(ctx, "Failed to delete creator", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// setCreatorStatus persists a pipeline move and fans out the side effects.
// Notification and automation failures are logged only.
func setCreatorStatus(ctx *gin.Context, brand models.Brand, creator *models.Creator, status string) error {
	previous := creator.Status

	if err := db.DB.Model(creator).Update("status", status).Error; err != nil {
		return err
	}
	creator.Status = status

	if previous == status {
		return nil
	}

	bg := detached(ctx)
	deps.Notifier.NotifySlack(bg, brand, types.EventCreatorStatusChanged, services.CreatorStatusChangedMessage(brand, *creator, previous))
	deps.Automation.RunIfEnabled(bg, brand, config.WorkflowCreatorStatusChange, map[string]any{
		"creator_id":      creator.ID,
		"name":            creator.Name,
		"email":           creator.Email,
		"previous_status": previous,
		"status":          status,
	})

	return nil
}

func UpdateCreatorStatus(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	creator, ok := loadCreator(ctx, access.Brand.ID)
	if !ok {
		return
	}

	var body UpdateCreatorStatusRequest

	if !bindJSON(ctx, &body) {
		return
	}

	if !slices.Contains(types.CreatorStatuses, body.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid creator status"})
		return
	}

	if err := setCreatorStatus(ctx, access.Brand, &creator, body.Status); err != nil {
		serverError(ctx, "Failed to update creator status", err)
		return
	}

	ctx.JSON(http.StatusOK, creator)
}

// ApplyAsCreator is the public application form. No session is required.
func ApplyAsCreator(ctx *gin.Context) {
	brandID, ok := uuidParam(ctx, "brand_id")
	if !ok {
		return
	}

	var brand models.Brand

	if !findOr404(ctx, db.DB.Where("id = ?", brandID), &brand, "Brand not found") {
		return
	}

	var body CreatorApplicationRequest

	if !bindJSON(ctx, &body) {
		return
	}

	creator := models.Creator{
		BrandID:         brand.ID,
		Name:            strings.TrimSpace(body.Name),
		Email:           utils.NormalizeEmail(body.Email),
		Phone:           strings.TrimSpace(body.Phone),
		InstagramHandle: strings.TrimSpace(body.InstagramHandle),
		TiktokHandle:    strings.TrimSpace(body.TiktokHandle),
		PortfolioLink:   strings.TrimSpace(body.PortfolioLink),
		Address:         body.Address,
		Products:        body.Products,
		Platforms:       body.Platforms,
		Notes:           body.Notes,
		Status:          types.CreatorStatusNewSubmission,
		ContractStatus:  types.ContractStatusNotSigned,
	}

	if creator.Name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	if err := db.DB.Create(&creator).Error; err != nil {
		if isUniqueViolation(err) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "An application with this email already exists"})
			return
		}
		serverError(ctx, "Failed to submit application", err)
		return
	}

	bg := detached(ctx)
	deps.Automation.RunIfEnabled(bg, brand, config.WorkflowCreatorApplication, map[string]any{
		"creator_id":       creator.ID,
		"name":             creator.Name,
		"email":            creator.Email,
		"instagram_handle": creator.InstagramHandle,
		"tiktok_handle":    creator.TiktokHandle,
		"portfolio_link":   creator.PortfolioLink,
		"platforms":        []string(creator.Platforms),
	})
	deps.Notifier.NotifySlack(bg, brand, types.EventCreatorApplied, services.CreatorAppliedMessage(brand, creator))

	ctx.JSON(http.StatusCreated, gin.H{
		"message":    "Application received",
		"creator_id": creator.ID,
	})
}

func senderName(brand models.Brand) string {
	if brand.EmailSenderName != "" {
		return brand.EmailSenderName
	}
	return brand.Name
}

// sendCreatorEmail renders subject and body against the creator and sends them.
func sendCreatorEmail(ctx *gin.Context, brand models.Brand, creator models.Creator, subject, body string) error {
	if creator.Email == "" {
		return errNoCreatorEmail
	}

	data := services.EmailTemplateData{
		CreatorName: creator.Name,
		BrandName:   brand.Name,
		SenderName:  senderName(brand),
	}

	renderedSubject, err := services.RenderEmailTemplate(subject, data)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadEmailTemplate, err)
	}

	renderedBody, err := services.RenderEmailTemplate(body, data)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadEmailTemplate, err)
	}

	return deps.Notifier.Email(detached(ctx), brand.ID, types.EventCreatorEmail, services.EmailMessage{
		FromName:  senderName(brand),
		ToName:    creator.Name,
		ToEmail:   creator.Email,
		Subject:   renderedSubject,
		PlainText: renderedBody,
	})
}

var (
	errNoCreatorEmail   = errors.New("creator has no email address")
	errBadEmailTemplate = errors.New("invalid email template")
)

func EmailCreator(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	creator, ok := loadCreator(ctx, access.Brand.ID)
	if !ok {
		return
	}

	var body CreatorEmailRequest

	if !bindJSON(ctx, &body) {
		return
	}

	if err := sendCreatorEmail(ctx, access.Brand, creator, body.Subject, body.Body); err != nil {
		respondEmailError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Email sent"})
}

func respondEmailError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, errNoCreatorEmail):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Creator has no email address"})
	case errors.Is(err, errBadEmailTemplate):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		upstreamError(ctx, "Failed to send email", err)
	}
}
