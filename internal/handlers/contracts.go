package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/auth"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
	"gorm.io/gorm"
)

type RecipientRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	SigningOrder int    `json:"signing_order" binding:"min=0"`
}

type ContractResponse struct {
	models.Contract
	CreatorName string `json:"creator_name,omitempty"`
}

func recordAudit(contractID, action, actor, ip, details string) {
	entry := models.ContractAuditLog{
		ContractID: contractID,
		Action:     action,
		Actor:      actor,
		IPAddress:  ip,
		Details:    details,
	}
	if err := db.DB.Create(&entry).Error; err != nil {
		deps.Log.Error("Failed to store contract audit entry", "contract_id", contractID, "action", action, "error", err)
	}
}

func parseRecipients(raw string) ([]RecipientRequest, string) {
	var recipients []RecipientRequest

	if err := json.Unmarshal([]byte(raw), &recipients); err != nil {
		return nil, "Recipients must be a JSON array"
	}

	if len(recipients) == 0 {
		return nil, "At least one recipient is required"
	}

	seen := make(map[string]bool)

	for i := range recipients {
		recipients[i].Name = strings.TrimSpace(recipients[i].Name)
		recipients[i].Email = utils.NormalizeEmail(recipients[i].Email)

		if err := binding.Validator.ValidateStruct(&recipients[i]); err != nil {
			return nil, "Each recipient needs a name and a valid email"
		}
		if seen[recipients[i].Email] {
			return nil, "Recipient emails must be unique"
		}
		seen[recipients[i].Email] = true

		if recipients[i].SigningOrder == 0 {
			recipients[i].SigningOrder = i + 1
		}
	}

	return recipients, ""
}

// CreateContract takes a multipart form with the document and recipients.
func CreateContract(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	title := strings.TrimSpace(ctx.PostForm("title"))
	if title == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	recipients, problem := parseRecipients(ctx.PostForm("recipients"))
	if problem != "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": problem})
		return
	}

	var creatorID *string
	if raw := strings.TrimSpace(ctx.PostForm("creator_id")); raw != "" {
		if _, err := creatorInBrand(access.Brand.ID, raw); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Creator not found in this brand"})
			return
		}
		creatorID = &raw
	}

	stored, ok := storeFormFile(ctx, access.Brand.ID, "contracts", "document")
	if !ok {
		return
	}

	contract := models.Contract{
		BrandID:      access.Brand.ID,
		CreatorID:    creatorID,
		Title:        title,
		DocumentURL:  stored.URL,
		DocumentKey:  stored.Key,
		DocumentName: stored.FileName,
		Status:       types.ESignDraft,
	}

	for _, r := range recipients {
		contract.Recipients = append(contract.Recipients, models.ContractRecipient{
			Name:         r.Name,
			Email:        r.Email,
			SigningOrder: r.SigningOrder,
			Status:       types.RecipientPending,
		})
	}

	if err := db.DB.Create(&contract).Error; err != nil {
		if delErr := deps.Store.Delete(detached(ctx), stored.Key); delErr != nil {
			deps.Log.Warn("Failed to remove orphaned contract document", "key", stored.Key, "error", delErr)
		}
		serverError(ctx, "Failed to create contract", err)
		return
	}

	recordAudit(contract.ID, types.AuditCreated, access.UserID, ctx.ClientIP(), stored.FileName)

	ctx.JSON(http.StatusCreated, contract)
}

func ListContracts(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	query := db.DB.Preload("Recipients").Where("brand_id = ?", access.Brand.ID)

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if creatorID := ctx.Query("creator_id"); creatorID != "" {
		query = query.Where("creator_id = ?", creatorID)
	}

	var contracts []models.Contract

	if err := query.Order("created_at DESC").Find(&contracts).Error; err != nil {
		serverError(ctx, "Failed to retrieve contracts", err)
		return
	}

	ctx.JSON(http.StatusOK, contracts)
}

func loadContract(ctx *gin.Context, brandID string) (models.Contract, bool) {
	var contract models.Contract

	contractID, ok := uuidParam(ctx, "contract_id")
	if !ok {
		return contract, false
	}

	query := db.DB.Preload("Recipients", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("signing_order ASC")
	}).Where("id = ? AND brand_id = ?", contractID, brandID)

	ok = findOr404(ctx, query, &contract, "Contract not found")
	return contract, ok
}

func GetContract(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	contract, ok := loadContract(ctx, access.Brand.ID)
	if !ok {
		return
	}

	response := ContractResponse{Contract: contract}
	if contract.CreatorID != nil {
		if creator, err := creatorInBrand(access.Brand.ID, *contract.CreatorID); err == nil {
			response.CreatorName = creator.Name
		}
	}

	ctx.JSON(http.StatusOK, response)
}

func signingLink(contractID, token string) string {
	return strings.TrimSuffix(deps.Config.Server.PublicURL, "/") + "/sign/" + contractID + "?token=" + token
}

// SendContract issues a fresh signing token to every pending recipient and
// emails the links. Earlier links of those recipients stop working.
func SendContract(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	contract, ok := loadContract(ctx, access.Brand.ID)
	if !ok {
		return
	}

	switch contract.Status {
	case types.ESignCompleted, types.ESignVoided:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Contract can no longer be sent"})
		return
	}

	if deps.Notifier.Mailer == nil {
		upstreamError(ctx, "Failed to send contract", services.ErrNotConfigured)
		return
	}

	var emails []services.EmailMessage

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		for i := range contract.Recipients {
			recipient := &contract.Recipients[i]
			if recipient.Status != types.RecipientPending {
				continue
			}

			token, hash, err := auth.NewSigningToken()
			if err != nil {
				return err
			}

			if err := tx.Model(recipient).Update("token_hash", hash).Error; err != nil {
				return err
			}

			emails = append(emails, services.SigningRequestEmail(
				recipient.Name, recipient.Email, senderName(access.Brand), contract.Title, signingLink(contract.ID, token),
			))
		}

		now := time.Now()
		contract.SentAt = &now
		if contract.Status == types.ESignDraft {
			contract.Status = types.ESignSent
		}

		return tx.Model(&contract).Updates(map[string]interface{}{
			"sent_at": contract.SentAt,
			"status":  contract.Status,
		}).Error
	})

	if err != nil {
		serverError(ctx, "Failed to send contract", err)
		return
	}

	if contract.CreatorID != nil {
		if err := db.DB.Model(&models.Creator{}).
			Where("id = ? AND contract_status = ?", *contract.CreatorID, types.ContractStatusNotSigned).
			Update("contract_status", types.ContractStatusSent).Error; err != nil {
			deps.Log.Warn("Failed to update creator contract status", "creator_id", *contract.CreatorID, "error", err)
		}
	}

	recordAudit(contract.ID, types.AuditSent, access.UserID, ctx.ClientIP(), strings.Join(recipientEmails(emails), ", "))

	response := gin.H{"contract": contract}

	if err := deps.Notifier.EmailAll(detached(ctx), access.Brand.ID, types.EventContractSent, emails); err != nil {
		response["warning"] = "Some signing emails could not be delivered: " + err.Error()
	}

	ctx.JSON(http.StatusOK, response)
}

func recipientEmails(msgs []services.EmailMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ToEmail)
	}
	sort.Strings(out)
	return out
}

func VoidContract(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	contract, ok := loadContract(ctx, access.Brand.ID)
	if !ok {
		return
	}

	if contract.Status == types.ESignCompleted || contract.Status == types.ESignVoided {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Contract cannot be voided"})
		return
	}

	if err := db.DB.Model(&contract).Update("status", types.ESignVoided).Error; err != nil {
		serverError(ctx, "Failed to void contract", err)
		return
	}
	contract.Status = types.ESignVoided

	recordAudit(contract.ID, types.AuditVoided, access.UserID, ctx.ClientIP(), "")

	ctx.JSON(http.StatusOK, contract)
}

func GetContractAudit(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	contract, ok := loadContract(ctx, access.Brand.ID)
	if !ok {
		return
	}

	var entries []models.ContractAuditLog

	if err := db.DB.Where("contract_id = ?", contract.ID).Order("created_at ASC").Find(&entries).Error; err != nil {
		serverError(ctx, "Failed to retrieve audit log", err)
		return
	}

	ctx.JSON(http.StatusOK, entries)
}
