package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/auth"
	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"gorm.io/gorm"
)

type SignContractRequest struct {
	Token     string `json:"token" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type PublicRecipient struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Status   string     `json:"status"`
	SignedAt *time.Time `json:"signed_at"`
}

// PublicContract is the signer's view of a contract.
type PublicContract struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	BrandName    string          `json:"brand_name"`
	DocumentURL  string          `json:"document_url"`
	DocumentName string          `json:"document_name"`
	Status       string          `json:"status"`
	Recipient    PublicRecipient `json:"recipient"`
}

func toPublicContract(contract models.Contract, recipient models.ContractRecipient) PublicContract {
	return PublicContract{
		ID:           contract.ID,
		Title:        contract.Title,
		BrandName:    contract.Brand.Name,
		DocumentURL:  contract.DocumentURL,
		DocumentName: contract.DocumentName,
		Status:       contract.Status,
		Recipient: PublicRecipient{
			ID:       recipient.ID,
			Name:     recipient.Name,
			Email:    recipient.Email,
			Status:   recipient.Status,
			SignedAt: recipient.SignedAt,
		},
	}
}

// loadSigner resolves the contract and the recipient owning token. Unknown
// tokens answer 404 so contract ids cannot be enumerated.
func loadSigner(ctx *gin.Context, token string) (models.Contract, models.ContractRecipient, bool) {
	var contract models.Contract
	var recipient models.ContractRecipient

	contractID, ok := uuidParam(ctx, "contract_id")
	if !ok {
		return contract, recipient, false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Invalid signing link"})
		return contract, recipient, false
	}

	err := db.DB.Where("contract_id = ? AND token_hash = ?", contractID, auth.HashSigningToken(token)).First(&recipient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Invalid signing link"})
			return contract, recipient, false
		}
		serverError(ctx, "Failed to retrieve contract", err)
		return contract, recipient, false
	}

	if !findOr404(ctx, db.DB.Preload("Brand").Where("id = ?", contractID), &contract, "Contract not found") {
		return contract, recipient, false
	}

	return contract, recipient, true
}

func GetPublicContract(ctx *gin.Context) {
	contract, recipient, ok := loadSigner(ctx, ctx.Query("token"))
	if !ok {
		return
	}

	if contract.Status == types.ESignVoided {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Contract has been voided"})
		return
	}

	recordAudit(contract.ID, types.AuditViewed, recipient.Email, ctx.ClientIP(), ctx.Request.UserAgent())

	ctx.JSON(http.StatusOK, toPublicContract(contract, recipient))
}

func SignContract(ctx *gin.Context) {
	var body SignContractRequest

	if !bindJSON(ctx, &body) {
		return
	}

	contract, recipient, ok := loadSigner(ctx, body.Token)
	if !ok {
		return
	}

	switch contract.Status {
	case types.ESignDraft, types.ESignVoided:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Contract is not open for signing"})
		return
	}

	if recipient.Status == types.RecipientSigned {
		ctx.JSON(http.StatusConflict, gin.H{"error": "You have already signed this contract"})
		return
	}

	now := time.Now()
	completed := false

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ContractRecipient{}).
			Where("id = ? AND status = ?", recipient.ID, types.RecipientPending).
			Updates(map[string]interface{}{
				"status":     types.RecipientSigned,
				"signed_at":  &now,
				"signature":  body.Signature,
				"signer_ip":  ctx.ClientIP(),
				"user_agent": ctx.Request.UserAgent(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errAlreadySigned
		}

		var pending int64
		if err := tx.Model(&models.ContractRecipient{}).
			Where("contract_id = ? AND status = ?", contract.ID, types.RecipientPending).
			Count(&pending).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"status": types.ESignPartiallySigned}
		if pending == 0 {
			updates["status"] = types.ESignCompleted
			updates["completed_at"] = &now
		}

		moved := tx.Model(&models.Contract{}).
			Where("id = ? AND status IN ?", contract.ID, []string{types.ESignSent, types.ESignPartiallySigned}).
			Updates(updates)
		if moved.Error != nil {
			return moved.Error
		}

		completed = pending == 0 && moved.RowsAffected == 1
		return nil
	})

	if errors.Is(err, errAlreadySigned) {
		ctx.JSON(http.StatusConflict, gin.H{"error": "You have already signed this contract"})
		return
	}
	if err != nil {
		serverError(ctx, "Failed to sign contract", err)
		return
	}

	recordAudit(contract.ID, types.AuditSigned, recipient.Email, ctx.ClientIP(), ctx.Request.UserAgent())

	recipient.Status = types.RecipientSigned
	recipient.SignedAt = &now
	contract.Status = types.ESignPartiallySigned

	if completed {
		contract.Status = types.ESignCompleted
		contract.CompletedAt = &now
		completeContract(ctx, contract)
	}

	ctx.JSON(http.StatusOK, toPublicContract(contract, recipient))
}

var errAlreadySigned = errors.New("recipient already signed")

// completeContract runs the side effects once the last recipient signed.
// Failures are logged only.
func completeContract(ctx *gin.Context, contract models.Contract) {
	bg := detached(ctx)
	brand := contract.Brand

	recordAudit(contract.ID, types.AuditCompleted, "system", "", "")

	if err := db.DB.Where("contract_id = ?", contract.ID).Order("signing_order ASC").Find(&contract.Recipients).Error; err != nil {
		deps.Log.Error("Failed to load contract recipients", "contract_id", contract.ID, "error", err)
	}

	if contract.CreatorID != nil {
		if err := db.DB.Model(&models.Creator{}).Where("id = ?", *contract.CreatorID).
			Update("contract_status", types.ContractStatusSigned).Error; err != nil {
			deps.Log.Warn("Failed to update creator contract status", "creator_id", *contract.CreatorID, "error", err)
		}
	}

	emails := make([]services.EmailMessage, 0, len(contract.Recipients))
	for _, r := range contract.Recipients {
		emails = append(emails, services.ContractCompletedEmail(r.Name, r.Email, senderName(brand), contract.Title, contract.DocumentURL))
	}

	if deps.Notifier.Mailer != nil {
		_ = deps.Notifier.EmailAll(bg, brand.ID, types.EventContractCompleted, emails)
	}

	deps.Notifier.NotifySlack(bg, brand, types.EventContractCompleted, services.ContractCompletedMessage(brand, contract))

	payload := map[string]any{
		"contract_id":  contract.ID,
		"title":        contract.Title,
		"document_url": contract.DocumentURL,
	}
	if contract.CreatorID != nil {
		payload["creator_id"] = *contract.CreatorID
	}
	deps.Automation.RunIfEnabled(bg, brand, config.WorkflowContractSigned, payload)
}
