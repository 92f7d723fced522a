package handlers

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
)

var actionTypes = []string{
	types.ActionSendEmail,
	types.ActionUpdateStatus,
	types.ActionAssignScript,
	types.ActionFollowUp,
}

var errActionNotPending = errors.New("action is no longer pending")

type scriptCount struct {
	CreatorID string
	Count     int
}

// pipelineSnapshot lists the brand's creators as the coordinator sees them.
func pipelineSnapshot(brandID string, now time.Time) ([]services.PipelineCreator, error) {
	var creators []models.Creator
	if err := db.DB.Where("brand_id = ?", brandID).Order("created_at ASC").Find(&creators).Error; err != nil {
		return nil, err
	}

	var counts []scriptCount
	if err := db.DB.Model(&models.Script{}).
		Select("creator_id, COUNT(*) AS count").
		Where("brand_id = ? AND creator_id IS NOT NULL", brandID).
		Group("creator_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	byCreator := make(map[string]int, len(counts))
	for _, c := range counts {
		byCreator[c.CreatorID] = c.Count
	}

	snapshot := make([]services.PipelineCreator, 0, len(creators))
	for _, c := range creators {
		snapshot = append(snapshot, services.PipelineCreator{
			ID:             c.ID,
			Name:           c.Name,
			Status:         c.Status,
			ContractStatus: c.ContractStatus,
			ScriptCount:    byCreator[c.ID],
			DaysInStatus:   int(now.Sub(c.UpdatedAt).Hours() / 24),
		})
	}

	return snapshot, nil
}

// RunCoordinator asks the model for next pipeline steps and stores them pending.
func RunCoordinator(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	if deps.AI == nil {
		upstreamError(ctx, "Failed to run coordinator", services.ErrNotConfigured)
		return
	}

	snapshot, err := pipelineSnapshot(access.Brand.ID, time.Now())
	if err != nil {
		serverError(ctx, "Failed to load creator pipeline", err)
		return
	}

	if len(snapshot) == 0 {
		ctx.JSON(http.StatusOK, []models.CoordinatorAction{})
		return
	}

	prompt, err := services.CoordinatorPrompt(access.Brand.Name, types.CreatorStatuses, snapshot)
	if err != nil {
		serverError(ctx, "Failed to build coordinator prompt", err)
		return
	}

	var plan services.CoordinatorPlan

	if err := deps.AI.GenerateJSON(ctx.Request.Context(), services.CoordinatorSystemPrompt, prompt, &plan); err != nil {
		upstreamError(ctx, "Failed to run coordinator", err)
		return
	}

	known := make(map[string]bool, len(snapshot))
	for _, c := range snapshot {
		known[c.ID] = true
	}

	actions := make([]models.CoordinatorAction, 0, len(plan.Actions))
	for _, s := range plan.Actions {
		if !known[s.CreatorID] || !slices.Contains(actionTypes, s.ActionType) {
			deps.Log.Debug("Dropping coordinator suggestion", "brand_id", access.Brand.ID, "creator_id", s.CreatorID, "action_type", s.ActionType)
			continue
		}

		actions = append(actions, models.CoordinatorAction{
			BrandID:         access.Brand.ID,
			CreatorID:       s.CreatorID,
			ActionType:      s.ActionType,
			Reason:          strings.TrimSpace(s.Reason),
			SuggestedStatus: s.SuggestedStatus,
			EmailSubject:    s.EmailSubject,
			EmailBody:       s.EmailBody,
			Status:          types.ActionPending,
		})
	}

	if len(actions) > 0 {
		if err := db.DB.Create(&actions).Error; err != nil {
			serverError(ctx, "Failed to store coordinator actions", err)
			return
		}
	}

	ctx.JSON(http.StatusOK, actions)
}

func ListCoordinatorActions(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	query := db.DB.Where("brand_id = ?", access.Brand.ID)

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var actions []models.CoordinatorAction

	if err := query.Order("created_at DESC").Find(&actions).Error; err != nil {
		serverError(ctx, "Failed to retrieve coordinator actions", err)
		return
	}

	ctx.JSON(http.StatusOK, actions)
}

func loadPendingAction(ctx *gin.Context, brandID string) (models.CoordinatorAction, bool) {
	var action models.CoordinatorAction

	actionID, ok := uuidParam(ctx, "action_id")
	if !ok {
		return action, false
	}

	if !findOr404(ctx, db.DB.Where("id = ? AND brand_id = ?", actionID, brandID), &action, "Action not found") {
		return action, false
	}

	if action.Status != types.ActionPending {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Action is no longer pending"})
		return action, false
	}

	return action, true
}

// closeAction moves a pending action to status. It fails when another
// request closed it first.
func closeAction(action *models.CoordinatorAction, status string) error {
	now := time.Now()
	updates := map[string]interface{}{"status": status}
	if status == types.ActionExecuted {
		updates["executed_at"] = &now
	}

	result := db.DB.Model(&models.CoordinatorAction{}).
		Where("id = ? AND status = ?", action.ID, types.ActionPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errActionNotPending
	}

	action.Status = status
	if status == types.ActionExecuted {
		action.ExecutedAt = &now
	}
	return nil
}

func respondCloseError(ctx *gin.Context, err error) {
	if errors.Is(err, errActionNotPending) {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Action is no longer pending"})
		return
	}
	serverError(ctx, "Failed to update action", err)
}

// ExecuteCoordinatorAction performs email and status actions; other types
// are only marked executed.
func ExecuteCoordinatorAction(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	action, ok := loadPendingAction(ctx, access.Brand.ID)
	if !ok {
		return
	}

	switch action.ActionType {
	case types.ActionSendEmail, types.ActionUpdateStatus:
		var creator models.Creator
		if !findOr404(ctx, db.DB.Where("id = ? AND brand_id = ?", action.CreatorID, access.Brand.ID), &creator, "Creator not found") {
			return
		}

		if action.ActionType == types.ActionSendEmail {
			if strings.TrimSpace(action.EmailSubject) == "" || strings.TrimSpace(action.EmailBody) == "" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Action has no email content"})
				return
			}
			if err := sendCreatorEmail(ctx, access.Brand, creator, action.EmailSubject, action.EmailBody); err != nil {
				respondEmailError(ctx, err)
				return
			}
			break
		}

		if !slices.Contains(types.CreatorStatuses, action.SuggestedStatus) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Action suggests an invalid status"})
			return
		}
		if err := setCreatorStatus(ctx, access.Brand, &creator, action.SuggestedStatus); err != nil {
			serverError(ctx, "Failed to update creator status", err)
			return
		}
	}

	if err := closeAction(&action, types.ActionExecuted); err != nil {
		respondCloseError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, action)
}

func DismissCoordinatorAction(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	action, ok := loadPendingAction(ctx, access.Brand.ID)
	if !ok {
		return
	}

	if err := closeAction(&action, types.ActionDismissed); err != nil {
		respondCloseError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, action)
}
