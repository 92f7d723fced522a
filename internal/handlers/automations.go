package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
	"gorm.io/gorm"
)

const maxExecutionsListed = 100

type TriggerWorkflowRequest struct {
	Payload map[string]any `json:"payload"`
	Force   bool           `json:"force"`
}

type ExecutionCallbackRequest struct {
	Status string          `json:"status" binding:"required,oneof=success failed"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// TriggerWorkflow runs a named workflow by hand. Workflows the brand has
// switched off need force.
func TriggerWorkflow(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleEditor)
	if !ok {
		return
	}

	workflow := ctx.Param("workflow")

	var body TriggerWorkflowRequest

	if ctx.Request.ContentLength != 0 && !bindJSON(ctx, &body) {
		return
	}

	if deps.Automation.Trigger == nil {
		upstreamError(ctx, "Failed to trigger workflow", services.ErrNotConfigured)
		return
	}

	if !deps.Automation.Known(workflow) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Unknown workflow"})
		return
	}

	force := body.Force || ctx.Query("force") == "true"

	if !access.Brand.AutomationEnabled(workflow) && !force {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Workflow is disabled for this brand"})
		return
	}

	payload := body.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payload["brand_id"] = access.Brand.ID
	payload["triggered_by_user"] = access.UserID

	execution, err := deps.Automation.Run(ctx.Request.Context(), access.Brand.ID, workflow, services.TriggerManual, payload)
	if err != nil {
		if execution.ID != "" {
			ctx.JSON(http.StatusBadGateway, gin.H{"error": "Failed to trigger workflow: " + err.Error(), "execution": execution})
			return
		}
		upstreamError(ctx, "Failed to trigger workflow", err)
		return
	}

	ctx.JSON(http.StatusAccepted, execution)
}

func ListWorkflowExecutions(ctx *gin.Context) {
	access, ok := utils.RequireBrand(ctx, types.RoleViewer)
	if !ok {
		return
	}

	query := db.DB.Where("brand_id = ?", access.Brand.ID)

	if workflow := ctx.Query("workflow"); workflow != "" {
		query = query.Where("workflow = ?", workflow)
	}

	if status := ctx.Query("status"); status != "" {
		if !slices.Contains([]string{types.ExecutionRunning, types.ExecutionSuccess, types.ExecutionFailed, types.ExecutionTimedOut}, status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		query = query.Where("status = ?", status)
	}

	var executions []models.WorkflowExecution

	if err := query.Order("started_at DESC").Limit(maxExecutionsListed).Find(&executions).Error; err != nil {
		serverError(ctx, "Failed to retrieve executions", err)
		return
	}

	ctx.JSON(http.StatusOK, executions)
}

// CompleteWorkflowExecution is the n8n callback closing a running execution.
func CompleteWorkflowExecution(ctx *gin.Context) {
	executionID, ok := uuidParam(ctx, "execution_id")
	if !ok {
		return
	}

	var body ExecutionCallbackRequest

	if !bindJSON(ctx, &body) {
		return
	}

	execution, err := deps.Automation.Complete(executionID, body.Status, body.Result, body.Error)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Execution not found"})
		return
	case errors.Is(err, services.ErrExecutionFinished):
		ctx.JSON(http.StatusConflict, gin.H{"error": "Execution already finished"})
		return
	case err != nil:
		serverError(ctx, "Failed to complete execution", err)
		return
	}

	deps.Log.Info("Workflow execution completed", "execution_id", execution.ID, "workflow", execution.Workflow, "status", execution.Status)

	ctx.JSON(http.StatusOK, execution)
}
