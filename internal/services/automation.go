package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"gorm.io/datatypes"
)

var ErrExecutionFinished = errors.New("execution already finished")

const (
	TriggerManual    = "manual"
	TriggerAutomatic = "automatic"
)

// AutomationRunner records one WorkflowExecution per n8n trigger.
type AutomationRunner struct {
	Trigger         WorkflowTrigger
	CallbackBaseURL string
	Log             logger.Logger
}

func (r *AutomationRunner) Known(workflow string) bool {
	return r.Trigger != nil && r.Trigger.Known(workflow)
}

func (r *AutomationRunner) callbackURL(executionID string) string {
	if r.CallbackBaseURL == "" {
		return ""
	}
	return strings.TrimSuffix(r.CallbackBaseURL, "/") + "/api/webhooks/n8n/executions/" + executionID
}

// Run posts the workflow and returns the stored execution. The execution
// stays running until n8n reports back or the sweeper times it out.
func (r *AutomationRunner) Run(ctx context.Context, brandID, workflow, trigger string, payload map[string]any) (models.WorkflowExecution, error) {
	if r.Trigger == nil {
		return models.WorkflowExecution{}, ErrNotConfigured
	}
	if !r.Trigger.Known(workflow) {
		return models.WorkflowExecution{}, ErrUnknownWorkflow
	}

	if payload == nil {
		payload = map[string]any{}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return models.WorkflowExecution{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	execution := models.WorkflowExecution{
		BrandID:        brandID,
		Workflow:       workflow,
		Status:         types.ExecutionRunning,
		TriggeredBy:    trigger,
		RequestPayload: datatypes.JSON(raw),
		StartedAt:      time.Now(),
	}

	if err := db.DB.Create(&execution).Error; err != nil {
		return models.WorkflowExecution{}, fmt.Errorf("failed to create execution: %w", err)
	}

	body, triggerErr := r.Trigger.Trigger(ctx, WorkflowRequest{
		BrandID:     brandID,
		Workflow:    workflow,
		ExecutionID: execution.ID,
		CallbackURL: r.callbackURL(execution.ID),
		Payload:     payload,
	})

	updates := map[string]interface{}{"response_body": truncate(body, 4096)}
	if triggerErr != nil {
		now := time.Now()
		updates["status"] = types.ExecutionFailed
		updates["error_message"] = truncate(triggerErr.Error(), 1024)
		updates["completed_at"] = &now
	}

	if err := db.DB.Model(&execution).Updates(updates).Error; err != nil {
		r.Log.Error("Failed to update execution", "execution_id", execution.ID, "error", err)
	}

	if err := db.DB.First(&execution, "id = ?", execution.ID).Error; err != nil {
		return execution, fmt.Errorf("failed to reload execution: %w", err)
	}

	return execution, triggerErr
}

// RunIfEnabled fires an automatic trigger when the brand switched the
// workflow on. Errors are logged only.
func (r *AutomationRunner) RunIfEnabled(ctx context.Context, brand models.Brand, workflow string, payload map[string]any) {
	if r.Trigger == nil || !brand.AutomationEnabled(workflow) {
		return
	}

	if _, err := r.Run(ctx, brand.ID, workflow, TriggerAutomatic, payload); err != nil {
		r.Log.Warn("Automation trigger failed", "brand_id", brand.ID, "workflow", workflow, "error", err)
	}
}

// Complete applies an n8n callback to a running execution.
func (r *AutomationRunner) Complete(executionID, status string, result json.RawMessage, errorMessage string) (models.WorkflowExecution, error) {
	var execution models.WorkflowExecution

	if err := db.DB.First(&execution, "id = ?", executionID).Error; err != nil {
		return execution, err
	}

	if execution.Status != types.ExecutionRunning {
		return execution, ErrExecutionFinished
	}

	return closeExecution(execution.ID, status, result, errorMessage)
}

// closeExecution finishes the execution only while it is still running, so a
// concurrent sweep is never overwritten.
func closeExecution(executionID, status string, result json.RawMessage, errorMessage string) (models.WorkflowExecution, error) {
	var execution models.WorkflowExecution

	updates := map[string]interface{}{
		"status":        status,
		"error_message": truncate(errorMessage, 1024),
		"completed_at":  time.Now(),
	}
	if len(result) > 0 {
		updates["result"] = datatypes.JSON(result)
	}

	res := db.DB.Model(&models.WorkflowExecution{}).
		Where("id = ? AND status = ?", executionID, types.ExecutionRunning).
		Updates(updates)
	if res.Error != nil {
		return execution, fmt.Errorf("failed to save execution: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return execution, ErrExecutionFinished
	}

	if err := db.DB.First(&execution, "id = ?", executionID).Error; err != nil {
		return execution, err
	}

	return execution, nil
}

// SweepTimedOut marks running executions started before now-timeout as timed out.
func (r *AutomationRunner) SweepTimedOut(now time.Time, timeout time.Duration) (int64, error) {
	result := db.DB.Model(&models.WorkflowExecution{}).
		Where("status = ? AND started_at < ?", types.ExecutionRunning, now.Add(-timeout)).
		Updates(map[string]interface{}{
			"status":        types.ExecutionTimedOut,
			"error_message": fmt.Sprintf("no callback received within %s", timeout),
			"completed_at":  now,
		})

	return result.RowsAffected, result.Error
}
