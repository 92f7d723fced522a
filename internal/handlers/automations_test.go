package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerWorkflow(t *testing.T) {
	trigger := &mockTrigger{}
	setupHandlers(t, Dependencies{
		Automation: &services.AutomationRunner{Trigger: trigger, Log: logger.Nop()},
	})

	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, func(b *models.Brand) {
		b.AutomationSettings = map[string]interface{}{"creator_application": true}
	})

	r := newEngine(owner)
	r.POST("/brands/:brand_id/automations/:workflow/trigger", TriggerWorkflow)
	r.GET("/brands/:brand_id/automations/executions", ListWorkflowExecutions)
	base := "/brands/" + brand.ID + "/automations/"

	w := doJSON(t, r, http.MethodPost, base+"nightly_report/trigger", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, base+"script_assigned/trigger", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	trigger.On("Trigger", "creator_application").Return(`{"queued":true}`, nil).Once()

	w = doJSON(t, r, http.MethodPost, base+"creator_application/trigger", map[string]any{"payload": map[string]any{"note": "retry"}})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	execution := decode[models.WorkflowExecution](t, w)
	assert.Equal(t, types.ExecutionRunning, execution.Status)
	assert.Equal(t, services.TriggerManual, execution.TriggeredBy)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(execution.RequestPayload, &payload))
	assert.Equal(t, "retry", payload["note"])
	assert.Equal(t, brand.ID, payload["brand_id"])
	assert.Equal(t, owner.ID, payload["triggered_by_user"])

	trigger.On("Trigger", "script_assigned").Return("", errors.New("n8n returned 500")).Once()

	w = doJSON(t, r, http.MethodPost, base+"script_assigned/trigger?force=true", nil)
	require.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
	trigger.AssertExpectations(t)

	w = doJSON(t, r, http.MethodGet, base+"executions?status=failed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	failed := decode[[]models.WorkflowExecution](t, w)
	require.Len(t, failed, 1)
	assert.Equal(t, "script_assigned", failed[0].Workflow)
	assert.Contains(t, failed[0].ErrorMessage, "n8n returned 500")

	w = doJSON(t, r, http.MethodGet, base+"executions?status=exploded", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerWorkflow_NotConfigured(t *testing.T) {
	setupHandlers(t, Dependencies{})
	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, nil)

	r := newEngine(owner)
	r.POST("/brands/:brand_id/automations/:workflow/trigger", TriggerWorkflow)

	w := doJSON(t, r, http.MethodPost, "/brands/"+brand.ID+"/automations/creator_application/trigger", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCompleteWorkflowExecution(t *testing.T) {
	setupHandlers(t, Dependencies{})
	brand := seedBrand(t, seedUser(t, "Owner"), nil)

	execution := models.WorkflowExecution{
		BrandID:     brand.ID,
		Workflow:    "creator_application",
		Status:      types.ExecutionRunning,
		TriggeredBy: services.TriggerAutomatic,
		StartedAt:   time.Now(),
	}
	require.NoError(t, db.DB.Create(&execution).Error)

	r := newEngine(models.User{})
	r.POST("/webhooks/n8n/executions/:execution_id", CompleteWorkflowExecution)
	path := "/webhooks/n8n/executions/" + execution.ID

	w := doJSON(t, r, http.MethodPost, "/webhooks/n8n/executions/0b6f3d52-8a41-4c2e-9f7d-3e5a1c9b2d40", map[string]any{"status": "success"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, path, map[string]any{"status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, path, map[string]any{"status": "success", "result": map[string]any{"emails_sent": 1}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	done := decode[models.WorkflowExecution](t, w)
	assert.Equal(t, types.ExecutionSuccess, done.Status)
	assert.NotNil(t, done.CompletedAt)
	assert.JSONEq(t, `{"emails_sent":1}`, string(done.Result))

	w = doJSON(t, r, http.MethodPost, path, map[string]any{"status": "failed"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSlackTestAndNotificationLog(t *testing.T) {
	slack := &mockSlack{}
	setupHandlers(t, Dependencies{Notifier: &services.Notifier{Slack: slack, Log: logger.Nop()}})

	owner := seedUser(t, "Owner")
	quiet := seedBrand(t, owner, nil)
	brand := seedBrand(t, owner, func(b *models.Brand) {
		b.SlackWebhookURL = "https://hooks.slack.test/glow"
	})

	r := newEngine(owner)
	r.POST("/brands/:brand_id/notifications/slack/test", TestSlack)
	r.GET("/brands/:brand_id/notifications", ListNotifications)

	w := doJSON(t, r, http.MethodPost, "/brands/"+quiet.ID+"/notifications/slack/test", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The test message ignores the brand toggle.
	slack.On("Send", "https://hooks.slack.test/glow").Return(nil).Once()

	w = doJSON(t, r, http.MethodPost, "/brands/"+brand.ID+"/notifications/slack/test", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	slack.AssertExpectations(t)

	w = doJSON(t, r, http.MethodGet, "/brands/"+brand.ID+"/notifications?channel=slack", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[[]models.NotificationLog](t, w)
	require.Len(t, logs, 1)
	assert.Equal(t, types.EventSlackTest, logs[0].Event)
	assert.Equal(t, types.NotificationSent, logs[0].Status)

	w = doJSON(t, r, http.MethodGet, "/brands/"+brand.ID+"/notifications?channel=email", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.NotificationLog](t, w))
}
