package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateScript_CreatorMustBelongToBrand(t *testing.T) {
	setupHandlers(t, Dependencies{})
	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, nil)
	foreign := seedCreator(t, seedBrand(t, owner, nil), nil)

	r := newEngine(owner)
	r.POST("/brands/:brand_id/scripts", CreateScript)
	path := "/brands/" + brand.ID + "/scripts"

	w := doJSON(t, r, http.MethodPost, path, map[string]any{"title": "Hook test", "creator_id": foreign.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, path, map[string]any{"title": "Hook test", "status": "SHIPPED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, path, map[string]any{
		"title":   "Hook test",
		"content": map[string]any{"scene_start": "Open on the bottle"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	script := decode[models.Script](t, w)
	assert.Equal(t, types.ScriptStatusPendingApproval, script.Status)
	assert.NotEmpty(t, script.ShareID)
	assert.Equal(t, "Open on the bottle", script.Content.Data().SceneStart)
}

func TestScriptShareLifecycle(t *testing.T) {
	trigger := &mockTrigger{}
	setupHandlers(t, Dependencies{
		Automation: &services.AutomationRunner{Trigger: trigger, Log: logger.Nop()},
	})

	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, func(b *models.Brand) {
		b.AutomationSettings = map[string]interface{}{"script_assigned": true}
	})
	creator := seedCreator(t, brand, nil)

	script := models.Script{BrandID: brand.ID, Title: "Morning routine", Status: types.ScriptStatusApproved, ShareID: "3f1e2d4c-5b6a-4789-8abc-def012345678"}
	require.NoError(t, db.DB.Create(&script).Error)

	trigger.On("Trigger", "script_assigned").Return("", nil).Once()

	r := newEngine(owner)
	r.POST("/brands/:brand_id/scripts/:script_id/assign", AssignScript)
	r.POST("/brands/:brand_id/scripts/:script_id/approve-content", ApproveScriptContent)
	r.GET("/public/scripts/:share_id", GetPublicScript)
	r.POST("/public/scripts/:share_id/respond", RespondToScript)
	r.POST("/public/scripts/:share_id/submit", SubmitScriptContent)

	public := "/public/scripts/" + script.ShareID

	// Respond is only accepted once the script is assigned.
	w := doJSON(t, r, http.MethodPost, public+"/respond", map[string]any{"accept": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/brands/"+brand.ID+"/scripts/"+script.ID+"/assign", map[string]any{"creator_id": creator.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, types.ScriptStatusAssigned, decode[models.Script](t, w).Status)
	trigger.AssertExpectations(t)

	w = doJSON(t, r, http.MethodGet, public, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[PublicScript](t, w)
	assert.Equal(t, "Glow", view.BrandName)
	assert.Equal(t, "Casey", view.CreatorName)
	assert.Equal(t, []string{}, view.BRollShotList)

	w = doJSON(t, r, http.MethodPost, public+"/submit", map[string]any{"content_link": "https://drive.test/clip"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, public+"/respond", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, public+"/respond", map[string]any{"accept": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, types.ScriptStatusCreatorApproved, decode[PublicScript](t, w).Status)

	w = doJSON(t, r, http.MethodPost, public+"/submit", map[string]any{"content_link": "not a link"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, public+"/submit", map[string]any{"content_link": "https://drive.test/clip"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	submitted := decode[PublicScript](t, w)
	assert.Equal(t, types.ScriptStatusContentSubmitted, submitted.Status)
	assert.Equal(t, "https://drive.test/clip", submitted.FinalContentLink)

	w = doJSON(t, r, http.MethodPost, "/brands/"+brand.ID+"/scripts/"+script.ID+"/approve-content", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Script
	require.NoError(t, db.DB.First(&stored, "id = ?", script.ID).Error)
	assert.Equal(t, types.ScriptStatusFinalApproved, stored.Status)
}

func TestRespondToScript_Decline(t *testing.T) {
	setupHandlers(t, Dependencies{})
	brand := seedBrand(t, seedUser(t, "Owner"), nil)
	creator := seedCreator(t, brand, nil)

	script := models.Script{BrandID: brand.ID, CreatorID: &creator.ID, Title: "Unboxing", Status: types.ScriptStatusAssigned, ShareID: "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d"}
	require.NoError(t, db.DB.Create(&script).Error)

	r := newEngine(models.User{})
	r.POST("/public/scripts/:share_id/respond", RespondToScript)

	w := doJSON(t, r, http.MethodPost, "/public/scripts/"+script.ShareID+"/respond", map[string]any{"accept": false, "notes": "Not my niche"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	view := decode[PublicScript](t, w)
	assert.Equal(t, types.ScriptStatusCreatorReassignment, view.Status)
	assert.Equal(t, "Not my niche", view.RevisionNotes)
}

func TestGenerateScript(t *testing.T) {
	ai := &mockGenerator{}
	setupHandlers(t, Dependencies{AI: ai})

	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, nil)

	r := newEngine(owner)
	r.POST("/brands/:brand_id/scripts/generate", GenerateScript)
	path := "/brands/" + brand.ID + "/scripts/generate"

	ai.On("GenerateJSON", services.ScriptSystemPrompt).Return("```json\n"+`{
		"title": "Glow in 30 seconds",
		"scene_start": "Creator holds the serum",
		"segments": [{"segment": "Hook", "script_text": "I stopped using foundation"}],
		"b_roll_shot_list": ["close up of dropper"],
		"hooks": ["My skin has never looked like this"]
	}`+"\n```", nil).Once()

	w := doJSON(t, r, http.MethodPost, path, map[string]any{"product": "Vitamin C serum", "hook_count": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	script := decode[models.Script](t, w)
	assert.Equal(t, "Glow in 30 seconds", script.Title)
	assert.Equal(t, types.ScriptStatusPendingApproval, script.Status)

	content := script.Content.Data()
	require.Len(t, content.Segments, 2)
	assert.Equal(t, "Alternative hook 1", content.Segments[1].Segment)
	assert.Equal(t, "My skin has never looked like this", content.Segments[1].ScriptText)

	ai.On("GenerateJSON", services.ScriptSystemPrompt).Return("", errors.New("quota exceeded")).Once()

	w = doJSON(t, r, http.MethodPost, path, map[string]any{"product": "Vitamin C serum"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	ai.AssertExpectations(t)
}

func TestGenerateScript_NotConfigured(t *testing.T) {
	setupHandlers(t, Dependencies{})
	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, nil)

	r := newEngine(owner)
	r.POST("/brands/:brand_id/scripts/generate", GenerateScript)

	w := doJSON(t, r, http.MethodPost, "/brands/"+brand.ID+"/scripts/generate", map[string]any{"product": "Serum"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAssignScript_Reassign(t *testing.T) {
	trigger := &mockTrigger{}
	setupHandlers(t, Dependencies{
		Automation: &services.AutomationRunner{Trigger: trigger, Log: logger.Nop()},
	})

	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, func(b *models.Brand) {
		b.AutomationSettings = map[string]interface{}{"script_assigned": true}
	})
	first := seedCreator(t, brand, nil)
	second := seedCreator(t, brand, func(c *models.Creator) { c.Name = "Robin" })

	script := models.Script{BrandID: brand.ID, CreatorID: &first.ID, Title: "Unboxing", Status: types.ScriptStatusCreatorReassignment, ShareID: "5c4b3a29-1807-4f6e-9d5c-4b3a29180766"}
	require.NoError(t, db.DB.Create(&script).Error)

	trigger.On("Trigger", "script_assigned").Return("", nil).Once()

	r := newEngine(owner)
	r.POST("/brands/:brand_id/scripts/:script_id/assign", AssignScript)

	w := doJSON(t, r, http.MethodPost, "/brands/"+brand.ID+"/scripts/"+script.ID+"/assign", map[string]any{"creator_id": second.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	trigger.AssertExpectations(t)

	assigned := decode[models.Script](t, w)
	require.NotNil(t, assigned.CreatorID)
	assert.Equal(t, second.ID, *assigned.CreatorID)
	require.NotNil(t, assigned.Creator)
	assert.Equal(t, "Robin", assigned.Creator.Name)

	var stored models.Script
	require.NoError(t, db.DB.First(&stored, "id = ?", script.ID).Error)
	require.NotNil(t, stored.CreatorID)
	assert.Equal(t, second.ID, *stored.CreatorID)
	assert.Equal(t, types.ScriptStatusAssigned, stored.Status)
}
