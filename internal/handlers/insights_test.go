package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/progress"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMeta struct {
	mock.Mock
	services.MetaAPI
}

func (m *mockMeta) ListCampaigns(ctx context.Context, adAccountID string) ([]services.MetaCampaign, error) {
	args := m.Called(adAccountID)
	campaigns, _ := args.Get(0).([]services.MetaCampaign)
	return campaigns, args.Error(1)
}

func (m *mockMeta) AccountInsights(ctx context.Context, adAccountID, datePreset string) (services.AccountInsights, error) {
	args := m.Called(adAccountID, datePreset)
	insights, _ := args.Get(0).(services.AccountInsights)
	return insights, args.Error(1)
}

type scorecardResponse struct {
	Period  string           `json:"period"`
	Metrics []ScorecardEntry `json:"metrics"`
}

func TestScorecard(t *testing.T) {
	meta := &mockMeta{}
	setupHandlers(t, Dependencies{Meta: meta})

	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, func(b *models.Brand) { b.MetaAdAccountID = "act_42" })

	r := newEngine(owner)
	r.GET("/brands/:brand_id/scorecard", GetScorecard)
	r.POST("/brands/:brand_id/scorecard/sync", SyncScorecard)
	r.POST("/brands/:brand_id/scorecard/metrics", CreateScorecardMetric)
	r.DELETE("/brands/:brand_id/scorecard/metrics/:metric_id", DeleteScorecardMetric)
	base := "/brands/" + brand.ID + "/scorecard"

	w := doJSON(t, r, http.MethodPost, base+"/metrics", map[string]any{
		"name": "ROAS", "meta_field": "vibes", "target_value": 2, "direction": "higher_is_better",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, base+"/metrics", map[string]any{
		"name": "ROAS", "meta_field": "purchase_roas", "target_value": 2, "direction": "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, base+"/metrics", map[string]any{
		"name": "ROAS", "meta_field": "purchase_roas", "target_value": 2, "direction": "higher_is_better",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	roas := decode[models.ScorecardMetric](t, w)
	assert.Equal(t, "number", roas.DisplayFormat)

	w = doJSON(t, r, http.MethodPost, base+"/metrics", map[string]any{
		"name": "CPC", "meta_field": "cpc", "target_value": 1.5, "direction": "lower_is_better", "display_format": "currency",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	card := decode[scorecardResponse](t, w)
	assert.Equal(t, services.PeriodLast7Days, card.Period)
	require.Len(t, card.Metrics, 2)
	for _, m := range card.Metrics {
		assert.Equal(t, types.ScoreNoData, m.Status)
		assert.Nil(t, m.Value)
	}

	w = doJSON(t, r, http.MethodGet, base+"?period=last_year", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	meta.On("AccountInsights", "act_42", services.PeriodLast30Days).
		Return(services.AccountInsights{"purchase_roas": 2.5, "cpc": 1.9}, nil).Once()

	w = doJSON(t, r, http.MethodPost, base+"/sync", map[string]any{"period": "last_30d"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"period":"last_30d","synced":2}`, w.Body.String())
	meta.AssertExpectations(t)

	w = doJSON(t, r, http.MethodGet, base+"?period=last_30d", nil)
	require.Equal(t, http.StatusOK, w.Code)
	card = decode[scorecardResponse](t, w)
	require.Len(t, card.Metrics, 2)

	byName := map[string]ScorecardEntry{}
	for _, m := range card.Metrics {
		byName[m.Name] = m
	}
	require.NotNil(t, byName["ROAS"].Value)
	assert.InDelta(t, 2.5, *byName["ROAS"].Value, 0.0001)
	assert.Equal(t, types.ScoreOnTrack, byName["ROAS"].Status)
	assert.Equal(t, types.ScoreOffTrack, byName["CPC"].Status)
	assert.NotNil(t, byName["CPC"].SyncedAt)

	w = doJSON(t, r, http.MethodDelete, base+"/metrics/"+roas.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSyncScorecard_NotConfigured(t *testing.T) {
	setupHandlers(t, Dependencies{})
	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, func(b *models.Brand) { b.MetaAdAccountID = "act_42" })

	r := newEngine(owner)
	r.POST("/brands/:brand_id/scorecard/sync", SyncScorecard)

	w := doJSON(t, r, http.MethodPost, "/brands/"+brand.ID+"/scorecard/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSyncScorecard_NoAdAccount(t *testing.T) {
	setupHandlers(t, Dependencies{Meta: &mockMeta{}})
	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, nil)

	r := newEngine(owner)
	r.POST("/brands/:brand_id/scorecard/sync", SyncScorecard)

	w := doJSON(t, r, http.MethodPost, "/brands/"+brand.ID+"/scorecard/sync", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMetaCampaigns(t *testing.T) {
	meta := &mockMeta{}
	setupHandlers(t, Dependencies{Meta: meta})

	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, func(b *models.Brand) { b.MetaAdAccountID = "act_42" })
	bare := seedBrand(t, owner, nil)

	r := newEngine(owner)
	r.GET("/brands/:brand_id/meta/campaigns", ListMetaCampaigns)

	meta.On("ListCampaigns", "act_42").Return(nil, nil).Once()
	meta.On("ListCampaigns", "act_7").Return([]services.MetaCampaign{{ID: "c1", Name: "Prospecting"}}, nil).Once()

	w := doJSON(t, r, http.MethodGet, "/brands/"+brand.ID+"/meta/campaigns", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/brands/"+brand.ID+"/meta/campaigns?ad_account_id=act_7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]services.MetaCampaign](t, w), 1)

	w = doJSON(t, r, http.MethodGet, "/brands/"+bare.ID+"/meta/campaigns", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	meta.AssertExpectations(t)
}

func TestOneSheets(t *testing.T) {
	ai := &mockGenerator{}
	setupHandlers(t, Dependencies{AI: ai})

	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, nil)

	r := newEngine(owner)
	r.POST("/brands/:brand_id/onesheets", CreateOneSheet)
	r.PATCH("/brands/:brand_id/onesheets/:onesheet_id", UpdateOneSheet)
	r.POST("/brands/:brand_id/onesheets/:onesheet_id/synthesize", SynthesizeOneSheetSection)
	base := "/brands/" + brand.ID + "/onesheets"

	w := doJSON(t, r, http.MethodPost, base, map[string]any{"title": "Serum", "sections": map[string]any{"Bad Key": "x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, base, map[string]any{"title": "Serum", "product": "Vitamin C serum"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sheet := decode[models.OneSheet](t, w)
	assert.Equal(t, types.OneSheetDraft, sheet.Status)
	assert.Contains(t, sheet.Sections, "hooks")
	assert.Contains(t, sheet.Sections, "audience_insights")

	ai.On("GenerateJSON", services.OneSheetSystemPrompt).
		Return(`{"content": "Busy parents", "bullets": ["time-poor", "value driven"]}`, nil).Once()

	w = doJSON(t, r, http.MethodPost, base+"/"+sheet.ID+"/synthesize", map[string]any{"section": "audience_insights"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ai.AssertExpectations(t)

	sheet = decode[models.OneSheet](t, w)
	assert.Equal(t, types.OneSheetInProgress, sheet.Status)
	section, ok := sheet.Sections["audience_insights"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Busy parents", section["content"])
	assert.Len(t, section["bullets"], 2)

	w = doJSON(t, r, http.MethodPost, base+"/"+sheet.ID+"/synthesize", map[string]any{"section": "../etc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, base+"/"+sheet.ID, map[string]any{"title": "Serum v2", "status": "complete"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.OneSheet](t, w)
	assert.Equal(t, types.OneSheetComplete, updated.Status)
	assert.Contains(t, updated.Sections, "audience_insights")
}

func TestGetProgress_ScopedToBrand(t *testing.T) {
	tracker := progress.NewTracker(progress.DefaultTTL)
	setupHandlers(t, Dependencies{Progress: tracker, Log: logger.Nop()})

	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, nil)
	uploadID := tracker.Start(brand.ID, 3)
	tracker.Step(uploadID, true, "Ad A uploaded")

	r := newEngine(owner)
	r.GET("/progress/:upload_id", GetProgress)

	w := doJSON(t, r, http.MethodGet, "/progress/"+uploadID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[progress.Snapshot](t, w)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 1, snap.Completed)

	w = doJSON(t, r, http.MethodGet, "/progress/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	outsider := newEngine(seedUser(t, "Outsider"))
	outsider.GET("/progress/:upload_id", GetProgress)

	w = doJSON(t, outsider, http.MethodGet, "/progress/"+uploadID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
