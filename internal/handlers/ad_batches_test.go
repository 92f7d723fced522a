package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/storage"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postFile(t *testing.T, r *gin.Engine, path, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func adBatchEngine(user models.User) *gin.Engine {
	r := newEngine(user)
	r.POST("/brands/:brand_id/ad-batches", CreateAdBatch)
	r.GET("/brands/:brand_id/ad-batches/:batch_id", GetAdBatch)
	r.POST("/brands/:brand_id/ad-batches/:batch_id/launch", LaunchAdBatch)
	r.POST("/brands/:brand_id/ad-batches/:batch_id/drafts", CreateAdDraft)
	r.GET("/brands/:brand_id/ad-batches/:batch_id/drafts", ListAdDrafts)
	r.PATCH("/brands/:brand_id/ad-batches/:batch_id/drafts/:draft_id", UpdateAdDraft)
	r.POST("/brands/:brand_id/ad-batches/:batch_id/drafts/:draft_id/assets", UploadDraftAsset)
	r.DELETE("/brands/:brand_id/ad-batches/:batch_id/drafts/:draft_id/assets/:asset_id", DeleteDraftAsset)
	return r
}

func TestAdBatchesAndDrafts(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)
	setupHandlers(t, Dependencies{Store: store})

	owner := seedUser(t, "Owner")
	viewer := seedUser(t, "Viewer")
	brand := seedBrand(t, owner, func(b *models.Brand) {
		b.MetaAdAccountID = "act_42"
		b.MetaFacebookPageID = "page_1"
		b.DefaultURLParams = "utm_source=meta"
	})
	shareBrand(t, brand, viewer, types.RoleViewer)

	r := adBatchEngine(owner)
	base := "/brands/" + brand.ID + "/ad-batches"

	w := doJSON(t, adBatchEngine(viewer), http.MethodPost, base, map[string]any{"name": "October"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, base, map[string]any{"name": "October", "destination_url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, base, map[string]any{"name": " October ", "ad_set_id": "as_9"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	batch := decode[models.AdBatch](t, w)
	assert.Equal(t, "October", batch.Name)
	assert.Equal(t, "act_42", batch.AdAccountID)
	assert.Equal(t, "page_1", batch.FacebookPageID)
	assert.Equal(t, "utm_source=meta", batch.URLParams)
	assert.Equal(t, types.AdDraftDraft, batch.Status)

	w = doJSON(t, r, http.MethodPost, base+"/"+batch.ID+"/drafts", map[string]any{"ad_name": "Hook A", "status": "uploaded"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, base+"/"+batch.ID+"/drafts", map[string]any{"ad_name": "Hook A", "headline": "Glow up", "status": "ready"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[models.AdDraft](t, w)
	draftPath := base + "/" + batch.ID + "/drafts/" + draft.ID

	w = postFile(t, r, draftPath+"/assets", "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postFile(t, r, draftPath+"/assets", "hook-a.png", []byte("\x89PNG\r\n\x1a\n"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	asset := decode[models.AdDraftAsset](t, w)
	assert.Equal(t, types.AssetImage, asset.AssetType)
	assert.Contains(t, asset.URL, "/files/")

	w = doJSON(t, r, http.MethodGet, base+"/"+batch.ID+"/drafts?status=ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	drafts := decode[[]models.AdDraft](t, w)
	require.Len(t, drafts, 1)
	assert.Len(t, drafts[0].Assets, 1)

	w = doJSON(t, r, http.MethodGet, base+"/"+batch.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.AdBatch](t, w).Drafts, 1)

	require.NoError(t, db.DB.Model(&models.AdDraft{}).Where("id = ?", draft.ID).Update("status", types.AdDraftUploading).Error)
	w = doJSON(t, r, http.MethodPatch, draftPath, map[string]any{"ad_name": "Hook A2"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodDelete, draftPath+"/assets/"+asset.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	other := seedBrand(t, owner, nil)
	w = doJSON(t, r, http.MethodGet, "/brands/"+other.ID+"/ad-batches/"+batch.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLaunchAdBatch_Validation(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)

	seed := func(t *testing.T, adSetID string, draftStatus string) (models.User, models.Brand, models.AdBatch) {
		owner := seedUser(t, "Owner")
		brand := seedBrand(t, owner, func(b *models.Brand) { b.MetaAdAccountID = "act_42" })
		batch := models.AdBatch{BrandID: brand.ID, Name: "October", AdSetID: adSetID, Status: types.AdDraftDraft}
		require.NoError(t, db.DB.Create(&batch).Error)
		require.NoError(t, db.DB.Create(&models.AdDraft{AdBatchID: batch.ID, AdName: "Hook A", Status: draftStatus}).Error)
		return owner, brand, batch
	}
	launch := func(t *testing.T, owner models.User, brand models.Brand, batch models.AdBatch) *httptest.ResponseRecorder {
		return doJSON(t, adBatchEngine(owner), http.MethodPost, "/brands/"+brand.ID+"/ad-batches/"+batch.ID+"/launch", nil)
	}

	t.Run("meta not configured", func(t *testing.T) {
		setupHandlers(t, Dependencies{Store: store})
		owner, brand, batch := seed(t, "as_9", types.AdDraftReady)
		assert.Equal(t, http.StatusServiceUnavailable, launch(t, owner, brand, batch).Code)
	})

	t.Run("no ready drafts", func(t *testing.T) {
		setupHandlers(t, Dependencies{Store: store, Meta: &mockMeta{}})
		owner, brand, batch := seed(t, "as_9", types.AdDraftDraft)
		assert.Equal(t, http.StatusBadRequest, launch(t, owner, brand, batch).Code)
	})

	t.Run("batch without ad set", func(t *testing.T) {
		setupHandlers(t, Dependencies{Store: store, Meta: &mockMeta{}})
		owner, brand, batch := seed(t, "", types.AdDraftReady)
		w := launch(t, owner, brand, batch)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ad set")
	})

	t.Run("invalid draft ids", func(t *testing.T) {
		setupHandlers(t, Dependencies{Store: store, Meta: &mockMeta{}})
		owner, brand, batch := seed(t, "as_9", types.AdDraftReady)
		w := doJSON(t, adBatchEngine(owner), http.MethodPost, "/brands/"+brand.ID+"/ad-batches/"+batch.ID+"/launch",
			map[string]any{"draft_ids": []string{"nope"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
