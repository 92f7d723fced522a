package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/progress"
	"github.com/powerbrief-dev/powerbrief/internal/storage"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (m *mockMeta) UploadImage(ctx context.Context, adAccountID, fileName string, content io.Reader) (string, error) {
	args := m.Called(adAccountID, fileName)
	return args.String(0), args.Error(1)
}

func (m *mockMeta) CreateAdCreative(ctx context.Context, adAccountID string, spec CreativeSpec) (string, error) {
	args := m.Called(adAccountID, spec)
	return args.String(0), args.Error(1)
}

func (m *mockMeta) CreateAd(ctx context.Context, adAccountID, name, adSetID, creativeID string) (string, error) {
	args := m.Called(adAccountID, name, adSetID, creativeID)
	return args.String(0), args.Error(1)
}

type launchFixture struct {
	brand models.Brand
	batch models.AdBatch
	store *storage.LocalStore
}

func newLaunchFixture(t *testing.T) launchFixture {
	t.Helper()
	db.SetupTestDatabase(t)

	brand := seedBrand(t, func(b *models.Brand) {
		b.MetaAdAccountID = "act_42"
		b.MetaFacebookPageID = "page-1"
		b.DefaultURLParams = "utm_source=meta"
	})

	batch := models.AdBatch{
		BrandID:        brand.ID,
		Name:           "Spring launch",
		AdSetID:        "adset-9",
		DestinationURL: "https://glow.test/shop",
		Status:         types.AdDraftDraft,
	}
	require.NoError(t, db.DB.Create(&batch).Error)

	store, err := storage.NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)

	return launchFixture{brand: brand, batch: batch, store: store}
}

func (f launchFixture) draft(t *testing.T, name, status string, assets ...models.AdDraftAsset) models.AdDraft {
	t.Helper()

	draft := models.AdDraft{
		AdBatchID:   f.batch.ID,
		AdName:      name,
		PrimaryText: "Glow all day",
		Headline:    "New serum",
		Status:      status,
		Assets:      assets,
	}
	require.NoError(t, db.DB.Create(&draft).Error)
	return draft
}

func (f launchFixture) storedImage(t *testing.T, name string) models.AdDraftAsset {
	t.Helper()

	key := storage.ObjectKey(f.brand.ID, "ad-assets", name)
	url, err := f.store.Put(context.Background(), key, "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	return models.AdDraftAsset{FileName: name, StorageKey: key, URL: url, AssetType: types.AssetImage}
}

func TestReadyDrafts(t *testing.T) {
	f := newLaunchFixture(t)

	ready := f.draft(t, "Ad A", types.AdDraftReady)
	other := f.draft(t, "Ad B", types.AdDraftReady)
	f.draft(t, "Ad C", types.AdDraftDraft)

	drafts, err := ReadyDrafts(f.batch.ID, nil)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	drafts, err = ReadyDrafts(f.batch.ID, []string{ready.ID})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, ready.ID, drafts[0].ID)
	assert.NotEqual(t, other.ID, drafts[0].ID)
}

func TestAdLauncher_StartValidation(t *testing.T) {
	f := newLaunchFixture(t)
	tracker := progress.NewTracker(progress.DefaultTTL)
	drafts := []models.AdDraft{f.draft(t, "Ad A", types.AdDraftReady)}

	unconfigured := &AdLauncher{Progress: tracker, Log: logger.Nop()}
	_, err := unconfigured.Start(context.Background(), f.brand, f.batch, drafts)
	assert.ErrorIs(t, err, ErrNotConfigured)

	l := &AdLauncher{Meta: &mockMeta{}, Store: f.store, Progress: tracker, Log: logger.Nop()}

	_, err = l.Start(context.Background(), f.brand, f.batch, nil)
	assert.ErrorIs(t, err, ErrNoReadyDrafts)

	noAdSet := f.batch
	noAdSet.AdSetID = ""
	_, err = l.Start(context.Background(), f.brand, noAdSet, drafts)
	assert.ErrorIs(t, err, ErrBatchNoAdSet)

	noAccount := f.brand
	noAccount.MetaAdAccountID = ""
	_, err = l.Start(context.Background(), noAccount, f.batch, drafts)
	assert.ErrorIs(t, err, ErrNoAdAccount)

	assert.Equal(t, 0, tracker.Active())
}

func TestAdLauncher_RunRecordsPerDraftOutcome(t *testing.T) {
	f := newLaunchFixture(t)

	good := f.draft(t, "Ad A", types.AdDraftReady, f.storedImage(t, "hero.png"))
	empty := f.draft(t, "Ad B", types.AdDraftReady)

	uploaded := f.storedImage(t, "again.png")
	uploaded.MetaImageHash = "hash-existing"
	reused := f.draft(t, "Ad C", types.AdDraftReady, uploaded)

	meta := &mockMeta{}
	meta.On("UploadImage", "act_42", "hero.png").Return("hash-1", nil).Once()
	meta.On("CreateAdCreative", "act_42", mock.MatchedBy(func(spec CreativeSpec) bool {
		return spec.ImageHash == "hash-1" && spec.PageID == "page-1" &&
			spec.Link == "https://glow.test/shop?utm_source=meta" && spec.CallToAction == defaultCallToAction
	})).Return("creative-1", nil).Once()
	meta.On("CreateAdCreative", "act_42", mock.MatchedBy(func(spec CreativeSpec) bool {
		return spec.ImageHash == "hash-existing"
	})).Return("creative-2", nil).Once()
	meta.On("CreateAd", "act_42", "Ad A", "adset-9", "creative-1").Return("ad-1", nil).Once()
	meta.On("CreateAd", "act_42", "Ad C", "adset-9", "creative-2").Return("ad-2", nil).Once()

	tracker := progress.NewTracker(progress.DefaultTTL)
	l := &AdLauncher{Meta: meta, Store: f.store, Progress: tracker, Workers: 2, Log: logger.Nop()}

	drafts, err := ReadyDrafts(f.batch.ID, nil)
	require.NoError(t, err)
	require.Len(t, drafts, 3)

	uploadID := tracker.Start(f.brand.ID, len(drafts))
	l.Run(context.Background(), f.brand, f.batch, drafts, uploadID)

	meta.AssertExpectations(t)

	snap, ok := tracker.Get(uploadID)
	require.True(t, ok)
	assert.Equal(t, 2, snap.Completed)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, progress.StatusCompleted, snap.Status)

	var stored models.AdDraft
	require.NoError(t, db.DB.Preload("Assets").First(&stored, "id = ?", good.ID).Error)
	assert.Equal(t, types.AdDraftUploaded, stored.Status)
	assert.Equal(t, "creative-1", stored.MetaCreativeID)
	assert.Equal(t, "ad-1", stored.MetaAdID)
	require.Len(t, stored.Assets, 1)
	assert.Equal(t, "hash-1", stored.Assets[0].MetaImageHash)

	require.NoError(t, db.DB.First(&stored, "id = ?", empty.ID).Error)
	assert.Equal(t, types.AdDraftError, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "no image or video asset")

	require.NoError(t, db.DB.First(&stored, "id = ?", reused.ID).Error)
	assert.Equal(t, types.AdDraftUploaded, stored.Status)
	assert.Equal(t, "ad-2", stored.MetaAdID)

	var batch models.AdBatch
	require.NoError(t, db.DB.First(&batch, "id = ?", f.batch.ID).Error)
	assert.Equal(t, types.AdDraftError, batch.Status)
}

func TestAdLauncher_WaitDrainsLaunches(t *testing.T) {
	f := newLaunchFixture(t)
	f.draft(t, "Ad B", types.AdDraftReady)

	tracker := progress.NewTracker(progress.DefaultTTL)
	l := &AdLauncher{Meta: &mockMeta{}, Store: f.store, Progress: tracker, Log: logger.Nop()}

	drafts, err := ReadyDrafts(f.batch.ID, nil)
	require.NoError(t, err)

	uploadID, err := l.Start(context.Background(), f.brand, f.batch, drafts)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Wait(ctx))

	snap, ok := tracker.Get(uploadID)
	require.True(t, ok)
	assert.True(t, snap.Done())

	var batch models.AdBatch
	require.NoError(t, db.DB.First(&batch, "id = ?", f.batch.ID).Error)
	assert.Equal(t, types.AdDraftError, batch.Status)
}
