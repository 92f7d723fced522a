package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/metrics"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/progress"
	"github.com/powerbrief-dev/powerbrief/internal/storage"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/powerbrief-dev/powerbrief/internal/utils"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLaunchWorkers = 3
	defaultCallToAction  = "LEARN_MORE"
)

var (
	ErrNoReadyDrafts = errors.New("no ready drafts to launch")
	ErrBatchNoAdSet  = errors.New("ad batch has no ad set")
	errNoAssets      = errors.New("draft has no image or video asset")
)

// AdLauncher pushes ready drafts to Meta. Each draft is independent: a
// failure is stored on the draft and the rest of the batch continues.
type AdLauncher struct {
	Meta     MetaAPI
	Store    storage.Store
	Progress *progress.Tracker
	Notifier *Notifier
	Workers  int
	Log      logger.Logger

	running sync.WaitGroup
}

// ReadyDrafts loads the batch drafts in the ready state, optionally limited to ids.
func ReadyDrafts(batchID string, ids []string) ([]models.AdDraft, error) {
	query := db.DB.Preload("Assets").Where("ad_batch_id = ? AND status = ?", batchID, types.AdDraftReady)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}

	var drafts []models.AdDraft
	if err := query.Order("created_at ASC").Find(&drafts).Error; err != nil {
		return nil, fmt.Errorf("failed to load drafts: %w", err)
	}
	return drafts, nil
}

// Start validates the batch, registers a progress entry and launches in the
// background. The returned id is the progress upload id.
func (l *AdLauncher) Start(ctx context.Context, brand models.Brand, batch models.AdBatch, drafts []models.AdDraft) (string, error) {
	if l.Meta == nil || l.Store == nil {
		return "", ErrNotConfigured
	}
	if len(drafts) == 0 {
		return "", ErrNoReadyDrafts
	}
	if batch.AdSetID == "" {
		return "", ErrBatchNoAdSet
	}
	if adAccountFor(brand, batch) == "" {
		return "", ErrNoAdAccount
	}

	if err := db.DB.Model(&batch).Update("status", types.AdDraftUploading).Error; err != nil {
		return "", fmt.Errorf("failed to mark batch uploading: %w", err)
	}

	uploadID := l.Progress.Start(brand.ID, len(drafts))

	l.running.Add(1)
	go func() {
		defer l.running.Done()
		l.Run(context.WithoutCancel(ctx), brand, batch, drafts, uploadID)
	}()

	return uploadID, nil
}

// Wait blocks until every launch started by Start has finished or ctx ends.
func (l *AdLauncher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes drafts with a bounded worker pool and blocks until done.
func (l *AdLauncher) Run(ctx context.Context, brand models.Brand, batch models.AdBatch, drafts []models.AdDraft, uploadID string) {
	metrics.ActiveUploads.Inc()
	defer metrics.ActiveUploads.Dec()

	workers := l.Workers
	if workers <= 0 {
		workers = DefaultLaunchWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for _, draft := range drafts {
		g.Go(func() error {
			l.Progress.Current(uploadID, draft.AdName)

			if err := l.launchDraft(ctx, brand, batch, draft); err != nil {
				l.Log.Warn("Ad draft launch failed", "batch_id", batch.ID, "draft_id", draft.ID, "error", err)
				l.Progress.Step(uploadID, false, fmt.Sprintf("%s: %v", draft.AdName, err))
				return nil
			}

			l.Progress.Step(uploadID, true, draft.AdName+": uploaded")
			return nil
		})
	}

	_ = g.Wait()

	snap, _ := l.Progress.Get(uploadID)

	batchStatus := types.AdDraftUploaded
	if snap.Failed > 0 {
		batchStatus = types.AdDraftError
	}
	if err := db.DB.Model(&batch).Update("status", batchStatus).Error; err != nil {
		l.Log.Error("Failed to update ad batch status", "batch_id", batch.ID, "error", err)
	}

	l.Progress.Finish(uploadID, fmt.Sprintf("Finished: %d uploaded, %d failed", snap.Completed, snap.Failed))

	if l.Notifier != nil {
		l.Notifier.NotifySlack(ctx, brand, types.EventAdBatchLaunched, AdBatchLaunchedMessage(brand, batch, snap.Completed, snap.Failed))
	}
}

func (l *AdLauncher) launchDraft(ctx context.Context, brand models.Brand, batch models.AdBatch, draft models.AdDraft) (err error) {
	defer func() {
		updates := map[string]interface{}{"status": types.AdDraftUploaded, "error_message": ""}
		if err != nil {
			updates["status"] = types.AdDraftError
			updates["error_message"] = truncate(err.Error(), 1024)
		}
		if dbErr := db.DB.Model(&models.AdDraft{}).Where("id = ?", draft.ID).Updates(updates).Error; dbErr != nil {
			l.Log.Error("Failed to store draft result", "draft_id", draft.ID, "error", dbErr)
		}
	}()

	if err := db.DB.Model(&models.AdDraft{}).Where("id = ?", draft.ID).Update("status", types.AdDraftUploading).Error; err != nil {
		return fmt.Errorf("failed to mark draft uploading: %w", err)
	}

	adAccount := adAccountFor(brand, batch)

	spec := CreativeSpec{
		Name:               draft.AdName,
		PageID:             firstNonEmpty(batch.FacebookPageID, brand.MetaFacebookPageID),
		InstagramAccountID: firstNonEmpty(batch.InstagramAccountID, brand.MetaInstagramAccountID),
		PrimaryText:        draft.PrimaryText,
		Headline:           draft.Headline,
		Description:        draft.Description,
		CallToAction:       firstNonEmpty(draft.CallToAction, batch.CallToAction, defaultCallToAction),
	}

	if spec.PageID == "" {
		return errors.New("no Facebook page configured")
	}

	destination := firstNonEmpty(draft.DestinationURL, batch.DestinationURL)
	if destination == "" {
		return errors.New("no destination URL")
	}

	spec.Link, err = utils.AppendURLParams(destination, firstNonEmpty(batch.URLParams, brand.DefaultURLParams))
	if err != nil {
		return err
	}

	for i := range draft.Assets {
		if err := l.uploadAsset(ctx, adAccount, &draft.Assets[i]); err != nil {
			return fmt.Errorf("%s: %w", draft.Assets[i].FileName, err)
		}
	}

	for _, asset := range draft.Assets {
		switch {
		case asset.AssetType == types.AssetVideo && spec.VideoID == "":
			spec.VideoID = asset.MetaVideoID
		case asset.AssetType == types.AssetImage && spec.ImageHash == "":
			spec.ImageHash = asset.MetaImageHash
			if strings.HasPrefix(asset.URL, "http") {
				spec.ThumbnailURL = asset.URL
			}
		}
	}

	if spec.VideoID == "" && spec.ImageHash == "" {
		return errNoAssets
	}

	creativeID, err := l.Meta.CreateAdCreative(ctx, adAccount, spec)
	if err != nil {
		return fmt.Errorf("failed to create creative: %w", err)
	}

	if err := db.DB.Model(&models.AdDraft{}).Where("id = ?", draft.ID).Update("meta_creative_id", creativeID).Error; err != nil {
		return fmt.Errorf("failed to store creative id: %w", err)
	}

	adID, err := l.Meta.CreateAd(ctx, adAccount, draft.AdName, batch.AdSetID, creativeID)
	if err != nil {
		return fmt.Errorf("failed to create ad: %w", err)
	}

	if err := db.DB.Model(&models.AdDraft{}).Where("id = ?", draft.ID).Update("meta_ad_id", adID).Error; err != nil {
		return fmt.Errorf("failed to store ad id: %w", err)
	}

	return nil
}

// uploadAsset sends the stored file to Meta unless an earlier launch already did.
func (l *AdLauncher) uploadAsset(ctx context.Context, adAccount string, asset *models.AdDraftAsset) error {
	if asset.MetaImageHash != "" || asset.MetaVideoID != "" {
		return nil
	}

	content, err := l.Store.Get(ctx, asset.StorageKey)
	if err != nil {
		return fmt.Errorf("failed to read stored asset: %w", err)
	}
	defer content.Close()

	column := "meta_image_hash"
	var id string

	if asset.AssetType == types.AssetVideo {
		column = "meta_video_id"
		id, err = l.Meta.UploadVideo(ctx, adAccount, asset.FileName, content)
		asset.MetaVideoID = id
	} else {
		id, err = l.Meta.UploadImage(ctx, adAccount, asset.FileName, content)
		asset.MetaImageHash = id
	}
	if err != nil {
		return err
	}

	return db.DB.Model(&models.AdDraftAsset{}).Where("id = ?", asset.ID).Update(column, id).Error
}

func adAccountFor(brand models.Brand, batch models.AdBatch) string {
	return firstNonEmpty(batch.AdAccountID, brand.MetaAdAccountID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
