package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/metrics"
)

type MetaCampaign struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Objective string `json:"objective,omitempty"`
}

type MetaAdSet struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	CampaignID string `json:"campaign_id"`
}

// CreativeSpec describes the single-asset creative created for one ad draft.
type CreativeSpec struct {
	Name               string
	PageID             string
	InstagramAccountID string
	PrimaryText        string
	Headline           string
	Description        string
	Link               string
	CallToAction       string
	ImageHash          string
	VideoID            string
	ThumbnailURL       string
}

// AccountInsights is the subset of account-level insights a scorecard can track.
type AccountInsights map[string]float64

// MetaAPI is the part of the Graph API used for ad uploads and reporting.
type MetaAPI interface {
	ListCampaigns(ctx context.Context, adAccountID string) ([]MetaCampaign, error)
	ListAdSets(ctx context.Context, campaignID string) ([]MetaAdSet, error)
	UploadImage(ctx context.Context, adAccountID, fileName string, content io.Reader) (string, error)
	UploadVideo(ctx context.Context, adAccountID, fileName string, content io.Reader) (string, error)
	CreateAdCreative(ctx context.Context, adAccountID string, spec CreativeSpec) (string, error)
	CreateAd(ctx context.Context, adAccountID, name, adSetID, creativeID string) (string, error)
	AccountInsights(ctx context.Context, adAccountID, datePreset string) (AccountInsights, error)
}

type GraphClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewGraphClient(settings config.MetaSettings) (*GraphClient, error) {
	if settings.AccessToken == "" {
		return nil, ErrNotConfigured
	}

	return &GraphClient{
		baseURL:     strings.TrimSuffix(settings.BaseURL, "/") + "/" + settings.APIVersion,
		accessToken: settings.AccessToken,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// AdAccountPath makes sure the id carries the act_ prefix the Graph API expects.
func AdAccountPath(adAccountID string) string {
	if strings.HasPrefix(adAccountID, "act_") {
		return adAccountID
	}
	return "act_" + adAccountID
}

type graphError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		UserMessage  string `json:"error_user_msg"`
	} `json:"error"`
}

func (c *GraphClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) (err error) {
	defer func() { metrics.ObserveCall("meta", err) }()

	if query == nil {
		query = url.Values{}
	}
	query.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimPrefix(path, "/")+"?"+query.Encode(), body)
	if err != nil {
		return fmt.Errorf("failed to build Meta request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call Meta: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Meta response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var ge graphError
		message := string(raw)
		if json.Unmarshal(raw, &ge) == nil && ge.Error.Message != "" {
			message = ge.Error.Message
			if ge.Error.UserMessage != "" {
				message += ": " + ge.Error.UserMessage
			}
		}
		return &UpstreamError{Service: "meta", StatusCode: resp.StatusCode, Body: truncate(message, 512)}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode Meta response: %w", err)
	}

	return nil
}

func (c *GraphClient) postForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", out)
}

func (c *GraphClient) ListCampaigns(ctx context.Context, adAccountID string) ([]MetaCampaign, error) {
	var resp struct {
		Data []MetaCampaign `json:"data"`
	}

	query := url.Values{"fields": {"id,name,status,objective"}, "limit": {"200"}}
	if err := c.do(ctx, http.MethodGet, AdAccountPath(adAccountID)+"/campaigns", query, nil, "", &resp); err != nil {
		return nil, err
	}

	return resp.Data, nil
}

func (c *GraphClient) ListAdSets(ctx context.Context, campaignID string) ([]MetaAdSet, error) {
	var resp struct {
		Data []MetaAdSet `json:"data"`
	}

	query := url.Values{"fields": {"id,name,status,campaign_id"}, "limit": {"200"}}
	if err := c.do(ctx, http.MethodGet, campaignID+"/adsets", query, nil, "", &resp); err != nil {
		return nil, err
	}

	return resp.Data, nil
}

func (c *GraphClient) upload(ctx context.Context, path, field, fileName string, content io.Reader, out any) error {
	pr, pw := io.Pipe()
	defer pr.Close()

	writer := multipart.NewWriter(pw)

	// the body is streamed, so a large video is never held in memory
	go func() {
		pw.CloseWithError(writeUploadForm(writer, field, fileName, content))
	}()

	return c.do(ctx, http.MethodPost, path, nil, pr, writer.FormDataContentType(), out)
}

func writeUploadForm(writer *multipart.Writer, field, fileName string, content io.Reader) error {
	if err := writer.WriteField("name", fileName); err != nil {
		return fmt.Errorf("failed to write form field: %w", err)
	}

	part, err := writer.CreateFormFile(field, fileName)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to stream upload: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return nil
}

// UploadImage returns the image hash used to reference the image in a creative.
func (c *GraphClient) UploadImage(ctx context.Context, adAccountID, fileName string, content io.Reader) (string, error) {
	var resp struct {
		Images map[string]struct {
			Hash string `json:"hash"`
		} `json:"images"`
	}

	if err := c.upload(ctx, AdAccountPath(adAccountID)+"/adimages", "filename", fileName, content, &resp); err != nil {
		return "", err
	}

	for _, img := range resp.Images {
		if img.Hash != "" {
			return img.Hash, nil
		}
	}

	return "", fmt.Errorf("meta returned no image hash for %s", fileName)
}

func (c *GraphClient) UploadVideo(ctx context.Context, adAccountID, fileName string, content io.Reader) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}

	if err := c.upload(ctx, AdAccountPath(adAccountID)+"/advideos", "source", fileName, content, &resp); err != nil {
		return "", err
	}

	if resp.ID == "" {
		return "", fmt.Errorf("meta returned no video id for %s", fileName)
	}

	return resp.ID, nil
}

// ObjectStorySpec builds the object_story_spec for a single image or video creative.
func ObjectStorySpec(spec CreativeSpec) map[string]any {
	cta := map[string]any{
		"type":  spec.CallToAction,
		"value": map[string]any{"link": spec.Link},
	}

	story := map[string]any{"page_id": spec.PageID}
	if spec.InstagramAccountID != "" {
		story["instagram_actor_id"] = spec.InstagramAccountID
	}

	if spec.VideoID != "" {
		video := map[string]any{
			"video_id":         spec.VideoID,
			"message":          spec.PrimaryText,
			"title":            spec.Headline,
			"link_description": spec.Description,
			"call_to_action":   cta,
		}
		if spec.ThumbnailURL != "" {
			video["image_url"] = spec.ThumbnailURL
		}
		story["video_data"] = video
		return story
	}

	story["link_data"] = map[string]any{
		"image_hash":     spec.ImageHash,
		"link":           spec.Link,
		"message":        spec.PrimaryText,
		"name":           spec.Headline,
		"description":    spec.Description,
		"call_to_action": cta,
	}
	return story
}

func (c *GraphClient) CreateAdCreative(ctx context.Context, adAccountID string, spec CreativeSpec) (string, error) {
	storySpec, err := json.Marshal(ObjectStorySpec(spec))
	if err != nil {
		return "", fmt.Errorf("failed to encode creative: %w", err)
	}

	form := url.Values{
		"name":              {spec.Name},
		"object_story_spec": {string(storySpec)},
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.postForm(ctx, AdAccountPath(adAccountID)+"/adcreatives", form, &resp); err != nil {
		return "", err
	}

	return resp.ID, nil
}

// CreateAd always creates the ad paused so it can be reviewed in Ads Manager.
func (c *GraphClient) CreateAd(ctx context.Context, adAccountID, name, adSetID, creativeID string) (string, error) {
	creative, _ := json.Marshal(map[string]string{"creative_id": creativeID})

	form := url.Values{
		"name":     {name},
		"adset_id": {adSetID},
		"creative": {string(creative)},
		"status":   {"PAUSED"},
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.postForm(ctx, AdAccountPath(adAccountID)+"/ads", form, &resp); err != nil {
		return "", err
	}

	return resp.ID, nil
}

type insightAction struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

type insightRow struct {
	Spend             string          `json:"spend"`
	Impressions       string          `json:"impressions"`
	Clicks            string          `json:"clicks"`
	CTR               string          `json:"ctr"`
	CPC               string          `json:"cpc"`
	CPM               string          `json:"cpm"`
	Actions           []insightAction `json:"actions"`
	PurchaseROAS      []insightAction `json:"purchase_roas"`
	CostPerActionType []insightAction `json:"cost_per_action_type"`
}

const purchaseAction = "omni_purchase"

func (c *GraphClient) AccountInsights(ctx context.Context, adAccountID, datePreset string) (AccountInsights, error) {
	var resp struct {
		Data []insightRow `json:"data"`
	}

	query := url.Values{
		"fields":      {"spend,impressions,clicks,ctr,cpc,cpm,actions,purchase_roas,cost_per_action_type"},
		"date_preset": {datePreset},
		"level":       {"account"},
	}
	if err := c.do(ctx, http.MethodGet, AdAccountPath(adAccountID)+"/insights", query, nil, "", &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return AccountInsights{}, nil
	}

	return parseInsightRow(resp.Data[0]), nil
}

// parseInsightRow flattens the string-encoded Graph API numbers into metric values.
func parseInsightRow(row insightRow) AccountInsights {
	out := AccountInsights{}

	scalar := map[string]string{
		"spend":       row.Spend,
		"impressions": row.Impressions,
		"clicks":      row.Clicks,
		"ctr":         row.CTR,
		"cpc":         row.CPC,
		"cpm":         row.CPM,
	}
	for field, raw := range scalar {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			out[field] = v
		}
	}

	if v, ok := findAction(row.Actions, purchaseAction, "purchase"); ok {
		out["purchases"] = v
	}
	if v, ok := findAction(row.PurchaseROAS, purchaseAction, "purchase"); ok {
		out["purchase_roas"] = v
	}
	if v, ok := findAction(row.CostPerActionType, purchaseAction, "purchase"); ok {
		out["cost_per_purchase"] = v
	}

	return out
}

func findAction(actions []insightAction, types ...string) (float64, bool) {
	for _, want := range types {
		for _, a := range actions {
			if a.ActionType != want {
				continue
			}
			if v, err := strconv.ParseFloat(a.Value, 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}
