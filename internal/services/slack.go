package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/powerbrief-dev/powerbrief/internal/metrics"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/types"
)

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	TitleLink string       `json:"title_link,omitempty"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	SlackUsername = "PowerBrief"

	colorGood    = "good"
	colorWarning = "warning"
	colorDanger  = "danger"
	colorInfo    = "#3b82f6"
)

// SlackSender posts a message to an incoming webhook.
type SlackSender interface {
	Send(ctx context.Context, webhookURL string, payload SlackWebhookRequest) error
}

type SlackClient struct {
	httpClient *http.Client
}

func NewSlackClient(timeout time.Duration) *SlackClient {
	return &SlackClient{httpClient: &http.Client{Timeout: timeout}}
}

func (c *SlackClient) Send(ctx context.Context, webhookURL string, payload SlackWebhookRequest) (err error) {
	defer func() { metrics.ObserveCall("slack", err) }()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build Slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &UpstreamError{Service: "slack", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return nil
}

func brandFooter(brand models.Brand) string {
	return fmt.Sprintf("Brand: %s | PowerBrief", brand.Name)
}

func CreatorAppliedMessage(brand models.Brand, creator models.Creator) SlackWebhookRequest {
	return SlackWebhookRequest{
		Username:  SlackUsername,
		IconEmoji: ":sparkles:",
		Text:      ":sparkles: *New UGC creator application*",
		Attachments: []SlackAttachment{
			{
				Color: colorInfo,
				Title: fmt.Sprintf("%s applied to create for %s", creator.Name, brand.Name),
				Text:  creator.Notes,
				Fields: []SlackField{
					{Title: "Email", Value: creator.Email, Short: true},
					{Title: "Instagram", Value: orDash(creator.InstagramHandle), Short: true},
					{Title: "TikTok", Value: orDash(creator.TiktokHandle), Short: true},
					{Title: "Portfolio", Value: orDash(creator.PortfolioLink), Short: true},
				},
				Footer:    brandFooter(brand),
				Timestamp: time.Now().Unix(),
			},
		},
	}
}

func CreatorStatusChangedMessage(brand models.Brand, creator models.Creator, previous string) SlackWebhookRequest {
	color := colorInfo
	switch creator.Status {
	case types.CreatorStatusReadyForScripts, types.CreatorStatusApprovedNext:
		color = colorGood
	case types.CreatorStatusRejected:
		color = colorDanger
	}

	return SlackWebhookRequest{
		Username:  SlackUsername,
		IconEmoji: ":arrows_counterclockwise:",
		Text:      ":arrows_counterclockwise: *Creator status updated*",
		Attachments: []SlackAttachment{
			{
				Color: color,
				Title: fmt.Sprintf("%s moved to %s", creator.Name, creator.Status),
				Fields: []SlackField{
					{Title: "Previous Status", Value: orDash(previous), Short: true},
					{Title: "New Status", Value: creator.Status, Short: true},
					{Title: "Contract", Value: orDash(creator.ContractStatus), Short: true},
				},
				Footer:    brandFooter(brand),
				Timestamp: time.Now().Unix(),
			},
		},
	}
}

func ScriptStatusMessage(brand models.Brand, script models.Script, creatorName string) SlackWebhookRequest {
	color := colorInfo
	switch script.Status {
	case types.ScriptStatusApproved, types.ScriptStatusFinalApproved, types.ScriptStatusCreatorApproved:
		color = colorGood
	case types.ScriptStatusRevisionRequested, types.ScriptStatusContentRevisionRequested, types.ScriptStatusCreatorReassignment:
		color = colorWarning
	}

	fields := []SlackField{
		{Title: "Status", Value: script.Status, Short: true},
		{Title: "Creator", Value: orDash(creatorName), Short: true},
	}
	if script.RevisionNotes != "" {
		fields = append(fields, SlackField{Title: "Notes", Value: script.RevisionNotes, Short: false})
	}
	if script.FinalContentLink != "" {
		fields = append(fields, SlackField{Title: "Content", Value: script.FinalContentLink, Short: false})
	}

	return SlackWebhookRequest{
		Username:  SlackUsername,
		IconEmoji: ":clapper:",
		Text:      ":clapper: *UGC script update*",
		Attachments: []SlackAttachment{
			{
				Color:     color,
				Title:     script.Title,
				Fields:    fields,
				Footer:    brandFooter(brand),
				Timestamp: time.Now().Unix(),
			},
		},
	}
}

func ContractCompletedMessage(brand models.Brand, contract models.Contract) SlackWebhookRequest {
	signers := ""
	for i, r := range contract.Recipients {
		if i > 0 {
			signers += ", "
		}
		signers += r.Name
	}

	return SlackWebhookRequest{
		Username:  SlackUsername,
		IconEmoji: ":white_check_mark:",
		Text:      ":white_check_mark: *Contract fully signed*",
		Attachments: []SlackAttachment{
			{
				Color:     colorGood,
				Title:     contract.Title,
				TitleLink: contract.DocumentURL,
				Fields: []SlackField{
					{Title: "Signers", Value: orDash(signers), Short: false},
				},
				Footer:    brandFooter(brand),
				Timestamp: time.Now().Unix(),
			},
		},
	}
}

func AdBatchLaunchedMessage(brand models.Brand, batch models.AdBatch, uploaded, failed int) SlackWebhookRequest {
	color := colorGood
	if failed > 0 {
		color = colorWarning
	}
	if uploaded == 0 && failed > 0 {
		color = colorDanger
	}

	return SlackWebhookRequest{
		Username:  SlackUsername,
		IconEmoji: ":rocket:",
		Text:      ":rocket: *Ads uploaded to Meta*",
		Attachments: []SlackAttachment{
			{
				Color: color,
				Title: batch.Name,
				Text:  "Ads were created paused and are waiting for review in Ads Manager.",
				Fields: []SlackField{
					{Title: "Uploaded", Value: fmt.Sprintf("%d", uploaded), Short: true},
					{Title: "Failed", Value: fmt.Sprintf("%d", failed), Short: true},
					{Title: "Ad Set", Value: orDash(batch.AdSetID), Short: true},
				},
				Footer:    brandFooter(brand),
				Timestamp: time.Now().Unix(),
			},
		},
	}
}

func SlackTestMessage(brand models.Brand) SlackWebhookRequest {
	return SlackWebhookRequest{
		Username:  SlackUsername,
		IconEmoji: ":wave:",
		Text:      fmt.Sprintf(":wave: Slack notifications are connected for *%s*.", brand.Name),
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
