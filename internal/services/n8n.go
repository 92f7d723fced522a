package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/metrics"
)

// WorkflowRequest is the body every n8n webhook receives.
type WorkflowRequest struct {
	BrandID     string         `json:"brand_id"`
	Workflow    string         `json:"workflow"`
	ExecutionID string         `json:"execution_id"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Payload     map[string]any `json:"payload"`
}

// WorkflowTrigger starts a named workflow and returns the raw response body.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, req WorkflowRequest) (string, error)
	Known(workflow string) bool
}

type N8NClient struct {
	baseURL    string
	apiKey     string
	workflows  map[string]string
	httpClient *http.Client
}

func NewN8NClient(settings config.N8NSettings) (*N8NClient, error) {
	if settings.BaseURL == "" {
		return nil, ErrNotConfigured
	}

	return &N8NClient{
		baseURL:    strings.TrimSuffix(settings.BaseURL, "/"),
		apiKey:     settings.APIKey,
		workflows:  settings.Workflows,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *N8NClient) Known(workflow string) bool {
	_, ok := c.workflows[workflow]
	return ok
}

func (c *N8NClient) Trigger(ctx context.Context, request WorkflowRequest) (_ string, err error) {
	defer func() { metrics.ObserveCall("n8n", err) }()

	path, ok := c.workflows[request.Workflow]
	if !ok {
		return "", ErrUnknownWorkflow
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+strings.TrimPrefix(path, "/"), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build n8n request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-N8N-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call n8n: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode >= 400 {
		return string(respBody), &UpstreamError{Service: "n8n", StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512)}
	}

	return string(respBody), nil
}
