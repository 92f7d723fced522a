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

// Synthesizer turns narration text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, voiceID, text string) ([]byte, error)
	DefaultVoice() string
}

type ElevenLabsClient struct {
	baseURL      string
	apiKey       string
	modelID      string
	defaultVoice string
	httpClient   *http.Client
}

func NewElevenLabsClient(settings config.ElevenLabsSettings) (*ElevenLabsClient, error) {
	if settings.APIKey == "" {
		return nil, ErrNotConfigured
	}

	return &ElevenLabsClient{
		baseURL:      strings.TrimSuffix(settings.BaseURL, "/"),
		apiKey:       settings.APIKey,
		modelID:      settings.ModelID,
		defaultVoice: settings.DefaultVoiceID,
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func (c *ElevenLabsClient) DefaultVoice() string {
	return c.defaultVoice
}

// Synthesize returns MP3 bytes.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, voiceID, text string) (_ []byte, err error) {
	defer func() { metrics.ObserveCall("elevenlabs", err) }()

	if voiceID == "" {
		return nil, fmt.Errorf("no voice configured")
	}

	body, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": c.modelID,
		"voice_settings": map[string]float64{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal voiceover request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/text-to-speech/"+voiceID, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build ElevenLabs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ElevenLabs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &UpstreamError{Service: "elevenlabs", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}

	return audio, nil
}
