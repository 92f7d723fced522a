package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/metrics"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"google.golang.org/genai"
)

// Generator makes a single LLM call. GenerateJSON decodes the reply into out.
type Generator interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
	GenerateJSON(ctx context.Context, system, prompt string, out any) error
}

type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, settings config.AISettings) (*GeminiGenerator, error) {
	if settings.GeminiAPIKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  settings.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiGenerator{client: client, model: settings.Model}, nil
}

func (g *GeminiGenerator) generate(ctx context.Context, system, prompt, mimeType string) (_ string, err error) {
	defer func() { metrics.ObserveCall("gemini", err) }()

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: mimeType}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("model returned an empty response")
	}

	return text, nil
}

func (g *GeminiGenerator) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	return g.generate(ctx, system, prompt, "text/plain")
}

func (g *GeminiGenerator) GenerateJSON(ctx context.Context, system, prompt string, out any) error {
	text, err := g.generate(ctx, system, prompt, "application/json")
	if err != nil {
		return err
	}
	return DecodeModelJSON(text, out)
}

// DecodeModelJSON tolerates markdown code fences around the JSON body.
func DecodeModelJSON(text string, out any) error {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}

	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), out); err != nil {
		return fmt.Errorf("failed to parse model output: %w", err)
	}
	return nil
}

const ScriptSystemPrompt = `You are a direct-response UGC scriptwriter for paid social ads.
Reply with JSON only, using this shape:
{"title": string, "scene_start": string, "segments": [{"segment": string, "script_text": string, "visuals": string}], "scene_end": string, "b_roll_shot_list": [string], "hooks": [string]}`

type ScriptBrief struct {
	BrandName         string
	BrandInfo         string
	TargetAudience    string
	Product           string
	HookType          string
	HookCount         int
	CreativeDirection string
	CreatorName       string
	CreatorPlatforms  []string
}

// GeneratedScript is what the model returns for a script brief.
type GeneratedScript struct {
	Title         string                 `json:"title"`
	SceneStart    string                 `json:"scene_start"`
	Segments      []models.ScriptSegment `json:"segments"`
	SceneEnd      string                 `json:"scene_end"`
	BRollShotList []string               `json:"b_roll_shot_list"`
	Hooks         []string               `json:"hooks"`
}

// Content converts the model output into the stored script shape.
func (g GeneratedScript) Content() models.ScriptContent {
	return models.ScriptContent{SceneStart: g.SceneStart, Segments: g.Segments, SceneEnd: g.SceneEnd}
}

func ScriptPrompt(brief ScriptBrief) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Brand: %s\n", brief.BrandName)
	if brief.BrandInfo != "" {
		fmt.Fprintf(&b, "Brand info: %s\n", brief.BrandInfo)
	}
	if brief.TargetAudience != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", brief.TargetAudience)
	}
	fmt.Fprintf(&b, "Product: %s\n", brief.Product)

	hookCount := brief.HookCount
	if hookCount < 1 {
		hookCount = 1
	}
	fmt.Fprintf(&b, "Write %d %s hook(s).\n", hookCount, orDefault(brief.HookType, "verbal"))

	if brief.CreativeDirection != "" {
		fmt.Fprintf(&b, "Creative direction: %s\n", brief.CreativeDirection)
	}
	if brief.CreatorName != "" {
		fmt.Fprintf(&b, "The script will be filmed by %s", brief.CreatorName)
		if len(brief.CreatorPlatforms) > 0 {
			fmt.Fprintf(&b, " who posts on %s", strings.Join(brief.CreatorPlatforms, ", "))
		}
		b.WriteString(".\n")
	}

	b.WriteString("Keep each segment under 20 seconds of speech and write visuals a creator can film at home.")
	return b.String()
}

const OneSheetSystemPrompt = `You are a performance-marketing strategist building a creative research brief.
Reply with JSON only: {"content": string, "bullets": [string]}`

// OneSheetSectionResult is stored under the section key of a OneSheet.
type OneSheetSectionResult struct {
	Content string   `json:"content"`
	Bullets []string `json:"bullets"`
}

func OneSheetSectionPrompt(brandName, product, landingPage, section, notes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Brand: %s\nProduct: %s\n", brandName, orDefault(product, "not specified"))
	if landingPage != "" {
		fmt.Fprintf(&b, "Landing page: %s\n", landingPage)
	}
	fmt.Fprintf(&b, "Section to write: %s\n", strings.ReplaceAll(section, "_", " "))
	if notes != "" {
		fmt.Fprintf(&b, "Research notes:\n%s\n", notes)
	}
	return b.String()
}

const CoordinatorSystemPrompt = `You coordinate a UGC creator pipeline for a brand.
Recommend the next actions. Reply with JSON only:
{"actions": [{"creator_id": string, "action_type": "send_email"|"update_status"|"assign_script"|"follow_up", "reason": string, "suggested_status": string, "email_subject": string, "email_body": string}]}
Only use creator ids from the snapshot. Email bodies may use {{.CreatorName}} and {{.BrandName}}.`

type PipelineCreator struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	ContractStatus string `json:"contract_status"`
	ScriptCount    int    `json:"script_count"`
	DaysInStatus   int    `json:"days_in_status"`
}

type CoordinatorSuggestion struct {
	CreatorID       string `json:"creator_id"`
	ActionType      string `json:"action_type"`
	Reason          string `json:"reason"`
	SuggestedStatus string `json:"suggested_status"`
	EmailSubject    string `json:"email_subject"`
	EmailBody       string `json:"email_body"`
}

type CoordinatorPlan struct {
	Actions []CoordinatorSuggestion `json:"actions"`
}

func CoordinatorPrompt(brandName string, statuses []string, creators []PipelineCreator) (string, error) {
	snapshot, err := json.Marshal(creators)
	if err != nil {
		return "", fmt.Errorf("failed to encode pipeline: %w", err)
	}

	return fmt.Sprintf("Brand: %s\nValid statuses: %s\nPipeline snapshot:\n%s",
		brandName, strings.Join(statuses, ", "), snapshot), nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
