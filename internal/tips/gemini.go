package tips

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiModel asks Gemini for tips using a JSON response schema.
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

// tipsSchema is the structured output contract: {"tips": string[]}.
func tipsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tips": {
				Type:        genai.TypeArray,
				Description: "An array of actionable marketing tips.",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"tips"},
	}
}

func (m *GeminiModel) GenerateTips(ctx context.Context, prompt string, count int) ([]string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   tipsSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}
	return parseTipsOutput(resp.Text())
}

func parseTipsOutput(text string) ([]string, error) {
	if text == "" {
		return nil, errors.New("model returned no output")
	}
	var out struct {
		Tips *[]string `json:"tips"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("model output does not match schema: %w", err)
	}
	if out.Tips == nil {
		return nil, errors.New("model output is missing tips")
	}
	return *out.Tips, nil
}

// DisabledModel stands in when no provider is configured; every call fails
// so the flow returns an empty tip list.
type DisabledModel struct{}

var ErrModelDisabled = errors.New("no tip model configured")

func (DisabledModel) GenerateTips(context.Context, string, int) ([]string, error) {
	return nil, ErrModelDisabled
}
