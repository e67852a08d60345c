// Package gemini provides a dialogue rewrite backend on top of the Gemini
// API. It answers chat requests with a chat-completion shaped Response so
// that callers can treat it like the OpenAI-compatible client.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/openai"
	"google.golang.org/api/option"
)

// DefaultModel is used when the requested model is not a Gemini model.
const DefaultModel = "gemini-3-flash-preview"

type generateFunc func(ctx context.Context, model *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error)

// Client wraps a genai client.
type Client struct {
	client       *genai.Client
	defaultModel string
	timeout      time.Duration
	generate     generateFunc
}

// NewClient creates a Gemini client. An empty model selects DefaultModel.
// A positive timeout bounds every ChatCompletion call.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.New(apperrors.KindConfig, "Gemini API key is required.", nil)
	}
	// option.WithHTTPClient would drop the API key header injected by genai,
	// so timeouts come from the caller's context instead.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, apperrors.New(apperrors.KindConfig, "Failed to create Gemini client.", err)
	}
	return &Client{
		client:       client,
		defaultModel: resolveModel(model, DefaultModel),
		timeout:      timeout,
		generate: func(ctx context.Context, m *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
			return m.GenerateContent(ctx, parts...)
		},
	}, nil
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ChatCompletion maps an OpenAI-style chat request onto GenerateContent.
// System messages become the system instruction; the rest are sent as text
// parts in order.
func (c *Client) ChatCompletion(ctx context.Context, req openai.ChatRequest) (openai.Response, error) {
	modelName := resolveModel(req.Model, c.defaultModel)
	var system []string
	var parts []genai.Part
	for _, msg := range req.Messages {
		if msg.Role == "system" {
			system = append(system, msg.Content)
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	if len(parts) == 0 {
		return nil, apperrors.New(apperrors.KindBadRequest, "Gemini request has no user content.", nil)
	}

	var model *genai.GenerativeModel
	if c.client != nil {
		model = c.client.GenerativeModel(modelName)
	} else {
		model = &genai.GenerativeModel{}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n"))}}
	}
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if req.TopP != nil {
		model.SetTopP(float32(*req.TopP))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.generate(ctx, model, parts...)
	if err != nil {
		if ctxErr := apperrors.FromContext(err); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classifyGeminiError(err)
	}
	text, err := extractResponseText(resp)
	if err != nil {
		return nil, apperrors.Validation(err)
	}
	return toChatResponse(modelName, text, resp), nil
}

func resolveModel(requested, fallback string) string {
	requested = strings.TrimSpace(requested)
	if strings.HasPrefix(requested, "gemini-") {
		return requested
	}
	return fallback
}

func toChatResponse(model, text string, resp *genai.GenerateContentResponse) openai.Response {
	out := openai.Response{
		"object": "chat.completion",
		"model":  model,
		"choices": []any{
			map[string]any{
				"index":   0,
				"message": map[string]any{"role": "assistant", "content": text},
			},
		},
	}
	if resp.UsageMetadata != nil {
		out["usage"] = map[string]any{
			"prompt_tokens":     int(resp.UsageMetadata.PromptTokenCount),
			"completion_tokens": int(resp.UsageMetadata.CandidatesTokenCount),
			"total_tokens":      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		if b.Len() > 0 {
			return b.String(), nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}
