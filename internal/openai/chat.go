package openai

import (
	"context"
	"maps"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a chat completion call. Empty Model means the configured
// chat model. Extra keys are merged into the JSON payload last, so they can
// override any field.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature *float64
	TopP        *float64
	Stream      bool
	Extra       map[string]any
}

// Float returns a pointer to v for the optional sampling fields.
func Float(v float64) *float64 { return &v }

// ChatCompletion posts to {base}/chat/completions.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.ChatModel
	}
	messages := req.Messages
	if messages == nil {
		messages = []Message{}
	}
	payload := map[string]any{
		"model":    model,
		"messages": messages,
		"stream":   req.Stream,
	}
	if req.Temperature != nil {
		payload["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		payload["top_p"] = *req.TopP
	}
	maps.Copy(payload, req.Extra)
	return c.postJSON(ctx, chatPath, payload)
}
