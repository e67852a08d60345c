package gemini

import (
	"context"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/oukeidos/nyamanga/internal/openai"
	"google.golang.org/api/googleapi"
)

func stubClient(fn generateFunc) *Client {
	return &Client{defaultModel: DefaultModel, generate: fn}
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	var p []genai.Part
	for _, s := range parts {
		p = append(p, genai.Text(s))
	}
	return &genai.GenerateContentResponse{
		Candidates:    []*genai.Candidate{{Content: &genai.Content{Parts: p}}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 3, CandidatesTokenCount: 2, TotalTokenCount: 5},
	}
}

func TestChatCompletion_MapsMessages(t *testing.T) {
	var gotSystem string
	var gotParts []genai.Part
	var gotTemp float32
	c := stubClient(func(ctx context.Context, m *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
		if m.SystemInstruction != nil {
			gotSystem = string(m.SystemInstruction.Parts[0].(genai.Text))
		}
		if m.Temperature != nil {
			gotTemp = *m.Temperature
		}
		gotParts = parts
		return textResponse("你好", "！"), nil
	})

	resp, err := c.ChatCompletion(context.Background(), openai.ChatRequest{
		Model: "nano-banana-2",
		Messages: []openai.Message{
			{Role: "system", Content: "be concise"},
			{Role: "user", Content: "Hello!"},
		},
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}
	if gotSystem != "be concise" {
		t.Errorf("system instruction = %q", gotSystem)
	}
	if len(gotParts) != 1 || gotParts[0] != genai.Text("Hello!") {
		t.Errorf("parts = %v", gotParts)
	}
	if gotTemp != 0.7 {
		t.Errorf("temperature = %v", gotTemp)
	}
	if resp["model"] != DefaultModel {
		t.Errorf("non-gemini model should fall back, got %v", resp["model"])
	}
	choices := resp["choices"].([]any)
	msg := choices[0].(map[string]any)["message"].(map[string]any)
	if msg["content"] != "你好！" {
		t.Errorf("content = %v", msg["content"])
	}
	if usage := resp["usage"].(map[string]any); usage["total_tokens"] != 5 {
		t.Errorf("usage = %v", usage)
	}
}

func TestChatCompletion_Errors(t *testing.T) {
	c := stubClient(func(ctx context.Context, m *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
		return nil, &googleapi.Error{Code: 429}
	})
	_, err := c.ChatCompletion(context.Background(), openai.ChatRequest{Messages: []openai.Message{{Role: "user", Content: "x"}}})
	assertErrorKind(t, err, "rate_limit")

	_, err = c.ChatCompletion(context.Background(), openai.ChatRequest{Messages: []openai.Message{{Role: "system", Content: "only system"}}})
	assertErrorKind(t, err, "bad_request")
}

func TestChatCompletion_RequestTimeout(t *testing.T) {
	c := stubClient(func(ctx context.Context, m *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a deadline on the request context")
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	c.timeout = 20 * time.Millisecond

	start := time.Now()
	_, err := c.ChatCompletion(context.Background(), openai.ChatRequest{Messages: []openai.Message{{Role: "user", Content: "x"}}})
	assertErrorKind(t, err, "transient")
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("stalled call was not bounded: %v", elapsed)
	}
}

func TestResolveModel(t *testing.T) {
	if got := resolveModel("gemini-3-pro-preview", DefaultModel); got != "gemini-3-pro-preview" {
		t.Errorf("resolveModel() = %q", got)
	}
	if got := resolveModel("gpt-4o", "gemini-x"); got != "gemini-x" {
		t.Errorf("resolveModel() = %q", got)
	}
}

func TestExtractResponseText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr string
	}{
		{name: "nil", resp: nil, wantErr: "no response received from Gemini"},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: "no candidates returned from Gemini"},
		{name: "no parts", resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}}, wantErr: "no text parts found in Gemini response"},
		{name: "blob only", resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{
			genai.Blob{MIMEType: "image/png", Data: []byte{0x01}},
		}}}}}, wantErr: "no text parts found in Gemini response"},
		{name: "multi part", resp: textResponse("one", "two"), want: "onetwo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractResponseText(tt.resp)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("extractResponseText() = %q, %v", got, err)
			}
		})
	}
}
