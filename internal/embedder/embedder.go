// Package embedder builds the typesetting prompts and unwraps the model
// responses into plain text and base64 images.
package embedder

import (
	"context"
	"fmt"
	"strings"

	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/oukeidos/nyamanga/internal/openai"
)

const (
	DefaultTargetLanguage = "zh"
	DefaultTone           = "friendly manga voice"
	DefaultEmbedStyle     = "clean manga typesetting, legible, keep art intact"
	DefaultAutoStyle      = "Clean, legible, balanced layout."

	rewriteTemperature = 0.7
)

// ChatCompleter is the chat half of the API.
type ChatCompleter interface {
	ChatCompletion(ctx context.Context, req openai.ChatRequest) (openai.Response, error)
}

// ImageEditor is the image edit half of the API.
type ImageEditor interface {
	EditImage(ctx context.Context, req openai.EditRequest) (openai.Response, error)
}

// MangaEmbedder turns dialogue and panel images into API calls. It does not
// own its backends.
type MangaEmbedder struct {
	chat       ChatCompleter
	images     ImageEditor
	chatModel  string
	imageModel string
}

func New(chat ChatCompleter, images ImageEditor, cfg config.ApiConfig) *MangaEmbedder {
	cfg, _ = cfg.Normalize()
	return &MangaEmbedder{
		chat:       chat,
		images:     images,
		chatModel:  cfg.ChatModel,
		imageModel: cfg.ImageModel,
	}
}

type RewriteOptions struct {
	TargetLanguage string
	Tone           string
}

type EmbedOptions struct {
	BubbleHint string
	MaskPath   string
	StyleHint  string
}

type AutoOptions struct {
	TargetLanguage string
	BubbleHint     string
	MaskPath       string
	StyleHint      string
}

// RewriteDialogue translates or rewrites sourceText for the target language.
func (e *MangaEmbedder) RewriteDialogue(ctx context.Context, sourceText string, opts RewriteOptions) (*DialogueRewriteResult, error) {
	resp, err := e.chat.ChatCompletion(ctx, openai.ChatRequest{
		Model: e.chatModel,
		Messages: []openai.Message{
			{Role: "system", Content: rewriteInstruction(opts)},
			{Role: "user", Content: sourceText},
		},
		Temperature: openai.Float(rewriteTemperature),
	})
	if err != nil {
		return nil, err
	}
	return &DialogueRewriteResult{Text: FirstMessageContent(resp), RawResponse: resp}, nil
}

// EmbedText asks the image model to typeset text into the panel.
func (e *MangaEmbedder) EmbedText(ctx context.Context, imagePath, text string, opts EmbedOptions) (*EmbedResult, error) {
	return e.edit(ctx, imagePath, opts.MaskPath, EmbedPrompt(text, opts))
}

// AutoLocalize asks the image model to read, translate and re-typeset all
// text in the panel in a single call.
func (e *MangaEmbedder) AutoLocalize(ctx context.Context, imagePath string, opts AutoOptions) (*EmbedResult, error) {
	return e.edit(ctx, imagePath, opts.MaskPath, AutoPrompt(opts))
}

func (e *MangaEmbedder) edit(ctx context.Context, imagePath, maskPath, prompt string) (*EmbedResult, error) {
	resp, err := e.images.EditImage(ctx, openai.EditRequest{
		ImagePath:      imagePath,
		MaskPath:       maskPath,
		Prompt:         prompt,
		Model:          e.imageModel,
		ResponseFormat: openai.DefaultResponseFormat,
	})
	if err != nil {
		return nil, err
	}
	payload, err := FirstImage(resp)
	if err != nil {
		return nil, err
	}
	return &EmbedResult{ImageB64: payload.B64, RawResponse: resp}, nil
}

func rewriteInstruction(opts RewriteOptions) string {
	lang := orDefault(opts.TargetLanguage, DefaultTargetLanguage)
	s := fmt.Sprintf("You are a manga typesetting assistant. Translate or rewrite speech into %s "+
		"while keeping natural pacing and concise bubbles. Return plain text only.", lang)
	if tone := strings.TrimSpace(opts.Tone); tone != "" {
		s += " Tone: " + tone + "."
	}
	return s
}

// EmbedPrompt builds the edit prompt for typesetting known text.
func EmbedPrompt(text string, opts EmbedOptions) string {
	var b strings.Builder
	if hint := strings.TrimSpace(opts.BubbleHint); hint != "" {
		fmt.Fprintf(&b, "Place the text inside speech balloons: %s. ", hint)
	} else {
		b.WriteString("Place the text into existing speech balloons while preserving line art. ")
	}
	fmt.Fprintf(&b, "Text to typeset: %s. ", text)
	fmt.Fprintf(&b, "Styling: %s. ", orDefault(opts.StyleHint, DefaultEmbedStyle))
	b.WriteString("Use natural spacing and avoid altering faces or backgrounds.")
	return b.String()
}

// AutoPrompt builds the edit prompt for single-call localization.
func AutoPrompt(opts AutoOptions) string {
	var b strings.Builder
	if hint := strings.TrimSpace(opts.BubbleHint); hint != "" {
		fmt.Fprintf(&b, "Focus on balloons: %s. ", hint)
	} else {
		b.WriteString("Use existing speech balloons. ")
	}
	fmt.Fprintf(&b, "Read all speech/text in the image, translate to %s, and replace with natural, "+
		"concise manga typesetting. Preserve art, faces, and backgrounds; avoid redraw artifacts. ",
		orDefault(opts.TargetLanguage, DefaultTargetLanguage))
	b.WriteString(orDefault(opts.StyleHint, DefaultAutoStyle))
	return b.String()
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
