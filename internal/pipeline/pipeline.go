// Package pipeline runs panel localization: either rewrite-then-typeset or
// a single auto-localize call.
package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/oukeidos/nyamanga/internal/embedder"
	"github.com/oukeidos/nyamanga/internal/gemini"
	"github.com/oukeidos/nyamanga/internal/logger"
	"github.com/oukeidos/nyamanga/internal/openai"
	"github.com/oukeidos/nyamanga/internal/panels"
)

// Embedder is the subset of *embedder.MangaEmbedder the pipeline drives.
type Embedder interface {
	RewriteDialogue(ctx context.Context, sourceText string, opts embedder.RewriteOptions) (*embedder.DialogueRewriteResult, error)
	EmbedText(ctx context.Context, imagePath, text string, opts embedder.EmbedOptions) (*embedder.EmbedResult, error)
	AutoLocalize(ctx context.Context, imagePath string, opts embedder.AutoOptions) (*embedder.EmbedResult, error)
}

// TypesettingPipeline wires config, transport and embedder together.
type TypesettingPipeline struct {
	cfg      config.ApiConfig
	client   *openai.Client
	embedder Embedder

	// owned are closed by Close, in order.
	owned     []io.Closer
	closeOnce sync.Once
	closeErr  error
}

type options struct {
	client   *openai.Client
	chat     embedder.ChatCompleter
	embedder Embedder
}

type Option func(*options)

// WithClient uses an existing client. The pipeline does not close it.
func WithClient(c *openai.Client) Option {
	return func(o *options) { o.client = c }
}

// WithChat overrides the dialogue rewrite backend. The pipeline does not close it.
func WithChat(c embedder.ChatCompleter) Option {
	return func(o *options) { o.chat = c }
}

// WithEmbedder replaces the embedder entirely.
func WithEmbedder(e Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// New validates cfg and builds a pipeline. Without WithClient a client is
// created and owned by the pipeline.
func New(cfg config.ApiConfig, opts ...Option) (*TypesettingPipeline, error) {
	cfg, notes := cfg.Normalize()
	for _, note := range notes {
		logger.Debug("config normalized", "detail", note)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.embedder == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	p := &TypesettingPipeline{cfg: cfg, client: o.client, embedder: o.embedder}
	if p.embedder != nil {
		return p, nil
	}
	if p.client == nil {
		p.client = openai.NewClient(cfg)
		p.owned = append(p.owned, p.client)
	}

	chat := o.chat
	if chat == nil {
		chat = p.client
		if cfg.ChatProvider == config.ProviderGemini {
			g, err := gemini.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.ChatModel, cfg.RequestTimeout)
			if err != nil {
				p.Close()
				return nil, err
			}
			p.owned = append(p.owned, g)
			chat = g
		}
	}
	p.embedder = embedder.New(chat, p.client, cfg)
	return p, nil
}

// Config returns the normalized config the pipeline was built with.
func (p *TypesettingPipeline) Config() config.ApiConfig { return p.cfg }

// Embedder exposes the underlying embedder for single-step operations.
func (p *TypesettingPipeline) Embedder() Embedder { return p.embedder }

// Client returns the transport client, or nil when built WithEmbedder.
func (p *TypesettingPipeline) Client() *openai.Client { return p.client }

// LocalizePanel localizes one panel. Errors from the embedder and transport
// are returned unchanged; nothing is retried.
func (p *TypesettingPipeline) LocalizePanel(ctx context.Context, req PanelRequest) (*PanelResult, error) {
	req, _ = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := panels.CheckFile(req.ImagePath); err != nil {
		return nil, err
	}

	mode := req.Mode()
	logger.Info("Localizing panel", "image", req.ImagePath, "mode", mode, "target", req.TargetLanguage)

	if mode == ModeAuto {
		res, err := p.embedder.AutoLocalize(ctx, req.ImagePath, embedder.AutoOptions{
			TargetLanguage: req.TargetLanguage,
			BubbleHint:     req.BubbleHint,
			MaskPath:       req.MaskPath,
			StyleHint:      req.StyleHint,
		})
		if err != nil {
			return nil, err
		}
		return &PanelResult{
			Mode:             ModeAuto,
			EditedImageB64:   res.ImageB64,
			DialogueResponse: openai.Response{},
			ImageResponse:    res.RawResponse,
		}, nil
	}

	dialogue, err := p.embedder.RewriteDialogue(ctx, req.SourceText, embedder.RewriteOptions{
		TargetLanguage: req.TargetLanguage,
		Tone:           req.Tone,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("dialogue rewritten", "chars", len([]rune(dialogue.Text)))

	res, err := p.embedder.EmbedText(ctx, req.ImagePath, dialogue.Text, embedder.EmbedOptions{
		BubbleHint: req.BubbleHint,
		MaskPath:   req.MaskPath,
		StyleHint:  req.StyleHint,
	})
	if err != nil {
		return nil, err
	}
	return &PanelResult{
		Mode:             ModeTwoStep,
		RewrittenText:    dialogue.Text,
		EditedImageB64:   res.ImageB64,
		DialogueResponse: dialogue.RawResponse,
		ImageResponse:    res.RawResponse,
	}, nil
}

// Close releases everything the pipeline created. It is idempotent.
func (p *TypesettingPipeline) Close() error {
	p.closeOnce.Do(func() {
		var errs []error
		for _, c := range p.owned {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}
