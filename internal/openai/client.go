// Package openai is a small client for OpenAI-compatible chat and image
// endpoints. Responses are returned as decoded JSON maps so that callers can
// pick the fields they need from providers that extend the schema.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/oukeidos/nyamanga/internal/httpclient"
)

const (
	chatPath     = "chat/completions"
	editPath     = "images/edits"
	generatePath = "images/generations"

	// DefaultResponseFormat asks image endpoints to inline the result.
	DefaultResponseFormat = "b64_json"
)

// ErrClosed is returned by requests issued after Close.
var ErrClosed = errors.New("openai client closed")

// Response is a decoded response body. An empty body decodes to an empty
// Response and a body that is not a JSON object is kept as raw bytes under
// the "data" key.
type Response map[string]any

// Client talks to one API endpoint with one credential. It is safe for
// concurrent use.
type Client struct {
	cfg    config.ApiConfig
	http   *http.Client
	closed atomic.Bool
}

type Option func(*Client)

// WithHTTPClient replaces the session HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a client for cfg. The config is copied; later changes
// by the caller have no effect.
func NewClient(cfg config.ApiConfig, opts ...Option) *Client {
	cfg, _ = cfg.Normalize()
	c := &Client{
		cfg:  cfg,
		http: httpclient.NewClient(cfg.RequestTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the client's config.
func (c *Client) Config() config.ApiConfig {
	return c.cfg
}

// Close releases pooled connections. Calling it more than once is harmless.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) ready() error {
	if c.closed.Load() {
		return apperrors.New(apperrors.KindConfig, "API client is closed.", ErrClosed)
	}
	return c.cfg.Validate()
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.New(apperrors.KindBadRequest, "Failed to encode request.", fmt.Errorf("marshal %s payload: %w", path, err))
	}
	return c.post(ctx, path, "application/json", bytes.NewReader(data))
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (Response, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	url := c.cfg.Endpoint(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, apperrors.New(apperrors.KindConfig, "Failed to create request.", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	raw, resp, err := httpclient.DoAndRead(c.http, req)
	if err != nil {
		if ctxErr := apperrors.FromContext(err); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, httpclient.ErrBodyTooLarge) {
			return nil, apperrors.New(apperrors.KindValidation, "API response was too large.", err)
		}
		return nil, apperrors.New(
			apperrors.KindTransient,
			"API request failed due to a temporary network error.",
			fmt.Errorf("POST %s: %w", url, err),
		)
	}

	slog.Debug("API response", "endpoint", path, "status", resp.StatusCode, "bytes", len(raw), "elapsed", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newStatusError(resp.StatusCode, raw)
	}
	return decodeResponse(raw), nil
}

func decodeResponse(raw []byte) Response {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Response{}
	}
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return Response{"data": raw}
	}
	return out
}
