// Package config holds the connection settings for the image/chat API.
package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/oukeidos/nyamanga/internal/apperrors"
)

const (
	DefaultBaseURL    = "https://api.ephone.chat/v1"
	DefaultChatModel  = "nano-banana-2"
	DefaultImageModel = "nano-banana-2"
	DefaultTimeout    = 30 * time.Second

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Environment variable names.
const (
	EnvAPIKey       = "NYAMANGA_API_KEY"
	EnvEphoneAPIKey = "EPHONE_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvBaseURL      = "NYAMANGA_BASE_URL"
	EnvChatModel    = "NYAMANGA_CHAT_MODEL"
	EnvImageModel   = "NYAMANGA_IMAGE_MODEL"
	EnvTimeout      = "NYAMANGA_TIMEOUT"
	EnvChatProvider = "NYAMANGA_CHAT_PROVIDER"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
)

// KeyEnvVars lists the API key variables in lookup order.
var KeyEnvVars = []string{EnvAPIKey, EnvEphoneAPIKey, EnvOpenAIAPIKey}

// ErrMissingCredential is returned when no API key is configured.
var ErrMissingCredential = errors.New("missing API key: set " + strings.Join(KeyEnvVars, "/"))

// ApiConfig is an immutable value describing one API endpoint.
// Build a new one instead of mutating a config in use.
type ApiConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	ImageModel     string
	RequestTimeout time.Duration

	// ChatProvider selects the backend for dialogue rewriting.
	// Empty means ProviderOpenAI.
	ChatProvider string
	GeminiAPIKey string
}

// Default returns a config filled with defaults for the given key.
func Default(apiKey string) ApiConfig {
	return ApiConfig{
		APIKey:         strings.TrimSpace(apiKey),
		BaseURL:        DefaultBaseURL,
		ChatModel:      DefaultChatModel,
		ImageModel:     DefaultImageModel,
		RequestTimeout: DefaultTimeout,
		ChatProvider:   ProviderOpenAI,
	}
}

// LookupKey returns the first non-empty API key variable and its name.
func LookupKey() (string, string) {
	for _, name := range KeyEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, name
		}
	}
	return "", ""
}

// FromEnv reads the config from the process environment.
func FromEnv() (ApiConfig, error) {
	key, _ := LookupKey()
	if key == "" {
		return ApiConfig{}, apperrors.New(apperrors.KindConfig, ErrMissingCredential.Error(), ErrMissingCredential)
	}
	return WithEnv(key), nil
}

// WithEnv is Default(apiKey) with every non-key setting read from the
// environment. It is used when the key came from somewhere else.
func WithEnv(apiKey string) ApiConfig {
	cfg := Default(apiKey)
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvChatModel)); v != "" {
		cfg.ChatModel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvImageModel)); v != "" {
		cfg.ImageModel = v
	}
	cfg.RequestTimeout = ParseTimeout(os.Getenv(EnvTimeout))
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvChatProvider))); v != "" {
		cfg.ChatProvider = v
	}
	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv(EnvGeminiAPIKey))
	return cfg
}

// maxTimeoutSeconds is the largest value time.Duration can hold.
const maxTimeoutSeconds = float64(math.MaxInt64) / float64(time.Second)

// ParseTimeout accepts seconds ("45", "12.5") or a Go duration ("2m").
// Empty, unparsable and non-positive values yield DefaultTimeout.
func ParseTimeout(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultTimeout
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(secs) || secs <= 0 || secs >= maxTimeoutSeconds {
			return DefaultTimeout
		}
		return time.Duration(secs * float64(time.Second))
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	return DefaultTimeout
}

// Normalize trims fields, fills empty ones with defaults and reports adjustments.
func (c ApiConfig) Normalize() (ApiConfig, []string) {
	var notes []string
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.GeminiAPIKey = strings.TrimSpace(c.GeminiAPIKey)

	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
		notes = append(notes, "base URL empty, using "+DefaultBaseURL)
	}
	c.BaseURL = base

	if c.ChatModel = strings.TrimSpace(c.ChatModel); c.ChatModel == "" {
		c.ChatModel = DefaultChatModel
		notes = append(notes, "chat model empty, using "+DefaultChatModel)
	}
	if c.ImageModel = strings.TrimSpace(c.ImageModel); c.ImageModel == "" {
		c.ImageModel = DefaultImageModel
		notes = append(notes, "image model empty, using "+DefaultImageModel)
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultTimeout
		notes = append(notes, fmt.Sprintf("request timeout not set, using %s", DefaultTimeout))
	}
	c.ChatProvider = strings.ToLower(strings.TrimSpace(c.ChatProvider))
	if c.ChatProvider == "" {
		c.ChatProvider = ProviderOpenAI
	}
	return c, notes
}

// Validate checks the config before any network use.
func (c ApiConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return apperrors.New(apperrors.KindConfig, ErrMissingCredential.Error(), ErrMissingCredential)
	}
	if c.RequestTimeout <= 0 {
		return apperrors.Newf(apperrors.KindConfig, nil, "request timeout must be positive, got %s", c.RequestTimeout)
	}
	u, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.Newf(apperrors.KindConfig, err, "invalid base URL %q", c.BaseURL)
	}
	switch c.ChatProvider {
	case "", ProviderOpenAI:
	case ProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return apperrors.Newf(apperrors.KindConfig, nil, "chat provider %q requires %s", ProviderGemini, EnvGeminiAPIKey)
		}
	default:
		return apperrors.Newf(apperrors.KindConfig, nil, "unknown chat provider %q", c.ChatProvider)
	}
	return nil
}

// Endpoint joins the base URL and path with exactly one slash.
func (c ApiConfig) Endpoint(path string) string {
	return strings.TrimRight(strings.TrimSpace(c.BaseURL), "/") + "/" + strings.TrimLeft(path, "/")
}

// String renders the config with the key masked.
func (c ApiConfig) String() string {
	return fmt.Sprintf("ApiConfig{BaseURL:%s ChatModel:%s ImageModel:%s Timeout:%s Key:%s}",
		c.BaseURL, c.ChatModel, c.ImageModel, c.RequestTimeout, MaskKey(c.APIKey))
}

// MaskKey keeps the last four characters of a key.
func MaskKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "(none)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
