package main

import (
	"strings"

	"fyne.io/fyne/v2"

	"github.com/oukeidos/nyamanga/internal/auth"
	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/oukeidos/nyamanga/internal/embedder"
	"github.com/oukeidos/nyamanga/internal/logger"
	"github.com/oukeidos/nyamanga/internal/pipeline"
)

// Preference keys. The API key is never stored here.
const (
	prefBaseURL     = "BaseURL"
	prefChatModel   = "ChatModel"
	prefImageModel  = "ImageModel"
	prefUILang      = "UILang"
	prefDarkMode    = "DarkMode"
	prefTargetLang  = "TargetLang"
	prefTone        = "Tone"
	prefConcurrency = "Concurrency"
	prefLastFolder  = "LastFolder"
)

// AppConfig is the GUI's persisted settings.
type AppConfig struct {
	BaseURL     string
	ChatModel   string
	ImageModel  string
	UILang      string
	DarkMode    bool
	TargetLang  string
	Tone        string
	Concurrency int
	LastFolder  string
}

// defaultAppConfig seeds settings from the environment, like the CLI.
func defaultAppConfig() AppConfig {
	env := config.WithEnv("")
	return AppConfig{
		BaseURL:     env.BaseURL,
		ChatModel:   env.ChatModel,
		ImageModel:  env.ImageModel,
		UILang:      langZH,
		TargetLang:  embedder.DefaultTargetLanguage,
		Tone:        embedder.DefaultTone,
		Concurrency: pipeline.DefaultConcurrency,
	}
}

func loadConfig(prefs fyne.Preferences) AppConfig {
	def := defaultAppConfig()
	cfg := AppConfig{
		BaseURL:     prefs.StringWithFallback(prefBaseURL, def.BaseURL),
		ChatModel:   prefs.StringWithFallback(prefChatModel, def.ChatModel),
		ImageModel:  prefs.StringWithFallback(prefImageModel, def.ImageModel),
		UILang:      normalizeUILang(prefs.StringWithFallback(prefUILang, def.UILang)),
		DarkMode:    prefs.BoolWithFallback(prefDarkMode, false),
		TargetLang:  prefs.StringWithFallback(prefTargetLang, def.TargetLang),
		Tone:        prefs.StringWithFallback(prefTone, def.Tone),
		Concurrency: prefs.IntWithFallback(prefConcurrency, def.Concurrency),
		LastFolder:  prefs.String(prefLastFolder),
	}
	if clamped, changed := pipeline.ClampConcurrency(cfg.Concurrency); changed {
		logger.Warn("Concurrency clamped", "requested", cfg.Concurrency, "effective", clamped, "max", pipeline.MaxConcurrency)
		cfg.Concurrency = clamped
		prefs.SetInt(prefConcurrency, cfg.Concurrency)
	}
	return cfg
}

func saveConfig(prefs fyne.Preferences, cfg AppConfig) {
	prefs.SetString(prefBaseURL, cfg.BaseURL)
	prefs.SetString(prefChatModel, cfg.ChatModel)
	prefs.SetString(prefImageModel, cfg.ImageModel)
	prefs.SetString(prefUILang, cfg.UILang)
	prefs.SetBool(prefDarkMode, cfg.DarkMode)
	prefs.SetString(prefTargetLang, cfg.TargetLang)
	prefs.SetString(prefTone, cfg.Tone)
	prefs.SetInt(prefConcurrency, cfg.Concurrency)
	prefs.SetString(prefLastFolder, cfg.LastFolder)
}

// apiConfig builds the immutable snapshot for one run. Settings override
// the environment; empty settings keep the environment or default value.
func (c AppConfig) apiConfig(apiKey string) config.ApiConfig {
	cfg := config.WithEnv(apiKey)
	if v := strings.TrimSpace(c.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(c.ChatModel); v != "" {
		cfg.ChatModel = v
	}
	if v := strings.TrimSpace(c.ImageModel); v != "" {
		cfg.ImageModel = v
	}
	if cfg.ChatProvider == config.ProviderGemini && cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey, _ = auth.Resolve(auth.AccountGemini, true)
	}
	cfg, _ = cfg.Normalize()
	return cfg
}

// keySource is where the GUI found the API key.
type keySource string

const (
	keyFromSession  keySource = "session"
	keyFromEnv      keySource = "env"
	keyFromKeychain keySource = "keychain"
)

// resolveKey picks the key typed this session, then the environment, then
// the keychain.
func resolveKey(session string, envKey func() (string, string), keychain func() (string, error)) (string, keySource) {
	if k := strings.TrimSpace(session); k != "" {
		return k, keyFromSession
	}
	if k, _ := envKey(); k != "" {
		return k, keyFromEnv
	}
	if k, err := keychain(); err == nil && k != "" {
		return k, keyFromKeychain
	}
	return "", ""
}
