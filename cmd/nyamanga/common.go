package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/auth"
	"github.com/oukeidos/nyamanga/internal/cleanup"
	"github.com/oukeidos/nyamanga/internal/config"
	"github.com/oukeidos/nyamanga/internal/files"
	"github.com/oukeidos/nyamanga/internal/logger"
	"github.com/oukeidos/nyamanga/internal/openai"
	"github.com/oukeidos/nyamanga/internal/pipeline"
	"github.com/oukeidos/nyamanga/internal/prompt"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const sourcePrompt = "Terminal Prompt"

var (
	isTerminal   = term.IsTerminal
	getKey       = auth.GetKey
	getEnvKey    = auth.EnvKey
	hasKey       = auth.HasKey
	saveKey      = auth.SaveKey
	deleteKey    = auth.DeleteKey
	promptForKey = auth.PromptForAPIKey
	newConfirmer = prompt.DefaultConfirmer
	newPipeline  = func(cfg config.ApiConfig) (*pipeline.TypesettingPipeline, error) {
		return pipeline.New(cfg)
	}
)

// setup loads .env files and starts logging. It runs before every command.
func setup(cmd *cobra.Command, opts *globalOptions) error {
	var envErr error
	if opts.envFile != "" {
		envErr = config.LoadDotEnv(opts.envFile)
	} else {
		envErr = config.LoadDotEnv()
	}
	if envErr != nil {
		return apperrors.Newf(apperrors.KindConfig, envErr, "Failed to load env file.")
	}

	level := logger.LevelInfo
	if opts.debug {
		level = logger.LevelDebug
	} else if v := os.Getenv("NYAMANGA_LOG_LEVEL"); v != "" {
		parsed, err := logger.ParseLevel(v)
		if err != nil {
			return apperrors.New(apperrors.KindConfig, "", err)
		}
		level = parsed
	}

	var logFileW io.Writer
	if opts.logFile != "" {
		if err := files.RejectSymlinkPath(opts.logFile); err != nil {
			return err
		}
		f, err := os.OpenFile(opts.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cleanup.Register(f.Close)
		logFileW = f
	}
	logger.Init(level, logFileW)
	return nil
}

// resolveAPIKey finds the API key: environment, then the keychain when
// allowed, then a terminal prompt.
func resolveAPIKey(out io.Writer, allowKeychain bool) (string, string, error) {
	if key, name := getEnvKey(auth.AccountAPI); key != "" {
		return key, name, nil
	}

	if allowKeychain {
		key, err := getKey(auth.AccountAPI)
		if err == nil {
			return key, auth.SourceKeychain, nil
		}
		if !errors.Is(err, auth.ErrNotFound) {
			logger.Warn("Keychain lookup failed", "error", err)
		}
	}

	if isTerminal(int(os.Stdin.Fd())) {
		key, err := promptForKey(out, "API Key (press Enter to skip): ")
		if err != nil {
			return "", "", fmt.Errorf("error reading API key: %w", err)
		}
		if key = strings.TrimSpace(key); key != "" {
			return key, sourcePrompt, nil
		}
	}

	hint := "use --allow-keychain"
	if allowKeychain {
		hint = "run 'nyamanga env setup' to store one in the keychain"
	}
	return "", "", apperrors.New(apperrors.KindConfig,
		fmt.Sprintf("API key is required; set %s or %s.", config.EnvAPIKey, hint),
		config.ErrMissingCredential)
}

// loadConfig builds the run config from the environment, the resolved key
// and the global flags.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (config.ApiConfig, error) {
	key, source, err := resolveAPIKey(cmd.ErrOrStderr(), opts.allowKeychain)
	if err != nil {
		return config.ApiConfig{}, err
	}
	logger.Info("Using API Key", "source", source)

	cfg := config.WithEnv(key)
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
	}
	if opts.chatModel != "" {
		cfg.ChatModel = opts.chatModel
	}
	if opts.imageModel != "" {
		cfg.ImageModel = opts.imageModel
	}
	if cfg.ChatProvider == config.ProviderGemini && cfg.GeminiAPIKey == "" {
		if key, src := auth.Resolve(auth.AccountGemini, opts.allowKeychain); key != "" {
			cfg.GeminiAPIKey = key
			logger.Info("Using Gemini API Key", "source", src)
		}
	}

	cfg, notes := cfg.Normalize()
	for _, note := range notes {
		logger.Debug("config normalized", "detail", note)
	}
	if err := cfg.Validate(); err != nil {
		return config.ApiConfig{}, err
	}
	logger.Debug("config", "settings", cfg.String())
	return cfg, nil
}

// openPipeline loads the config and builds a pipeline closed at exit.
func openPipeline(cmd *cobra.Command, opts *globalOptions) (*pipeline.TypesettingPipeline, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	p, err := newPipeline(cfg)
	if err != nil {
		return nil, err
	}
	cleanup.RegisterCloser(p)
	return p, nil
}

// confirmOutput reports whether path may be written. Existing files need -y
// or an interactive yes.
func confirmOutput(cmd *cobra.Command, path string, yes bool) (bool, error) {
	exists, err := files.Exists(path)
	if err != nil {
		return false, apperrors.Newf(apperrors.KindIO, err, "Cannot check output path %s.", path)
	}
	if !exists {
		return true, nil
	}
	ok, err := newConfirmer(cmd.ErrOrStderr()).ConfirmOverwrite(path, yes)
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Skipped: %s already exists.\n", path)
	}
	return ok, nil
}

// runError turns a canceled run into a warning instead of a failure.
func runError(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil && apperrors.IsCanceled(err) {
		logger.Warn("Canceled", "error", err)
		return nil
	}
	if hint := errorHint(err); hint != "" {
		logger.Warn(hint)
	}
	return err
}

// errorHint suggests a next step for errors the user can act on.
func errorHint(err error) string {
	switch {
	case err == nil:
		return ""
	case openai.IsModelNotFound(err):
		return "Model not available: run \"nyamanga models\" and pass --chat-model or --image-model"
	case apperrors.IsRateLimit(err):
		return "Rate limited by the API: lower --concurrency or --qps and try again"
	}
	return ""
}

func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("Cancellation requested")
			cancel()
		case <-ctx.Done():
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, stop
}
