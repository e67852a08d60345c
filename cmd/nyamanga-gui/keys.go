package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oukeidos/nyamanga/internal/auth"
)

type keySaveResult struct {
	APISaved    bool
	GeminiSaved bool
}

// saveKeysToKeychain stores each non-empty key, trying both even when one fails.
func saveKeysToKeychain(apiKey, geminiKey string, saveFn func(auth.Account, string) error) (keySaveResult, error) {
	result := keySaveResult{}
	var errs []error
	if strings.TrimSpace(apiKey) != "" {
		if err := saveFn(auth.AccountAPI, apiKey); err != nil {
			errs = append(errs, fmt.Errorf("failed to save API key: %w", err))
		} else {
			result.APISaved = true
		}
	}
	if strings.TrimSpace(geminiKey) != "" {
		if err := saveFn(auth.AccountGemini, geminiKey); err != nil {
			errs = append(errs, fmt.Errorf("failed to save Gemini key: %w", err))
		} else {
			result.GeminiSaved = true
		}
	}
	return result, errors.Join(errs...)
}

func resetKeysInKeychain(deleteFn func(auth.Account) error) error {
	var errs []error
	for _, account := range auth.Accounts {
		if err := deleteFn(account); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", account.Label(), err))
		}
	}
	return errors.Join(errs...)
}
