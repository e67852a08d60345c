package gemini

import (
	"errors"
	"fmt"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"google.golang.org/api/googleapi"
)

func classifyGeminiError(err error) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("gemini generate content failed: %w", err)

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return apperrors.New(apperrors.KindTransient, "Gemini request failed due to a temporary network error.", wrapped)
	}
	switch {
	case gerr.Code == 404:
		return apperrors.New(apperrors.KindBadRequest, "Gemini model not found or no access (404).", wrapped)
	case gerr.Code == 401 || gerr.Code == 403:
		return apperrors.Newf(apperrors.KindAuth, wrapped, "Gemini authentication failed (%d).", gerr.Code)
	case gerr.Code == 429:
		return apperrors.New(apperrors.KindRateLimit, "Gemini rate limit exceeded (429). Please try again later.", wrapped)
	case gerr.Code >= 500:
		return apperrors.Newf(apperrors.KindTransient, wrapped, "Gemini service error (%d). Please try again.", gerr.Code)
	default:
		return apperrors.Newf(apperrors.KindBadRequest, wrapped, "Gemini request rejected (%d).", gerr.Code)
	}
}
