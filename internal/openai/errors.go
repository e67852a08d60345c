package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/httpclient"
)

// APIError is a non-2xx response. It is the Cause of the apperrors value
// returned by client methods, so use errors.As to reach it.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func newStatusError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Body: string(body)}
	msg := fmt.Sprintf("API request failed (%d): %s", status, strings.TrimSpace(httpclient.Snippet(body)))

	switch {
	case status == http.StatusTooManyRequests:
		return apperrors.New(apperrors.KindRateLimit, msg, apiErr)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.New(apperrors.KindAuth, msg, apiErr)
	case status == http.StatusNotFound && isModelNotFound(body):
		return apperrors.New(apperrors.KindBadRequest, msg+" (the model does not exist or you do not have access to it)", apiErr)
	case status >= http.StatusInternalServerError:
		return apperrors.New(apperrors.KindTransient, msg, apiErr)
	default:
		return apperrors.New(apperrors.KindBadRequest, msg, apiErr)
	}
}

func isModelNotFound(body []byte) bool {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false
	}
	needle := strings.ToLower(fmt.Sprint(env.Error.Code) + " " + env.Error.Type + " " + env.Error.Message)
	return strings.Contains(needle, "model_not_found") ||
		strings.Contains(needle, "does not exist or you do not have access to it")
}

// IsModelNotFound reports whether err is a 404 caused by an unknown model.
func IsModelNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusNotFound && isModelNotFound([]byte(apiErr.Body))
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return nil, false
	}
	return apiErr, true
}
