package gemini

import (
	"errors"
	"strings"
	"testing"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"google.golang.org/api/googleapi"
)

func TestClassifyGeminiError_CodeMapping(t *testing.T) {
	tests := []struct {
		code int
		want apperrors.Kind
	}{
		{400, apperrors.KindBadRequest},
		{401, apperrors.KindAuth},
		{403, apperrors.KindAuth},
		{404, apperrors.KindBadRequest},
		{429, apperrors.KindRateLimit},
		{503, apperrors.KindTransient},
	}
	for _, tt := range tests {
		assertErrorKind(t, classifyGeminiError(&googleapi.Error{Code: tt.code}), tt.want)
	}
}

func TestClassifyGeminiError_Unknown(t *testing.T) {
	assertErrorKind(t, classifyGeminiError(errors.New("boom")), apperrors.KindTransient)
	if classifyGeminiError(nil) != nil {
		t.Fatal("nil in, nil out")
	}
}

func TestClassifyGeminiError_DoesNotExposeRawMessage(t *testing.T) {
	err := classifyGeminiError(errors.New("SECRET_DIALOGUE_LINE"))
	if strings.Contains(err.Error(), "SECRET_DIALOGUE_LINE") {
		t.Fatalf("expected safe message, got %q", err.Error())
	}
}

func assertErrorKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperrors.Error, got %T", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("expected kind %s, got %s", kind, appErr.Kind)
	}
}
