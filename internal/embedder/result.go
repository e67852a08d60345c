package embedder

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/oukeidos/nyamanga/internal/apperrors"
	"github.com/oukeidos/nyamanga/internal/files"
	"github.com/oukeidos/nyamanga/internal/openai"
)

// ErrUnrecognizedImageShape is returned when data[0] is present but is
// neither a string nor an object with b64_json/base64.
var ErrUnrecognizedImageShape = errors.New("unrecognized image payload shape")

// ErrNoImage is returned by Save and Decode when the response held no image.
var ErrNoImage = errors.New("no image returned")

type DialogueRewriteResult struct {
	Text        string
	RawResponse openai.Response
}

type EmbedResult struct {
	ImageB64    string
	RawResponse openai.Response
}

// Decode returns the image bytes.
func (r *EmbedResult) Decode() ([]byte, error) {
	return DecodeImage(r.ImageB64)
}

// Save decodes the image and writes it to path.
func (r *EmbedResult) Save(path string) error {
	data, err := r.Decode()
	if err != nil {
		return err
	}
	if err := files.AtomicWrite(path, data, 0o644); err != nil {
		return apperrors.Newf(apperrors.KindIO, err, "Failed to write image to %s.", path)
	}
	return nil
}

// DecodeImage decodes standard base64, tolerating a data URL prefix and
// missing padding.
func DecodeImage(b64 string) ([]byte, error) {
	s := strings.TrimSpace(b64)
	if s == "" {
		return nil, apperrors.New(apperrors.KindDecode, "The API returned no image.", ErrNoImage)
	}
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return nil, apperrors.New(apperrors.KindDecode, "", fmt.Errorf("decode image: %w", err))
	}
	return data, nil
}

// ImageShape names the form data[0] arrived in.
type ImageShape string

const (
	ShapeNone    ImageShape = ""
	ShapeB64JSON ImageShape = "b64_json"
	ShapeBase64  ImageShape = "base64"
	ShapeString  ImageShape = "string"
)

// ImagePayload is data[0] normalized to one shape.
type ImagePayload struct {
	Shape ImageShape
	B64   string
}

// FirstImage extracts the base64 image from data[0]. A response without
// data, or with an empty list, yields an empty payload and no error.
func FirstImage(resp openai.Response) (ImagePayload, error) {
	raw, ok := resp["data"]
	if !ok || raw == nil {
		return ImagePayload{}, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return ImagePayload{}, apperrors.New(apperrors.KindValidation, "Unexpected image response from the API.",
			fmt.Errorf("%w: data is %T", ErrUnrecognizedImageShape, raw))
	}
	if len(list) == 0 {
		return ImagePayload{}, nil
	}
	switch v := list[0].(type) {
	case string:
		return ImagePayload{Shape: ShapeString, B64: v}, nil
	case map[string]any:
		if s, ok := v["b64_json"].(string); ok && s != "" {
			return ImagePayload{Shape: ShapeB64JSON, B64: s}, nil
		}
		if s, ok := v["base64"].(string); ok && s != "" {
			return ImagePayload{Shape: ShapeBase64, B64: s}, nil
		}
		return ImagePayload{}, nil
	default:
		return ImagePayload{}, apperrors.New(apperrors.KindValidation, "Unexpected image response from the API.",
			fmt.Errorf("%w: data[0] is %T", ErrUnrecognizedImageShape, v))
	}
}

// FirstMessageContent returns choices[0].message.content trimmed, or "".
func FirstMessageContent(resp openai.Response) string {
	choices, ok := resp["choices"].([]any)
	if !ok || len(choices) == 0 {
		return ""
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return ""
	}
	msg, ok := choice["message"].(map[string]any)
	if !ok {
		return ""
	}
	content, _ := msg["content"].(string)
	return strings.TrimSpace(content)
}
