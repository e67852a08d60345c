package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"slices"

	"github.com/oukeidos/nyamanga/internal/apperrors"
)

// EditRequest is an image edit call. MaskPath is optional; empty Model and
// ResponseFormat fall back to the configured image model and b64_json.
type EditRequest struct {
	ImagePath      string
	MaskPath       string
	Prompt         string
	Model          string
	ResponseFormat string
	Extra          map[string]any
}

// GenerateRequest is a text-to-image call.
type GenerateRequest struct {
	Prompt         string
	Model          string
	ResponseFormat string
	Size           string
	Extra          map[string]any
}

// EditImage posts a multipart form to {base}/images/edits.
func (c *Client) EditImage(ctx context.Context, req EditRequest) (Response, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	fields := map[string]any{
		"prompt":          req.Prompt,
		"model":           orDefault(req.Model, c.cfg.ImageModel),
		"response_format": orDefault(req.ResponseFormat, DefaultResponseFormat),
	}
	maps.Copy(fields, req.Extra)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeFilePart(mw, "image", req.ImagePath); err != nil {
		return nil, err
	}
	if req.MaskPath != "" {
		if err := writeFilePart(mw, "mask", req.MaskPath); err != nil {
			return nil, err
		}
	}
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if err := mw.WriteField(key, fmt.Sprint(fields[key])); err != nil {
			return nil, apperrors.New(apperrors.KindBadRequest, "Failed to encode request.", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, apperrors.New(apperrors.KindBadRequest, "Failed to encode request.", err)
	}
	return c.post(ctx, editPath, mw.FormDataContentType(), &buf)
}

// GenerateImage posts JSON to {base}/images/generations.
func (c *Client) GenerateImage(ctx context.Context, req GenerateRequest) (Response, error) {
	payload := map[string]any{
		"prompt":          req.Prompt,
		"model":           orDefault(req.Model, c.cfg.ImageModel),
		"response_format": orDefault(req.ResponseFormat, DefaultResponseFormat),
	}
	if req.Size != "" {
		payload["size"] = req.Size
	}
	maps.Copy(payload, req.Extra)
	return c.postJSON(ctx, generatePath, payload)
}

func writeFilePart(mw *multipart.Writer, field, path string) error {
	if path == "" {
		return apperrors.Newf(apperrors.KindIO, nil, "No %s file given.", field)
	}
	f, err := os.Open(path)
	if err != nil {
		return apperrors.Newf(apperrors.KindIO, err, "Cannot open %s file %q.", field, path)
	}
	defer f.Close()

	name := filepath.Base(path)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set("Content-Type", contentTypeFor(name))
	part, err := mw.CreatePart(h)
	if err != nil {
		return apperrors.New(apperrors.KindBadRequest, "Failed to encode request.", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return apperrors.Newf(apperrors.KindIO, err, "Cannot read %s file %q.", field, path)
	}
	return nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
