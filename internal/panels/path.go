// Package panels finds panel images on disk and names their outputs.
package panels

import (
	"path/filepath"
	"strings"

	"github.com/oukeidos/nyamanga/internal/files"
)

// OutputSuffix is appended to the stem of a localized panel.
const OutputSuffix = "_localized"

// OutputPath returns {dir}/{stem}_localized{ext}. Images without a supported
// extension get .png, since the API returns PNG data.
func OutputPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	stem := strings.TrimSuffix(imagePath, ext)
	if !IsImage(imagePath) {
		stem, ext = imagePath, ".png"
	}
	return stem + OutputSuffix + ext
}

// SafeOutputPath is OutputPath moved aside from existing files.
func SafeOutputPath(imagePath string) (string, error) {
	path, _, err := files.SafePath(OutputPath(imagePath))
	return path, err
}

// IsLocalized reports whether name looks like a file produced by OutputPath,
// including collision variants such as page_localized_2.png.
func IsLocalized(name string) bool {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if strings.HasSuffix(stem, OutputSuffix) {
		return true
	}
	i := strings.LastIndex(stem, OutputSuffix+"_")
	return i >= 0 && i+len(OutputSuffix)+1 < len(stem)
}
