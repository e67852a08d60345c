package panels

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/oukeidos/nyamanga/internal/apperrors"
)

var (
	ErrFolderNotFound = errors.New("folder not found")
	ErrNoImages       = errors.New("no images found")
	ErrNotImage       = errors.New("unsupported image type")
)

// Extensions lists the accepted panel formats, lower case with dot.
var Extensions = []string{".png", ".jpg", ".jpeg", ".webp"}

func IsImage(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// CheckFile checks that path is a readable regular file. The format is left
// to the API.
func CheckFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return apperrors.New(apperrors.KindIO, "No image selected.", fs.ErrNotExist)
	}
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.Newf(apperrors.KindIO, err, "Image not found: %s", path)
	}
	if !info.Mode().IsRegular() {
		return apperrors.Newf(apperrors.KindIO, fmt.Errorf("%s is not a regular file", path), "Not an image file: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return apperrors.Newf(apperrors.KindIO, err, "Cannot read image: %s", path)
	}
	return f.Close()
}

// ValidateImage is CheckFile plus the extension filter used by the pickers.
func ValidateImage(path string) error {
	if err := CheckFile(path); err != nil {
		return err
	}
	if !IsImage(path) {
		return apperrors.Newf(apperrors.KindIO, ErrNotImage, "Unsupported image type %q (use %s).", filepath.Ext(path), strings.Join(Extensions, ", "))
	}
	return nil
}

// ListImages returns the panel images directly inside dir, sorted by name.
// Outputs from earlier runs are skipped.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Newf(apperrors.KindIO, ErrFolderNotFound, "Folder not found: %s", dir)
		}
		return nil, apperrors.Newf(apperrors.KindIO, err, "Cannot read folder: %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) || IsLocalized(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	if len(out) == 0 {
		return nil, apperrors.Newf(apperrors.KindIO, ErrNoImages, "No images found in %s.", dir)
	}
	return out, nil
}
