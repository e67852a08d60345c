package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// maxNumberedSuffix bounds the _1.._N probes before SafePath uses a UUID.
const maxNumberedSuffix = 9

// Exists reports whether path exists. Errors other than not-exist are returned.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// SafePath returns path if it is free, otherwise the first free
// {stem}_1..{stem}_9 variant, otherwise {stem}_{uuid}. The bool reports
// whether the path changed.
func SafePath(path string) (string, bool, error) {
	if path == "" {
		return "", false, fmt.Errorf("path is empty")
	}
	taken, err := Exists(path)
	if err != nil {
		return "", false, err
	}
	if !taken {
		return path, false, nil
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; i <= maxNumberedSuffix; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		taken, err := Exists(candidate)
		if err != nil {
			return "", false, err
		}
		if !taken {
			return candidate, true, nil
		}
	}
	return fmt.Sprintf("%s_%s%s", stem, uniqueSuffix(), ext), true, nil
}

func uniqueSuffix() string {
	if u, err := uuid.NewV7(); err == nil {
		return u.String()
	}
	return uuid.NewString()[:8]
}
