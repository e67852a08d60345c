package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv seeds the environment from .env files. Variables that are
// already set win. With no paths, ./.env is loaded if it exists; explicit
// paths must exist.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return godotenv.Load()
	}
	return godotenv.Load(paths...)
}
