package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// envLocations are tried in order of preference
var envLocations = []string{
	".env",        // Current directory
	".env.local",  // Local override
	"config/.env", // Config directory
}

// LoadEnv loads environment variables from a .env file. Variables already set
// in the process environment are kept.
func LoadEnv(filename string) error {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := godotenv.Load(filename); err != nil {
		return fmt.Errorf("error loading %s file: %w", filename, err)
	}

	slog.Debug("loaded environment file", "file", filename)
	return nil
}

// LoadEnvWithFallback loads the first .env file found in the standard locations.
// Finding none is not an error.
func LoadEnvWithFallback() error {
	for _, location := range envLocations {
		err := LoadEnv(location)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return err
	}

	slog.Debug("no .env files found in standard locations, using system environment only")
	return nil
}
