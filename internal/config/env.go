package config

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first one that exists is loaded.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads KEY=VALUE pairs from the first .env file found.
// Variables already set in the process environment are not overwritten.
func loadEnvFile() error {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
		slog.Debug("Loaded environment variables", slog.String("path", path))
		return nil
	}
	return errors.New("no .env file found")
}
