package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// EnvForgeToken is consulted when metadata/publish auth omits an explicit token.
const EnvForgeToken = "CONFPRESS_FORGE_TOKEN"

// LoadEnvFiles loads environment variables from .env/.env.local files.
// It attempts each supported filename in order and stops at the first
// successfully parsed file. Existing process environment variables are not
// overwritten (godotenv.Load semantics).
func LoadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load env file", "path", envPath, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", envPath)
		return
	}
}

// ResolveToken returns the effective token for an auth config, falling back
// to the CONFPRESS_FORGE_TOKEN environment variable.
func ResolveToken(auth *AuthConfig) string {
	if auth != nil && auth.Token != "" {
		return auth.Token
	}
	return os.Getenv(EnvForgeToken)
}
