package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the configuration carries everything the current
// environment needs. Development and test tolerate missing optional
// integrations; production requires the full set.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	}
	if cfg.JWTRefreshSecret == "" {
		errors = append(errors, "JWT_REFRESH_SECRET is required")
	}
	if cfg.UploadChunkMB <= 0 {
		errors = append(errors, "UPLOAD_CHUNK_MB must be positive")
	}

	if IsProduction() {
		if cfg.DBPassword == "" {
			errors = append(errors, "DB_PASSWORD is required in production")
		}
		if cfg.GeminiAPIKey == "" {
			errors = append(errors, "GEMINI_API_KEY is required in production")
		}
		if cfg.GoogleClientID == "" {
			errors = append(errors, "GOOGLE_CLIENT_ID is required in production")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
