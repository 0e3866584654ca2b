package httpapi

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultListenAddr      = ":8080"
	defaultAllowedOrigin   = "http://localhost:8000"
	defaultShutdownTimeout = 5 * time.Second
	defaultMaxImportBytes  = 10 << 20
)

// Config aggregates runtime settings for the book HTTP API.
type Config struct {
	ListenAddr      string
	AllowedOrigins  []string
	AuthSigningKey  string
	AuthIssuer      string
	ShutdownTimeout time.Duration
	MaxImportBytes  int64
}

// Validate fills defaults and rejects unusable values.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.MaxImportBytes <= 0 {
		cfg.MaxImportBytes = defaultMaxImportBytes
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("listen addr is required")
	}
	if strings.TrimSpace(cfg.AuthIssuer) != "" && len(cfg.AuthSigningKey) == 0 {
		return fmt.Errorf("jwt signing key is required when an issuer is set")
	}
	return nil
}

// AuthEnabled reports whether /api requires a bearer token.
func (cfg Config) AuthEnabled() bool {
	return len(cfg.AuthSigningKey) > 0
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
