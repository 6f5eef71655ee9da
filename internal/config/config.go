package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Splitting defaults
	DefaultSections int
	Objective       string // "squared" or "absolute"

	// Pseudo-heading detection thresholds. Heuristic knobs; the
	// defaults are documented rather than assumed correct.
	PseudoBoldMaxLen int
	PseudoCapsMaxLen int
	PseudoCapsRatio  float64

	// Diagram defaults
	DiagramDirection string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("DOCSPLIT_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DefaultSections: envInt("DEFAULT_SECTIONS", 3),
		Objective:       envOr("SPLIT_OBJECTIVE", "squared"),

		PseudoBoldMaxLen: envInt("PSEUDO_BOLD_MAX_LEN", 80),
		PseudoCapsMaxLen: envInt("PSEUDO_CAPS_MAX_LEN", 80),
		PseudoCapsRatio:  envFloat("PSEUDO_CAPS_RATIO", 0.8),

		DiagramDirection: envOr("DIAGRAM_DIRECTION", "TD"),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.DefaultSections < 1 {
		cfg.DefaultSections = 3
	}
	if cfg.PseudoBoldMaxLen <= 0 {
		cfg.PseudoBoldMaxLen = 80
	}
	if cfg.PseudoCapsMaxLen <= 0 {
		cfg.PseudoCapsMaxLen = 80
	}
	if cfg.PseudoCapsRatio <= 0 || cfg.PseudoCapsRatio > 1 {
		cfg.PseudoCapsRatio = 0.8
	}

	return cfg
}

// Validate checks the settings required to run the HTTP server.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCSPLIT_API_KEY is required")
	}
	if c.Objective != "squared" && c.Objective != "absolute" {
		return fmt.Errorf("SPLIT_OBJECTIVE must be \"squared\" or \"absolute\", got %q", c.Objective)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
