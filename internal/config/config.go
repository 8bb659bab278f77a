// Package config loads analyzer settings from the environment.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

type Config struct {
	// Model artifacts. Empty paths disable the component.
	HeroModelPath  string
	ProbaModelPath string

	// OCR
	OCRWorkers     int
	OCRLanguage    string
	TessdataPrefix string

	// Per-call deadline; zero means none.
	CallTimeout time.Duration

	// Skip classification of the enemy team.
	OwnTeamOnly bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		HeroModelPath:  getEnv("SCOREBOARD_HERO_MODEL", ""),
		ProbaModelPath: getEnv("SCOREBOARD_PROBA_MODEL", ""),

		OCRWorkers:     getEnvInt("SCOREBOARD_OCR_WORKERS", runtime.NumCPU()),
		OCRLanguage:    getEnv("SCOREBOARD_OCR_LANG", "eng"),
		TessdataPrefix: getEnv("SCOREBOARD_TESSDATA", ""),

		CallTimeout: getEnvDuration("SCOREBOARD_CALL_TIMEOUT", 0),
		OwnTeamOnly: getEnvBool("SCOREBOARD_OWN_TEAM_ONLY", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.OCRWorkers < 1 {
		return fmt.Errorf("OCR workers must be positive, got %d", c.OCRWorkers)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("call timeout must not be negative, got %s", c.CallTimeout)
	}
	if c.OCRLanguage == "" {
		return fmt.Errorf("OCR language must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
