package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Generator names accepted by MealGenerator.
const (
	GeneratorGemini = "gemini"
	GeneratorLocal  = "local"
	GeneratorNone   = "none"
)

// Config represents the application configuration. Values come from an
// optional config.json, then .env, then the process environment.
type Config struct {
	Environment      string   `json:"environment"`
	Port             string   `json:"port"`
	DatabaseURL      string   `json:"DATABASE_URL"`
	GeminiAPIKey     string   `json:"gemini_api_key"`
	GeminiModel      string   `json:"gemini_model"`
	LocalLLMURL      string   `json:"local_llm_url"`
	LocalLLMModel    string   `json:"local_llm_model"`
	MealGenerator    string   `json:"meal_generator"`
	FridgeBackendURL string   `json:"fridge_backend_url"`
	SnapshotDir      string   `json:"snapshot_dir"`
	AllowedOrigins   []string `json:"allowed_origins"`
	LogFile          string   `json:"log_file"`
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads the configuration. path names the optional JSON file; a missing
// file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:      "development",
		Port:             "8080",
		MealGenerator:    GeneratorNone,
		FridgeBackendURL: "http://localhost:8000",
		AllowedOrigins:   []string{"http://localhost:3000"},
	}

	if path != "" {
		configData, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(configData, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	setEnv(&cfg.Environment, "ENVIRONMENT")
	setEnv(&cfg.Port, "PORT")
	setEnv(&cfg.DatabaseURL, "DATABASE_URL")
	setEnv(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	setEnv(&cfg.GeminiModel, "GEMINI_MODEL")
	setEnv(&cfg.LocalLLMURL, "LOCAL_LLM_URL")
	setEnv(&cfg.LocalLLMModel, "LOCAL_LLM_MODEL")
	setEnv(&cfg.MealGenerator, "MEAL_GENERATOR")
	setEnv(&cfg.FridgeBackendURL, "FRIDGE_BACKEND_URL")
	setEnv(&cfg.SnapshotDir, "SNAPSHOT_DIR")
	setEnv(&cfg.LogFile, "LOG_FILE")
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	cfg.MealGenerator = strings.ToLower(strings.TrimSpace(cfg.MealGenerator))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	switch c.MealGenerator {
	case GeneratorNone, GeneratorLocal:
	case GeneratorGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when MEAL_GENERATOR=gemini")
		}
	default:
		return fmt.Errorf("unknown MEAL_GENERATOR %q", c.MealGenerator)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	return nil
}

func setEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
