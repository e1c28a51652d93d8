package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"ENVIRONMENT", "PORT", "DATABASE_URL", "GEMINI_API_KEY", "GEMINI_MODEL",
		"LOCAL_LLM_URL", "LOCAL_LLM_MODEL", "MEAL_GENERATOR", "FRIDGE_BACKEND_URL",
		"SNAPSHOT_DIR", "LOG_FILE", "ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, GeneratorNone, cfg.MealGenerator)
	assert.Equal(t, "http://localhost:8000", cfg.FridgeBackendURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": "9090", "meal_generator": "local", "DATABASE_URL": "sqlite://nutriflow.db"}`), 0644))
	t.Setenv("PORT", "7070")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, GeneratorLocal, cfg.MealGenerator)
	assert.Equal(t, "sqlite://nutriflow.db", cfg.DatabaseURL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoad_GeminiNeedsKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEAL_GENERATOR", "Gemini")

	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("GEMINI_API_KEY", "key")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, GeneratorGemini, cfg.MealGenerator)
}

func TestLoad_UnknownGenerator(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEAL_GENERATOR", "gpt")

	_, err := Load("")
	assert.Error(t, err)
}
