package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maigenai/fingenius/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("WORKER_JOB_TIMEOUT_SECONDS", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-3-opus-20240229", cfg.LLM.Stages.Structured.Model)
	assert.Equal(t, 0.1, cfg.LLM.Stages.Structured.Temperature)
	assert.Equal(t, "claude-3-haiku-20240307", cfg.LLM.Stages.Transactions.Model)
	assert.Equal(t, 0.2, cfg.LLM.Stages.Insights.Temperature)
	assert.Equal(t, time.Duration(0), cfg.Worker.JobTimeout)
	assert.Equal(t, []string{"eng"}, cfg.OCR.Languages)
}

func TestLoadProviderDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "GigaChat")
	t.Setenv("LLM_DISPUTE_MODEL", "GigaChat-Max")
	t.Setenv("OCR_LANGUAGES", "rus, eng")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "gigachat", cfg.LLM.Provider)
	assert.Equal(t, "GigaChat", cfg.LLM.Stages.Transactions.Model)
	assert.Equal(t, "GigaChat-Max", cfg.LLM.Stages.Dispute.Model)
	assert.Equal(t, []string{"rus", "eng"}, cfg.OCR.Languages)
}

func TestLoadStagesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.yaml")
	content := "structured:\n  model: claude-3-5-sonnet\n  temperature: 0.05\ninsights:\n  model: claude-3-haiku\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_STAGES_FILE", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "claude-3-5-sonnet", cfg.LLM.Stages.Structured.Model)
	assert.Equal(t, 0.05, cfg.LLM.Stages.Structured.Temperature)
	assert.Equal(t, "claude-3-haiku", cfg.LLM.Stages.Insights.Model)
	assert.Equal(t, 0.2, cfg.LLM.Stages.Insights.Temperature)
}

func TestLoadStagesFileUnknownStage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("summary:\n  model: x\n"), 0o600))

	t.Setenv("LLM_STAGES_FILE", path)

	_, err := config.Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		fields []string
	}{
		{
			name:   "valid",
			mutate: func(c *config.Config) {},
		},
		{
			name:   "missing anthropic key",
			mutate: func(c *config.Config) { c.Anthropic.APIKey = "" },
			fields: []string{"ANTHROPIC_API_KEY"},
		},
		{
			name:   "unknown provider and backend",
			mutate: func(c *config.Config) { c.LLM.Provider = "bard"; c.Storage.Backend = "ftp" },
			fields: []string{"LLM_PROVIDER", "STORAGE_BACKEND"},
		},
		{
			name:   "gcs without bucket",
			mutate: func(c *config.Config) { c.Storage.Backend = "gcs" },
			fields: []string{"GCS_BUCKET"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				LLM:       config.LLMConfig{Provider: "anthropic"},
				Anthropic: config.AnthropicConfig{APIKey: "key"},
				OCR:       config.OCRConfig{Provider: "tesseract", Languages: []string{"eng"}},
				Storage:   config.StorageConfig{Backend: "local", UploadDir: "uploads"},
				Worker:    config.WorkerConfig{Workers: 2},
			}
			tt.mutate(cfg)

			var fields []string
			for _, e := range cfg.Validate() {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}
