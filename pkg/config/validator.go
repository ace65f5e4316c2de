package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate reports settings that would make the service fail at its first request.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	switch c.LLM.Provider {
	case "gigachat":
		if c.GigaChat.APIKey == "" {
			errs = append(errs, ValidationError{Field: "GIGACHAT_API_KEY", Message: "required for the gigachat provider"})
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			errs = append(errs, ValidationError{Field: "ANTHROPIC_API_KEY", Message: "required for the anthropic provider"})
		}
	case "ollama":
		if c.Ollama.BaseURL == "" {
			errs = append(errs, ValidationError{Field: "OLLAMA_BASE_URL", Message: "required for the ollama provider"})
		}
	case "vertex":
		if c.Vertex.ProjectID == "" || c.Vertex.Region == "" {
			errs = append(errs, ValidationError{Field: "VERTEX_PROJECT_ID", Message: "project and region are required for the vertex provider"})
		}
	default:
		errs = append(errs, ValidationError{Field: "LLM_PROVIDER", Message: fmt.Sprintf("unsupported provider %q", c.LLM.Provider)})
	}

	if c.LLM.RatePerSecond < 0 {
		errs = append(errs, ValidationError{Field: "LLM_RATE_PER_SECOND", Message: "must not be negative"})
	}

	switch c.OCR.Provider {
	case "tesseract":
		if len(c.OCR.Languages) == 0 {
			errs = append(errs, ValidationError{Field: "OCR_LANGUAGES", Message: "at least one language is required"})
		}
	case "gigachat":
		if c.GigaChat.APIKey == "" {
			errs = append(errs, ValidationError{Field: "GIGACHAT_API_KEY", Message: "required for gigachat OCR"})
		}
	default:
		errs = append(errs, ValidationError{Field: "OCR_PROVIDER", Message: fmt.Sprintf("unsupported provider %q", c.OCR.Provider)})
	}

	switch c.Storage.Backend {
	case "local":
		if strings.TrimSpace(c.Storage.UploadDir) == "" {
			errs = append(errs, ValidationError{Field: "DOCUMENT_STORAGE_PATH", Message: "required for local storage"})
		}
	case "gcs":
		if c.Storage.Bucket == "" {
			errs = append(errs, ValidationError{Field: "GCS_BUCKET", Message: "required for gcs storage"})
		}
	default:
		errs = append(errs, ValidationError{Field: "STORAGE_BACKEND", Message: fmt.Sprintf("unsupported backend %q", c.Storage.Backend)})
	}

	if c.Worker.Workers < 1 {
		errs = append(errs, ValidationError{Field: "WORKER_COUNT", Message: "must be at least 1"})
	}

	return errs
}
