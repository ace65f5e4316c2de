package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	LLM       LLMConfig
	GigaChat  GigaChatConfig
	Anthropic AnthropicConfig
	Ollama    OllamaConfig
	Vertex    VertexConfig
	OCR       OCRConfig
	Storage   StorageConfig
	Worker    WorkerConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level  string
	Format string // json | console
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimitMB  int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

// LLMConfig selects the model provider and the per-stage model parameters.
type LLMConfig struct {
	Provider      string // gigachat | anthropic | ollama | vertex
	RatePerSecond float64
	RateBurst     int
	StagesFile    string
	Stages        StageModels
}

// StageParams mirrors llm.ModelParams so that config stays free of internal imports.
type StageParams struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type StageModels struct {
	Structured   StageParams `yaml:"structured"`
	Transactions StageParams `yaml:"transactions"`
	Insights     StageParams `yaml:"insights"`
	Dispute      StageParams `yaml:"dispute"`
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type AnthropicConfig struct {
	APIKey string
}

type OllamaConfig struct {
	BaseURL string
}

type VertexConfig struct {
	ProjectID string
	Region    string
}

type OCRConfig struct {
	Provider  string // tesseract | gigachat
	Languages []string
}

type StorageConfig struct {
	Backend         string // local | gcs
	UploadDir       string
	Bucket          string
	CredentialsFile string
}

type WorkerConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same (Docker/K8s)
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout := getEnvInt("SERVER_READ_TIMEOUT", 30)
	writeTimeout := getEnvInt("SERVER_WRITE_TIMEOUT", 30)
	jwtExp := getEnvInt("JWT_EXPIRATION_HOURS", 24)
	refreshExp := getEnvInt("JWT_REFRESH_EXPIRATION_HOURS", 168)
	jobTimeout := getEnvInt("WORKER_JOB_TIMEOUT_SECONDS", 0)
	ratePerSecond, _ := strconv.ParseFloat(getEnv("LLM_RATE_PER_SECOND", "0"), 64)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			BodyLimitMB:  getEnvInt("SERVER_BODY_LIMIT_MB", 20),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "fingenius"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		LLM: LLMConfig{
			Provider:      strings.ToLower(getEnv("LLM_PROVIDER", "anthropic")),
			RatePerSecond: ratePerSecond,
			RateBurst:     getEnvInt("LLM_RATE_BURST", 1),
			StagesFile:    getEnv("LLM_STAGES_FILE", ""),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true",
		},
		Anthropic: AnthropicConfig{
			APIKey: getEnv("ANTHROPIC_API_KEY", ""),
		},
		Ollama: OllamaConfig{
			BaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Vertex: VertexConfig{
			ProjectID: getEnv("VERTEX_PROJECT_ID", ""),
			Region:    getEnv("VERTEX_REGION", "us-central1"),
		},
		OCR: OCRConfig{
			Provider:  strings.ToLower(getEnv("OCR_PROVIDER", "tesseract")),
			Languages: splitList(getEnv("OCR_LANGUAGES", "eng")),
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			UploadDir:       getEnv("DOCUMENT_STORAGE_PATH", "uploads"),
			Bucket:          getEnv("GCS_BUCKET", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		Worker: WorkerConfig{
			Workers:    getEnvInt("WORKER_COUNT", 4),
			QueueSize:  getEnvInt("WORKER_QUEUE_SIZE", 256),
			JobTimeout: time.Duration(jobTimeout) * time.Second,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
	}

	cfg.LLM.Stages = DefaultStageModels(cfg.LLM.Provider)
	applyStageEnv(&cfg.LLM.Stages)
	if cfg.LLM.StagesFile != "" {
		if err := loadStagesFile(cfg.LLM.StagesFile, &cfg.LLM.Stages); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// DefaultStageModels returns the per-stage models used when nothing overrides them.
func DefaultStageModels(provider string) StageModels {
	switch provider {
	case "gigachat":
		return StageModels{
			Structured:   StageParams{Model: "GigaChat-Max", Temperature: 0.1},
			Transactions: StageParams{Model: "GigaChat", Temperature: 0.1},
			Insights:     StageParams{Model: "GigaChat-Pro", Temperature: 0.2},
			Dispute:      StageParams{Model: "GigaChat-Pro", Temperature: 0.2},
		}
	case "ollama":
		return StageModels{
			Structured:   StageParams{Model: "mistral", Temperature: 0.1},
			Transactions: StageParams{Model: "mistral", Temperature: 0.1},
			Insights:     StageParams{Model: "mistral", Temperature: 0.2},
			Dispute:      StageParams{Model: "mistral", Temperature: 0.2},
		}
	case "vertex":
		return StageModels{
			Structured:   StageParams{Model: "gemini-1.5-pro", Temperature: 0.1},
			Transactions: StageParams{Model: "gemini-1.5-flash", Temperature: 0.1},
			Insights:     StageParams{Model: "gemini-1.5-pro", Temperature: 0.2},
			Dispute:      StageParams{Model: "gemini-1.5-pro", Temperature: 0.2},
		}
	default:
		return StageModels{
			Structured:   StageParams{Model: "claude-3-opus-20240229", Temperature: 0.1},
			Transactions: StageParams{Model: "claude-3-haiku-20240307", Temperature: 0.1},
			Insights:     StageParams{Model: "claude-3-sonnet-20240229", Temperature: 0.2},
			Dispute:      StageParams{Model: "claude-3-sonnet-20240229", Temperature: 0.2},
		}
	}
}

func applyStageEnv(stages *StageModels) {
	if model := os.Getenv("LLM_STRUCTURED_MODEL"); model != "" {
		stages.Structured.Model = model
	}
	if model := os.Getenv("LLM_TRANSACTIONS_MODEL"); model != "" {
		stages.Transactions.Model = model
	}
	if model := os.Getenv("LLM_INSIGHTS_MODEL"); model != "" {
		stages.Insights.Model = model
	}
	if model := os.Getenv("LLM_DISPUTE_MODEL"); model != "" {
		stages.Dispute.Model = model
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
