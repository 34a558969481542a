package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Session  SessionConfig
	Keys     APIKeys
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	PipelineLogPath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	EventsTopic        string
	ApiKey             string // Shared key expected in x-api-key
	RequireClientId    bool   // Streaming route demands x-browser-id
}

type DatabaseConfig struct {
	Connection string
}

type SessionConfig struct {
	Backend    string        // "redis" | "postgres" | "memory"
	RuntimeTTL time.Duration // 0 keeps runtime sessions until replaced
}

type APIKeys struct {
	GoogleGemini string
	HuggingFace  string
}

type AIConfig struct {
	LLMProvider   string // "gemini", "ollama", "huggingface"
	LLMModel      string
	OllamaBaseURL string

	ExtractModel    string
	SearchModel     string
	WriterModel     string
	RefineModel     string
	ClassifierModel string
	ImageModel      string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			PipelineLogPath:    getEnv("PIPELINE_LOG_FILE_PATH", "logs/agent_pipeline.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			EventsTopic:        getEnv("EVENTS_TOPIC", "FOLIO_LIFECYCLE"),
			ApiKey:             getEnv("APP_API_KEY", ""),
			RequireClientId:    getEnvAsBool("REQUIRE_CLIENT_ID", true),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Session: SessionConfig{
			Backend:    getEnv("SESSION_BACKEND", "redis"),
			RuntimeTTL: getEnvAsDuration("RUNTIME_SESSION_TTL", 0),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:      getEnv("LLM_MODEL", "gemini-2.5-flash-lite"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),

			ExtractModel:    getEnv("EXTRACT_MODEL", ""),
			SearchModel:     getEnv("SEARCH_MODEL", ""),
			WriterModel:     getEnv("WRITER_MODEL", ""),
			RefineModel:     getEnv("REFINE_MODEL", ""),
			ClassifierModel: getEnv("CLASSIFIER_MODEL", ""),
			ImageModel:      getEnv("IMAGE_MODEL", "gemini-2.5-flash-image"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
