package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const Version = "1.0.0"

type Config struct {
	App       AppConfig
	Data      DataConfig
	Messaging MessagingConfig
	Auth      AuthConfig
	Ai        AIConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	ClientURL          string
	Environment        string
	LogFilePath        string
	NotificationLog    string
	CorsAllowedOrigins string
}

type DataConfig struct {
	Dir            string
	Backend        string // "file", "postgres" or "sqlite"
	Connection     string
	RecoverCorrupt bool
}

type MessagingConfig struct {
	NatsURL      string // empty uses the in-process bus
	RedisURL     string // empty keeps notifications single-instance
	RedisChannel string
}

type AuthConfig struct {
	JwtSecret string // empty disables auth
}

type AIConfig struct {
	LLMProvider   string // "openai", "gemini" or "ollama"
	LLMModel      string
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
	OllamaBaseURL string
	Timeout       time.Duration
	CacheTTL      time.Duration
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	env := getEnv("GO_ENV", "development")
	clientURL := getEnv("CLIENT_URL", "http://localhost:5173")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			ClientURL:          clientURL,
			Environment:        env,
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			NotificationLog:    getEnv("NOTIFICATION_LOG_FILE_PATH", "logs/notification.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", corsOrigins(clientURL, env)),
		},
		Data: DataConfig{
			Dir:            getEnv("DATA_DIR", "data"),
			Backend:        strings.ToLower(getEnv("DATA_BACKEND", "file")),
			Connection:     getEnv("DB_CONNECTION_STRING", ""),
			RecoverCorrupt: getEnvAsBool("DATA_RECOVER_CORRUPT", false),
		},
		Messaging: MessagingConfig{
			NatsURL:      getEnv("NATS_URL", ""),
			RedisURL:     getEnv("REDIS_URL", ""),
			RedisChannel: getEnv("REDIS_CHANNEL", "cluster_events"),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			LLMModel:      getEnv("LLM_MODEL", ""),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			GeminiKey:     getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Timeout:       getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
			CacheTTL:      getEnvAsDuration("AI_CACHE_TTL", 10*time.Minute),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "enculture-backend"),
		},
	}
}

// corsOrigins allows the frontend, plus the usual dev servers outside
// production.
func corsOrigins(clientURL, env string) string {
	origins := []string{clientURL}
	if env != "production" {
		for _, o := range []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:5173"} {
			if o != clientURL {
				origins = append(origins, o)
			}
		}
	}
	return strings.Join(origins, ",")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs := getEnvAsInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
