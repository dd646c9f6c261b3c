package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	// Postgres-backed render job queue; required by the API and worker,
	// unused by the standalone CLI.
	DatabaseURL string

	// Media workspace root for scene snapshots, generated assets, and
	// render outputs.
	StoragePath string

	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIVisionModel string
	OpenAIImageModel  string
	OpenAIBaseURL     string

	SoraModelID  string
	SoraBaseURL  string
	SoraPollWait time.Duration

	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string
	MusicLengthMS     int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. requireDB controls whether a missing DATABASE_URL
// is an error; the CLI runs without one.
func LoadConfig(requireDB bool) (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		StoragePath:       getEnv("STORAGE_PATH", "./storage"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIVisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4.1-mini"),
		OpenAIImageModel:  getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		SoraModelID:       getEnv("SORA_MODEL_ID", "sora-2"),
		SoraBaseURL:       getEnv("SORA_BASE_URL", "https://api.openai.com/v1"),
		SoraPollWait:      time.Minute * time.Duration(getEnvInt("SORA_POLL_BUDGET_MINUTES", 6)),
		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsBaseURL: getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1"),
		MusicLengthMS:     getEnvInt("MUSIC_LENGTH_MS", 45000),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if requireDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
