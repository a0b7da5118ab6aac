package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var (
	appOnce   sync.Once
	appConfig *AppConfig
)

// AppConfig holds service-level settings and the knobs of the extraction
// pipeline. Everything is read once at startup; the pipeline treats the
// resulting values as read-only.
type AppConfig struct {
	ServerAddr string

	// Image limits (normalizer).
	MaxImageBytes  int64
	MaxImageWidth  int
	MaxImageHeight int

	// OCR.
	OCRLanguages string
	TessdataDir  string

	// Generative engine.
	GeminiAPIKey      string
	GeminiModel       string
	GenerativeTimeout time.Duration
	GenerativeRetries int
}

// GetAppConfig loads the application configuration from the environment.
// A .env file is honored when present.
func GetAppConfig() *AppConfig {
	appOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("no .env file found, using environment variables")
		}

		appConfig = &AppConfig{
			ServerAddr:        getEnv("SERVER_ADDR", ":8080"),
			MaxImageBytes:     getEnvInt64("MAX_IMAGE_BYTES", 50*1024*1024),
			MaxImageWidth:     getEnvInt("MAX_IMAGE_WIDTH", 5000),
			MaxImageHeight:    getEnvInt("MAX_IMAGE_HEIGHT", 5000),
			OCRLanguages:      getEnv("OCR_LANGUAGES", "jpn+eng"),
			TessdataDir:       os.Getenv("TESSDATA_PREFIX"),
			GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			GenerativeTimeout: getEnvDuration("GENERATIVE_TIMEOUT", 30*time.Second),
			GenerativeRetries: getEnvInt("GENERATIVE_RETRIES", 3),
		}
	})
	return appConfig
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
