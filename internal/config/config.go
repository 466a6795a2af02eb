package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr    string
	DBPath        string
	BlobPath      string
	BlobBaseURL   string
	CatalogPath   string
	VisionBackend string
	OllamaHost    string
	OllamaModel   string
	ClaudeAPIKey  string
	ClaudeModel   string
	LogLevel      string
	LogFormat     string
	LogFile       string
}

func Load() *Config {
	// A missing .env is fine; env vars and defaults still apply.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env: %v", err)
	}

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DBPath:        getEnv("DB_PATH", "/data/dugout.db"),
		BlobPath:      getEnv("BLOB_PATH", "/data/images"),
		BlobBaseURL:   getEnv("BLOB_BASE_URL", "/images"),
		CatalogPath:   getEnv("CATALOG_PATH", ""),
		VisionBackend: getEnv("VISION_BACKEND", "off"),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "moondream"),
		ClaudeAPIKey:  getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:   getEnv("CLAUDE_MODEL", "claude-3-5-haiku-latest"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		LogFile:       getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
