package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by VERIDICT_ENV (or .env by default).
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("VERIDICT_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing env file is fine; the defaults below cover everything.
	_ = godotenv.Load(envFile)

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL is optional: eval runs work without a database and simply
// skip persistence.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey protects the serve API. Empty means the API is open, which is the
// sensible default for a local results browser.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// ResultsDir is where eval runs write their artifacts.
// Defaults to results/runs.
func ResultsDir() string {
	dir := os.Getenv("RESULTS_DIR")
	if dir == "" {
		return "results/runs"
	}
	return dir
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "mock" so runs never require network access.
// Valid values: openai, mock
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "mock"
	}
	return p
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
