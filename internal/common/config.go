package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Paths Paths
	Batch BatchConfig
	Retry RetryConfig
	OCR   OCRConfig
	LLM   LLMConfig
	USDA  USDAConfig
}

// Paths holds the local directory layout.
type Paths struct {
	ImageDir     string
	ProductsDir  string
	LogsDir      string
	TrackingFile string
}

// BatchConfig holds batch-driver pacing.
type BatchConfig struct {
	Size       int
	GroupPause time.Duration
	ItemPause  time.Duration
}

// RetryConfig holds the backoff policy for external calls.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// OCRConfig holds tesseract-related configuration.
type OCRConfig struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
}

// LLMConfig holds OpenAI-related configuration.
type LLMConfig struct {
	BaseURL     string
	Model       string
	VisionModel string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// USDAConfig holds FoodData Central configuration. An empty key disables the
// primary nutrition path; the estimator fallback still runs.
type USDAConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Paths: Paths{
			ImageDir:     getEnv("RECIPE_IMAGE_DIR", "./Original-Images"),
			ProductsDir:  getEnv("RECIPE_PRODUCTS_DIR", "./Products"),
			LogsDir:      getEnv("RECIPE_LOGS_DIR", "./logs"),
			TrackingFile: getEnv("RECIPE_TRACKING_FILE", "./processed_images.json"),
		},
		Batch: BatchConfig{
			Size:       getEnvAsInt("RECIPE_BATCH_SIZE", 5),
			GroupPause: getEnvAsDuration("RECIPE_BATCH_PAUSE", 30*time.Second),
			ItemPause:  getEnvAsDuration("RECIPE_ITEM_PAUSE", 2*time.Second),
		},
		Retry: RetryConfig{
			MaxRetries: getEnvAsInt("RECIPE_MAX_RETRIES", 3),
			BaseDelay:  getEnvAsDuration("RECIPE_RETRY_BASE_DELAY", time.Second),
			MaxDelay:   getEnvAsDuration("RECIPE_RETRY_MAX_DELAY", 30*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			VisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.4),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		USDA: USDAConfig{
			BaseURL: getEnv("USDA_BASE_URL", "https://api.nal.usda.gov/fdc/v1"),
			APIKey:  getEnv("USDA_API_KEY", ""),
			Timeout: getEnvAsDuration("USDA_TIMEOUT", 20*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return ConfigError("OPENAI_API_KEY is required")
	}
	if c.Paths.ImageDir == "" {
		return ConfigError("RECIPE_IMAGE_DIR is required")
	}
	if c.Batch.Size <= 0 {
		return ConfigError("RECIPE_BATCH_SIZE must be positive")
	}
	if c.Retry.MaxRetries < 0 {
		return ConfigError("RECIPE_MAX_RETRIES must not be negative")
	}
	return nil
}
